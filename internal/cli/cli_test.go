package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) (string, error) {
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTriggersPrintsTable(t *testing.T) {
	out, err := execute("triggers", "--table", "auditory-oddball")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 26)
	assert.Contains(t, lines[0], "EVENT")
	assert.Regexp(t, `^0\s+00000000\s+PLACEHOLDER$`, lines[1])
	assert.Regexp(t, `^10\s+00001010\s+ISI$`, lines[11])
}

func TestTriggersUnknownTable(t *testing.T) {
	_, err := execute("triggers", "--table", "nback")
	assert.ErrorContains(t, err, `unknown table "nback"`)
}

func TestRunNeedsPlan(t *testing.T) {
	_, err := execute("run")
	assert.ErrorContains(t, err, "plan")
}

func TestRunUnknownBackend(t *testing.T) {
	_, err := execute("run", "--plan", "plan.csv", "--backend", "vr")
	assert.ErrorContains(t, err, `unknown backend "vr"`)
}
