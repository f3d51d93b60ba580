// Package session runs a plan of presentations read from CSV and writes one
// result row per step.
package session

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	KindStimulus Kind = iota
	KindInterval
	// KindMessage shows a text prompt and waits for the operator.
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindStimulus:
		return "stimulus"
	case KindInterval:
		return "interval"
	case KindMessage:
		return "message"
	}
	return "unknown"
}

type VisualKind int

const (
	VisualBlank VisualKind = iota
	VisualCross
	VisualCircle
	VisualText
	VisualImage
)

// Visual is what a stimulus step draws on every frame.
type Visual struct {
	Kind   VisualKind
	Radius float64
	Text   string
	Path   string
}

func (v Visual) String() string {
	switch v.Kind {
	case VisualCross:
		return "cross"
	case VisualCircle:
		return fmt.Sprintf("circle:%g", v.Radius)
	case VisualText:
		return "text:" + v.Text
	case VisualImage:
		return "image:" + v.Path
	}
	return "blank"
}

// Step is one row of a plan.
type Step struct {
	Line        int
	Kind        Kind
	Duration    time.Duration
	Trigger     string
	Visual      Visual
	ToneHz      float64
	SoundFile   string
	FreeViewing bool
}

// Label names the step in logs and result files.
func (s Step) Label() string {
	if s.Kind == KindInterval {
		return "interval"
	}
	switch {
	case s.ToneHz > 0:
		return fmt.Sprintf("%s+tone_%gHz", s.Visual, s.ToneHz)
	case s.SoundFile != "":
		return s.Visual.String() + "+" + filepath.Base(s.SoundFile)
	}
	return s.Visual.String()
}

type Plan struct {
	Steps []Step
}

// HasSound reports whether the step plays audio.
func (s Step) HasSound() bool { return s.ToneHz > 0 || s.SoundFile != "" }

// Columns of a plan file. Only the first two are required. The sound column
// holds a tone frequency in Hz or the path of a WAV file.
var Columns = []string{"kind", "duration_ms", "trigger", "visual", "sound", "free_viewing"}

func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	plan, err := ParsePlan(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	plan.resolve(filepath.Dir(path))
	return plan, nil
}

// resolve makes relative image and sound paths relative to dir.
func (p *Plan) resolve(dir string) {
	abs := func(name string) string {
		if name == "" || filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(dir, name)
	}
	for i := range p.Steps {
		s := &p.Steps[i]
		s.SoundFile = abs(s.SoundFile)
		if s.Visual.Kind == VisualImage {
			s.Visual.Path = abs(s.Visual.Path)
		}
	}
}

// Images lists the distinct image files the plan shows, in order of first use.
func (p *Plan) Images() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, s := range p.Steps {
		if s.Visual.Kind == VisualImage && !seen[s.Visual.Path] {
			seen[s.Visual.Path] = true
			paths = append(paths, s.Visual.Path)
		}
	}
	return paths
}

// ParsePlan reads plan rows. A first row starting with "kind" is a header; rows
// starting with '#' are comments.
func ParsePlan(r io.Reader) (*Plan, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var steps []Step
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		if len(steps) == 0 && strings.EqualFold(strings.TrimSpace(record[0]), Columns[0]) {
			continue
		}
		step, err := parseStep(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		step.Line = line
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}
	return &Plan{Steps: steps}, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseStep(record []string) (Step, error) {
	var s Step
	if len(record) < 2 {
		return s, fmt.Errorf("want at least kind and duration_ms, got %d fields", len(record))
	}

	switch strings.ToLower(field(record, 0)) {
	case "stimulus":
		s.Kind = KindStimulus
	case "interval", "isi":
		s.Kind = KindInterval
	case "message":
		s.Kind = KindMessage
	default:
		return s, fmt.Errorf("unknown step kind: %s", field(record, 0))
	}

	ms, err := strconv.ParseFloat(field(record, 1), 64)
	if err != nil || ms < 0 {
		return s, fmt.Errorf("invalid duration: %q", field(record, 1))
	}
	s.Duration = time.Duration(ms * float64(time.Millisecond))
	s.Trigger = field(record, 2)

	if s.Visual, err = ParseVisual(field(record, 3)); err != nil {
		return s, err
	}
	if s.Kind == KindMessage && s.Visual.Kind != VisualText {
		return s, fmt.Errorf("message steps need a text: visual")
	}

	if snd := field(record, 4); snd != "" {
		if hz, err := strconv.ParseFloat(snd, 64); err == nil {
			if hz <= 0 {
				return s, fmt.Errorf("invalid tone frequency: %q", snd)
			}
			s.ToneHz = hz
		} else if strings.EqualFold(filepath.Ext(snd), ".wav") {
			s.SoundFile = snd
		} else {
			return s, fmt.Errorf("invalid sound: %q is neither a frequency nor a .wav file", snd)
		}
	}
	if fv := field(record, 5); fv != "" {
		if s.FreeViewing, err = strconv.ParseBool(fv); err != nil {
			return s, fmt.Errorf("invalid free_viewing: %q", fv)
		}
	}
	return s, nil
}

// ParseVisual reads cross, blank, circle:<radius>, text:<string> or
// image:<path>. An empty string is blank.
func ParseVisual(s string) (Visual, error) {
	kind, arg, _ := strings.Cut(s, ":")
	switch strings.ToLower(kind) {
	case "", "blank":
		return Visual{Kind: VisualBlank}, nil
	case "cross":
		return Visual{Kind: VisualCross}, nil
	case "circle":
		r, err := strconv.ParseFloat(arg, 64)
		if err != nil || r <= 0 {
			return Visual{}, fmt.Errorf("invalid circle radius: %q", arg)
		}
		return Visual{Kind: VisualCircle, Radius: r}, nil
	case "text":
		if arg == "" {
			return Visual{}, fmt.Errorf("empty text visual")
		}
		return Visual{Kind: VisualText, Text: arg}, nil
	case "image":
		if arg == "" {
			return Visual{}, fmt.Errorf("empty image path")
		}
		return Visual{Kind: VisualImage, Path: arg}, nil
	}
	return Visual{}, fmt.Errorf("unknown visual: %q", s)
}
