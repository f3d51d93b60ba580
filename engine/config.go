package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"eyesync/trigger"
)

type Config struct {
	Display DisplayConfig `yaml:"display"`
	Gaze    GazeConfig    `yaml:"gaze"`
	Input   InputConfig   `yaml:"input"`
	Trigger TriggerConfig `yaml:"trigger"`
	Audio   AudioConfig   `yaml:"audio"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type DisplayConfig struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Fullscreen   bool    `yaml:"fullscreen"`
	VSync        bool    `yaml:"vsync"`
	Background   Color   `yaml:"background"`
	Fixation     Color   `yaml:"fixation_color"`
	Cue          Color   `yaml:"cue_color"`
	Text         Color   `yaml:"text_color"`
	FixationSize float64 `yaml:"fixation_size"`
	FontFile     string  `yaml:"font_file"`
	FontSize     int     `yaml:"font_size"`
}

type GazeConfig struct {
	// Cutoff is the distance from the center, in pixels, at which gaze counts
	// as off target.
	Cutoff             float64       `yaml:"cutoff"`
	NoDataWarningAfter time.Duration `yaml:"no_data_warning_after"`
	RestartOnRecovery  bool          `yaml:"restart_on_recovery"`
}

type InputConfig struct {
	PauseKey     string   `yaml:"pause_key"`
	QuitKey      string   `yaml:"quit_key"`
	ResponseKeys []string `yaml:"response_keys"`
}

type TriggerConfig struct {
	Table string `yaml:"table"`
	// Device is the serial device of the trigger box. Empty runs in dummy mode.
	Device     string        `yaml:"device"`
	Baud       int           `yaml:"baud"`
	PulseWidth time.Duration `yaml:"pulse_width"`
}

type AudioConfig struct {
	Enabled    bool          `yaml:"enabled"`
	SampleRate int           `yaml:"sample_rate"`
	Volume     float64       `yaml:"volume"`
	Ramp       time.Duration `yaml:"ramp"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			Width:        1920,
			Height:       1080,
			VSync:        true,
			Background:   Grey,
			Fixation:     Black,
			Cue:          Red,
			Text:         White,
			FixationSize: 60,
			FontSize:     24,
		},
		Gaze: GazeConfig{
			Cutoff:             180,
			NoDataWarningAfter: 500 * time.Millisecond,
			RestartOnRecovery:  true,
		},
		Input: InputConfig{
			PauseKey:     "p",
			QuitKey:      "escape",
			ResponseKeys: []string{"space"},
		},
		Trigger: TriggerConfig{
			Table:      trigger.VisualOddball.Name(),
			Baud:       9600,
			PulseWidth: trigger.DefaultPulseWidth,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Volume:     0.5,
			Ramp:       5 * time.Millisecond,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML file over the defaults. Unknown keys and trailing
// documents are rejected. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display: size %dx%d must be positive", c.Display.Width, c.Display.Height))
	}
	if c.Display.FixationSize <= 0 {
		errs = append(errs, fmt.Errorf("display: fixation_size must be positive"))
	}
	if c.Gaze.Cutoff <= 0 {
		errs = append(errs, fmt.Errorf("gaze: cutoff must be positive"))
	}
	if c.Gaze.NoDataWarningAfter < 0 {
		errs = append(errs, fmt.Errorf("gaze: no_data_warning_after must not be negative"))
	}
	if c.Input.QuitKey == "" {
		errs = append(errs, fmt.Errorf("input: quit_key is required"))
	}
	if c.Input.QuitKey != "" && c.Input.QuitKey == c.Input.PauseKey {
		errs = append(errs, fmt.Errorf("input: quit_key and pause_key are both %q", c.Input.QuitKey))
	}
	if _, ok := trigger.TableByName(c.Trigger.Table); !ok {
		errs = append(errs, fmt.Errorf("trigger: unknown table %q (have %v)", c.Trigger.Table, trigger.TableNames()))
	}
	if c.Trigger.PulseWidth <= 0 {
		errs = append(errs, fmt.Errorf("trigger: pulse_width must be positive"))
	}
	if c.Trigger.Device != "" && c.Trigger.Baud <= 0 {
		errs = append(errs, fmt.Errorf("trigger: baud must be positive"))
	}
	if c.Audio.Enabled && c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio: sample_rate must be positive"))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio: volume %.2f outside [0,1]", c.Audio.Volume))
	}
	return errors.Join(errs...)
}

// Style returns the drawing style derived from the display settings.
func (c *Config) Style() Style {
	return Style{
		Background:   c.Display.Background,
		Fixation:     c.Display.Fixation,
		FixationSize: c.Display.FixationSize,
		Cue:          c.Display.Cue,
		Text:         c.Display.Text,
	}
}

// TriggerTable returns the configured trigger table.
func (c *Config) TriggerTable() *trigger.Table {
	t, ok := trigger.TableByName(c.Trigger.Table)
	if !ok {
		return trigger.VisualOddball
	}
	return t
}
