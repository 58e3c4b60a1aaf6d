package config

import (
	"fmt"
	"strings"

	"github.com/LdDl/annot-go/annot"
	"github.com/spf13/viper"
)

// FramesConfig describes the frames of a job
type FramesConfig struct {
	Width   float64 `json:"width" mapstructure:"width"`
	Height  float64 `json:"height" mapstructure:"height"`
	Deleted []int   `json:"deleted" mapstructure:"deleted"`
}

// DBConfig holds sqlite settings
type DBConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// MasksConfig holds mask drawing policy
type MasksConfig struct {
	RemoveUnderlyingPixels bool `json:"removeUnderlyingPixels" mapstructure:"removeUnderlyingPixels"`
}

// PropagateConfig holds propagation settings
type PropagateConfig struct {
	IoUThreshold float64 `json:"iouThreshold" mapstructure:"iouThreshold"`
}

// Config is the whole CLI configuration
type Config struct {
	LogLevel  string          `json:"logLevel" mapstructure:"logLevel"`
	DB        DBConfig        `json:"db" mapstructure:"db"`
	Frames    FramesConfig    `json:"frames" mapstructure:"frames"`
	Masks     MasksConfig     `json:"masks" mapstructure:"masks"`
	Propagate PropagateConfig `json:"propagate" mapstructure:"propagate"`
	Palette   []string        `json:"palette" mapstructure:"palette"`
}

// New returns a viper instance with default values and ANNOT_ environment overrides
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("logLevel", "info")
	v.SetDefault("db.path", "annot.db")
	v.SetDefault("frames.width", 0)
	v.SetDefault("frames.height", 0)
	v.SetDefault("frames.deleted", []int{})
	v.SetDefault("masks.removeUnderlyingPixels", false)
	v.SetDefault("propagate.iouThreshold", annot.DefaultIoUThreshold)
	v.SetDefault("palette", annot.DefaultPalette())

	v.SetEnvPrefix("ANNOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from file on top of defaults. An empty path means defaults and environment only.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %v", err)
		}
	}
	return Decode(v)
}

// Decode validates values held by v
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %v", err)
	}
	if cfg.Frames.Width < 0 || cfg.Frames.Height < 0 {
		return Config{}, fmt.Errorf("frame size can not be negative, got %vx%v", cfg.Frames.Width, cfg.Frames.Height)
	}
	if cfg.Propagate.IoUThreshold <= 0 || cfg.Propagate.IoUThreshold > 1 {
		return Config{}, fmt.Errorf("propagate.iouThreshold must be in (0, 1], got %v", cfg.Propagate.IoUThreshold)
	}
	for _, color := range cfg.Palette {
		if !annot.ValidateColor(color) {
			return Config{}, fmt.Errorf("palette color %q is not a #rrggbb value", color)
		}
	}
	return cfg, nil
}

// FrameProvider turns frame settings into the provider used by the object model
func (c Config) FrameProvider() *annot.Frames {
	frames := &annot.Frames{
		Default: annot.FrameSize{Width: c.Frames.Width, Height: c.Frames.Height},
		Deleted: make(map[int]bool, len(c.Frames.Deleted)),
	}
	for _, frame := range c.Frames.Deleted {
		frames.Deleted[frame] = true
	}
	return frames
}

// Apply copies palette and mask policy onto inj
func (c Config) Apply(inj *annot.Injection) {
	if len(c.Palette) > 0 {
		inj.Palette = append([]string(nil), c.Palette...)
	}
	inj.RemoveUnderlyingPixels = c.Masks.RemoveUnderlyingPixels
}
