package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/santiagomed/poststretch/pkg/fs"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config stores all configuration of a run. Distances given in microns are
// converted with the MM accessors before use.
type Config struct {
	Stretch    int     `mapstructure:"stretch"`
	Width      int     `mapstructure:"width"`
	Nozzle     int     `mapstructure:"nozzle"`
	DumpLayer  int     `mapstructure:"dump_layer"`
	BedSize    float64 `mapstructure:"bed_size"`
	DebugImage string  `mapstructure:"debug_image"`
	LogFile    string  `mapstructure:"log_file"`
	Verbose    bool    `mapstructure:"verbose"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Stretch:    170,
		Width:      700,
		Nozzle:     800,
		DumpLayer:  0,
		BedSize:    200,
		DebugImage: "poststretch.png",
	}
}

// StretchMM returns the stretch distance in millimetres.
func (c *Config) StretchMM() float64 { return float64(c.Stretch) / 1000.0 }

// WidthMM returns the wall width in millimetres.
func (c *Config) WidthMM() float64 { return float64(c.Width) / 1000.0 }

// NozzleMM returns the nozzle diameter in millimetres.
func (c *Config) NozzleMM() float64 { return float64(c.Nozzle) / 1000.0 }

// flag name -> configuration key
var flagKeys = map[string]string{
	"stretch":     "stretch",
	"width":       "width",
	"nozzle":      "nozzle",
	"dump-layer":  "dump_layer",
	"bed-size":    "bed_size",
	"debug-image": "debug_image",
	"log-file":    "log_file",
	"verbose":     "verbose",
}

// keys accepted in configuration files under another spelling
var aliases = map[string]string{
	"dumplayer":  "dump_layer",
	"bedsize":    "bed_size",
	"debugimage": "debug_image",
	"logfile":    "log_file",
}

// RegisterFlags adds the configuration flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()
	flags.Int("stretch", def.Stretch, "Stretch distance in microns")
	flags.Int("width", def.Width, "Wall width in microns")
	flags.Int("nozzle", def.Nozzle, "Nozzle diameter in microns")
	flags.Int("dump-layer", def.DumpLayer, "Layer to draw in the debug image, 0 disables it")
	flags.Float64("bed-size", def.BedSize, "Bed size in millimetres, corrected positions must stay inside")
	flags.String("debug-image", def.DebugImage, "Path of the debug image")
	flags.String("log-file", def.LogFile, "Path of the log file (default ~/.poststretch/poststretch.log)")
	flags.Bool("verbose", def.Verbose, "Also log to stderr")
}

// LoadConfig reads configuration from defaults, an optional file, the
// environment and flags, in increasing order of precedence.
//
// Files ending in .yaml, .yml, .toml or .json are read by viper. Anything
// else is read as a key=value file with an optional [poststretch] section.
func LoadConfig(fsys *fs.FileSystem, configPath string, flags *pflag.FlagSet) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetFs(fsys.Fs)

	v.SetDefault("stretch", def.Stretch)
	v.SetDefault("width", def.Width)
	v.SetDefault("nozzle", def.Nozzle)
	v.SetDefault("dump_layer", def.DumpLayer)
	v.SetDefault("bed_size", def.BedSize)
	v.SetDefault("debug_image", def.DebugImage)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("verbose", def.Verbose)

	if configPath != "" {
		if err := readConfigFile(v, fsys, configPath); err != nil {
			return nil, err
		}
	}
	// Registered after reading so that values under an alias move to the
	// canonical key.
	for alias, key := range aliases {
		v.RegisterAlias(alias, key)
	}

	v.SetEnvPrefix("POSTSTRETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("unable to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func readConfigFile(v *viper.Viper, fsys *fs.FileSystem, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml", ".json":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		return nil
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to open configuration file %s: %w", path, err)
	}
	values, err := readIni([]byte(data))
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("error merging config file: %w", err)
	}
	return nil
}

// readIni reads key=value lines. Keys of the default section and of an
// optional [poststretch] section are kept.
func readIni(data []byte) (map[string]any, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any)
	collect := func(section *ini.Section) {
		for _, key := range section.Keys() {
			name := strings.ToLower(key.Name())
			if canonical, ok := aliases[name]; ok {
				name = canonical
			}
			values[name] = key.String()
		}
	}
	collect(f.Section(ini.DefaultSection))
	if section, err := f.GetSection("poststretch"); err == nil {
		collect(section)
	}
	return values, nil
}

func validateConfig(config *Config) error {
	if config.Stretch < 0 {
		return fmt.Errorf("%w: stretch must not be negative, got %d", ErrInvalid, config.Stretch)
	}
	if config.Width <= 0 {
		return fmt.Errorf("%w: width must be positive, got %d", ErrInvalid, config.Width)
	}
	if config.Nozzle <= 0 {
		return fmt.Errorf("%w: nozzle must be positive, got %d", ErrInvalid, config.Nozzle)
	}
	if config.DumpLayer < 0 {
		return fmt.Errorf("%w: dump_layer must not be negative, got %d", ErrInvalid, config.DumpLayer)
	}
	if config.BedSize <= 0 {
		return fmt.Errorf("%w: bed_size must be positive, got %g", ErrInvalid, config.BedSize)
	}
	return nil
}
