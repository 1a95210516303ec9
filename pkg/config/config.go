package config

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config describes all configuration options
type Config struct {
	Root      string `toml:"root" usage:"Project root (default: the closest parent directory containing deps_root)"`
	DepsRoot  string `toml:"deps_root" default:"deps" usage:"Directory containing the dependency sources, relative to the project root"`
	DepsFile  string `toml:"deps_file" usage:"Dependency table (.yml or .star); defaults to deps.yml / deps.star in the project root"`
	SourceDir string `toml:"source_dir" default:"." usage:"Source directory of the project itself"`
	BuildDir  string `toml:"build_dir" default:"build" usage:"Build directory of the project itself"`
	Tool      string `toml:"tool" default:"cmake" usage:"Build-configuration tool"`
	Generator string `toml:"generator" usage:"CMake generator (i.e. Ninja)"`
	BuildType string `toml:"build_type" usage:"CMAKE_BUILD_TYPE for dependencies and the project"`
	Debug     bool   `toml:"debug" default:"false" usage:"Print every log field and full error stack traces"`
	Log       struct {
		Level string `toml:"level" default:"info"`
		JSON  bool   `toml:"json" default:"false" usage:"Output JSONND instead of pretty console messages"`
	} `toml:"log"`
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

var buildTypes = map[string]bool{
	"":               true,
	"Debug":          true,
	"Release":        true,
	"RelWithDebInfo": true,
	"MinSizeRel":     true,
}

// Loader initializes an empty config object and returns a new Loader for this object.
// Values are read from the defaults, setup.toml in the working directory and SETUP_* environment variables.
// Command line flags are handled by cobra.
func Loader(files ...string) (*Config, *aconfig.Loader) {
	if len(files) == 0 {
		files = []string{"setup.toml"}
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SETUP",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load is a shortcut for Loader() followed by Load() and Validate()
func Load(files ...string) (*Config, error) {
	cfg, loader := Loader(files...)
	err := loader.Load()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load configuration")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	if !buildTypes[cfg.BuildType] {
		return eris.Errorf(`Invalid value for build_type: %s (must be one of Debug, Release, RelWithDebInfo or MinSizeRel)`, cfg.BuildType)
	}

	if cfg.DepsRoot == "" {
		return eris.New(`deps_root can't be empty`)
	}

	if cfg.Tool == "" {
		return eris.New(`tool can't be empty`)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}
