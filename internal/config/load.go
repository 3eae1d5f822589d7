package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigName = "buildevents"
	DefaultConfigDir  = "./config"
	EnvPrefix         = "BUILDEVENTS"
)

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"output":    "report.output",
	"trace":     "report.trace_output",
	"plan":      "build.plan",
	"workers":   "build.workers",
	"shell":     "build.shell",
	"log-level": "log.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("report.output", "target/buildevents.json")
	v.SetDefault("report.trace_output", "")
	v.SetDefault("build.plan", "buildevents.yml")
	v.SetDefault("build.workers", runtime.NumCPU())
	v.SetDefault("build.shell", "bash")
	v.SetDefault("log.level", "")
}

// Load resolves configuration from defaults, an optional TOML file, the
// environment and finally the given flags. An empty path looks for
// ./config/buildevents.toml and tolerates its absence.
func Load(path string, flags *pflag.FlagSet) (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("env", "APP_ENV"); err != nil {
		return nil, fmt.Errorf("error binding env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultConfigDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *AppConfig) Validate() error {
	if c.Report.Output == "" {
		return fmt.Errorf("report output path is required")
	}
	if c.Build.Workers < 1 {
		return fmt.Errorf("build workers must be positive, got %d", c.Build.Workers)
	}
	return nil
}
