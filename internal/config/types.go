package config

type ReportConfig struct {
	Output      string `mapstructure:"output"`
	TraceOutput string `mapstructure:"trace_output"`
}

type BuildConfig struct {
	Plan    string `mapstructure:"plan"`
	Workers int    `mapstructure:"workers"`
	Shell   string `mapstructure:"shell"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	Env    string       `mapstructure:"env"`
	Report ReportConfig `mapstructure:"report"`
	Build  BuildConfig  `mapstructure:"build"`
	Log    LogConfig    `mapstructure:"log"`
}
