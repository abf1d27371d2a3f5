package log

// defaults applied by Config.withDefaults
const (
	DefaultLevel   = "info"
	DefaultPattern = "%time [%level] %msg %fields\n"
	DefaultTime    = "2006-01-02T15:04:05.000Z07:00"
)

type Config struct {
	Level     string           `mapstructure:"level" yaml:"level"`
	Pattern   string           `mapstructure:"pattern" yaml:"pattern"`
	Time      string           `mapstructure:"time" yaml:"time"`
	Appenders []AppenderConfig `mapstructure:"appenders" yaml:"appenders,omitempty"`
}

// AppenderConfig selects one output. Type is "console" or "file"; Options
// holds the type's own knobs and is decoded per appender.
type AppenderConfig struct {
	Type    string                 `mapstructure:"type" yaml:"type"`
	Options map[string]interface{} `mapstructure:"options" yaml:"options,omitempty"`
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Level == "" {
		out.Level = DefaultLevel
	}
	if out.Pattern == "" {
		out.Pattern = DefaultPattern
	}
	if out.Time == "" {
		out.Time = DefaultTime
	}
	if len(out.Appenders) == 0 {
		out.Appenders = []AppenderConfig{{Type: "console"}}
	}
	return &out
}
