package corelog

// Config configures the process-wide logger. Appender is "stdout" or
// "file"; File is only consulted when Appender is "file".
type Config struct {
	Level    string     `mapstructure:"level"`
	Pattern  string     `mapstructure:"pattern"`
	Time     string     `mapstructure:"time"`
	Appender string     `mapstructure:"appender"`
	File     FileConfig `mapstructure:"file"`
}

// FileConfig mirrors lumberjack's rotation knobs.
type FileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns the configuration a worker boots with when no
// log section is present in its config file.
func DefaultConfig() *Config {
	return &Config{
		Level:    "info",
		Pattern:  "%time [%level] %field %msg\n",
		Time:     "2006-01-02T15:04:05.000Z07:00",
		Appender: "stdout",
	}
}
