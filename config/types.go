package config

// Config holds this module's ambient settings: which mode to run the
// async request logger in and where/how it rotates its log file. There
// is no server, database, or runtime config here — chatparser has none
// of those concerns.
type Config struct {
	Mode          string `json:"mode,omitempty" env:"AUTOPARSER_ENV" envDefault:"production"`
	Log           string `json:"log,omitempty" env:"AUTOPARSER_LOG"`
	LogMode       string `json:"log_mode,omitempty" env:"AUTOPARSER_LOG_MODE" envDefault:"TEXT"`
	LogMaxSize    int    `json:"log_max_size,omitempty" env:"AUTOPARSER_LOG_MAX_SIZE" envDefault:"100"`
	LogMaxAge     int    `json:"log_max_age,omitempty" env:"AUTOPARSER_LOG_MAX_AGE" envDefault:"7"`
	LogMaxBackups int    `json:"log_max_backups,omitempty" env:"AUTOPARSER_LOG_MAX_BACKUPS" envDefault:"3"`
	LogLocalTime  bool   `json:"log_local_time,omitempty" env:"AUTOPARSER_LOG_LOCAL_TIME" envDefault:"true"`
}
