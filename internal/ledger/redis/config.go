package redis

// Config contains usage ledger settings. An empty Addr disables the ledger.
type Config struct {
	Addr      string `env:"REDIS_ADDR"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB"              envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX"      envDefault:"streambench"`
	RecordTTL int    `env:"REDIS_RECORD_TTL_HOURS" envDefault:"168"`
}

// Enabled reports whether a Redis address is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.Addr != ""
}
