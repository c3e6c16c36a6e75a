package idle

import "time"

const (
	DefaultIdleTimeout      = 10 * time.Minute
	DefaultPollInterval     = 60 * time.Second
	DefaultActivityThrottle = time.Second
)

// Config holds the monitor timings.
type Config struct {
	IdleTimeout      time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"10m"`
	PollInterval     time.Duration `env:"SESSION_POLL_INTERVAL" envDefault:"60s"`
	ActivityThrottle time.Duration `env:"SESSION_ACTIVITY_THROTTLE" envDefault:"1s"`
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:      DefaultIdleTimeout,
		PollInterval:     DefaultPollInterval,
		ActivityThrottle: DefaultActivityThrottle,
	}
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ActivityThrottle <= 0 {
		c.ActivityThrottle = DefaultActivityThrottle
	}
	return c
}
