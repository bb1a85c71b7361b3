package bitcask

import (
	"time"

	"github.com/0xRadioAc7iv/caskdb/internal"
)

type Option func(*internal.Config)

func WithHost(host string) Option {
	return func(c *internal.Config) {
		c.Host = host
	}
}

func WithPort(port int) Option {
	return func(c *internal.Config) {
		c.Port = port
	}
}

// WithTimeout bounds dialing and every request/response round trip. Zero
// disables the per-command deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *internal.Config) {
		c.Timeout = d
	}
}
