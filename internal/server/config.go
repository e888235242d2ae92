package server

import (
	"fmt"
	"time"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/internal/validation"
)

// Config holds server configuration.
type Config struct {
	Addr string
	// AllowedOrigins lists origin patterns accepted for WebSocket upgrades:
	// "*", "*.example.com" or "https://example.com". Empty means same host
	// only.
	AllowedOrigins []string
	// MaxMessageSize is the largest single WebSocket message in bytes.
	MaxMessageSize int64
	// MaxSourceSize caps the bytes a session may buffer before finalizing.
	MaxSourceSize int
	// MaxMessageRate is messages per second per connection.
	MaxMessageRate int
	PingInterval   time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// Verify runs the gpython syntax check on every translation.
	Verify bool
}

// DefaultConfig returns a configuration for a local server.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:8765",
		MaxMessageSize: 1 << 20,
		MaxSourceSize:  validation.MaxSourceSize,
		MaxMessageRate: 50,
		PingInterval:   54 * time.Second,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.NewConfiguration("addr", "must not be empty")
	case c.MaxMessageSize <= 0:
		return errors.NewConfiguration("max message size", "must be positive")
	case c.MaxSourceSize <= 0:
		return errors.NewConfiguration("max source size", "must be positive")
	case c.MaxMessageRate <= 0:
		return errors.NewConfiguration("max message rate", "must be positive")
	case c.WriteTimeout <= 0:
		return errors.NewConfiguration("write timeout", "must be positive")
	case c.PingInterval <= 0 || c.PingInterval >= c.ReadTimeout:
		return errors.NewConfiguration("ping interval",
			fmt.Sprintf("%v must be positive and shorter than the read timeout %v", c.PingInterval, c.ReadTimeout))
	}
	for _, o := range c.AllowedOrigins {
		if err := validation.ValidateOrigin(o); err != nil {
			return errors.NewConfiguration("allowed origins", err.Error())
		}
	}
	return nil
}
