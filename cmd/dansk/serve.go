package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/internal/server"
	"github.com/FocuswithJustin/dansk/internal/validation"
)

// ServeCmd runs the HTTP and WebSocket server.
type ServeCmd struct {
	Addr          string        `default:"127.0.0.1:8765" help:"Listen address" env:"DANSK_ADDR"`
	Origins       []string      `help:"Allowed WebSocket origins (*, *.example.com or https://example.com); same host when empty" env:"DANSK_ORIGINS"`
	MaxSourceSize string        `name:"max-source-size" default:"16MiB" help:"Largest source a session may buffer"`
	Rate          int           `default:"50" help:"WebSocket messages per second per connection"`
	ReadTimeout   time.Duration `name:"read-timeout" default:"60s" help:"Close idle WebSocket connections after this long"`
	Verify        bool          `help:"Parse every translation with gpython and report syntax errors as warnings"`
}

func (c *ServeCmd) config() (server.Config, error) {
	cfg := server.DefaultConfig()
	cfg.Addr = c.Addr
	cfg.AllowedOrigins = c.Origins
	cfg.MaxMessageRate = c.Rate
	cfg.Verify = c.Verify
	if c.ReadTimeout > 0 {
		cfg.ReadTimeout = c.ReadTimeout
		cfg.PingInterval = c.ReadTimeout * 9 / 10
	}

	size, err := humanize.ParseBytes(c.MaxSourceSize)
	if err != nil {
		return cfg, errors.NewConfiguration("max-source-size", err.Error())
	}
	if size == 0 || size > validation.MaxSourceSize {
		return cfg, errors.NewConfiguration("max-source-size",
			"must be between 1 byte and "+humanize.IBytes(validation.MaxSourceSize))
	}
	cfg.MaxSourceSize = int(size)
	return cfg, cfg.Validate()
}

func (c *ServeCmd) Run() error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	var opts []server.Option
	cache, err := openCache()
	if err != nil {
		return err
	}
	if cache != nil {
		opts = append(opts, server.WithCache(cache))
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		opts = append(opts, server.WithJournal(j))
	}

	srv, err := server.New(cfg, opts...)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}
