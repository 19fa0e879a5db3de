package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/skosovsky/fieldmap/server"
)

// ServeCmd starts the HTTP server and shuts it down gracefully on SIGINT/SIGTERM.
type ServeCmd struct {
	Addr            string        `short:"a" long:"addr" description:"Listen address (overrides server.addr)"`
	ShutdownTimeout time.Duration `long:"shutdown-timeout" description:"How long to wait for in-flight calls" default:"10s"`
}

func (c *ServeCmd) Execute(_ []string) error {
	svc, err := serviceSingleton()
	if err != nil {
		return err
	}
	addr := c.Addr
	if addr == "" {
		addr = svc.config.Server.Addr
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(svc.registry,
		server.WithLogger(svc.logger),
		server.WithAllowedOrigins(svc.config.Server.AllowedOrigins...),
	)
	return srv.Serve(ctx, addr, c.ShutdownTimeout)
}
