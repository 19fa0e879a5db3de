package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/viant/afs"

	"github.com/skosovsky/fieldmap"
	"github.com/skosovsky/fieldmap/config"
	"github.com/skosovsky/fieldmap/ext/tracing"
	"github.com/skosovsky/fieldmap/workflow"
)

var (
	cfgPath string

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin

	svcOnce sync.Once
	svcInst *service
	svcErr  error
)

// service is the registry plus the configuration it was built from.
type service struct {
	config   *config.Config
	logger   *slog.Logger
	registry *fieldmap.Registry
}

// setConfigPath remembers the CLI-level -c/--config parameter so that the service singleton
// can be created lazily by whichever sub-command runs.
func setConfigPath(p string) { cfgPath = p }

// serviceSingleton initialises the service once and reuses it within the same CLI invocation.
func serviceSingleton() (*service, error) {
	svcOnce.Do(func() {
		cfg := config.Default()
		if cfgPath != "" {
			cfg, svcErr = config.Load(context.Background(), cfgPath)
			if svcErr != nil {
				return
			}
		}
		svcInst, svcErr = newService(cfg)
	})
	return svcInst, svcErr
}

func newService(cfg *config.Config) (*service, error) {
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return nil, err
	}
	reg := fieldmap.NewRegistry(cfg.RegistryOptions()...)
	reg.Use(
		tracing.Middleware(nil),
		fieldmap.WithLogging(logger),
	)

	transform, err := fieldmap.NewTransformTool()
	if err != nil {
		return nil, err
	}
	placeholders, err := workflow.NewPlaceholdersTool()
	if err != nil {
		return nil, err
	}
	reg.Register(transform)
	reg.Register(placeholders)
	return &service{config: cfg, logger: logger, registry: reg}, nil
}

func newLogger(cfg config.Log, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// readInput reads location through afs; "-" reads standard input.
func readInput(ctx context.Context, location string) ([]byte, error) {
	if location == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", location, err)
	}
	return data, nil
}
