package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/sales-atlas/pkg/runtime/app"
	"github.com/de-tools/sales-atlas/pkg/runtime/terminal"
	"github.com/de-tools/sales-atlas/pkg/services/config"
	"github.com/de-tools/sales-atlas/pkg/services/dashboard"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger()

	var a *app.App
	cli := terminal.NewCLI(terminal.Options{
		Setup: func(ctx context.Context, path string) (dashboard.Service, error) {
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load configuration: %w", err)
			}
			zerolog.SetGlobalLevel(app.ParseLevel(cfg.Log.Level))

			a, err = app.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return a.Dashboard, nil
		},
		Output: os.Stdout,
	})

	err := cli.ExecuteContext(logger.WithContext(context.Background()))
	if a != nil {
		_ = a.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
