package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"Directory/internal/app"
	"Directory/internal/config"
	"Directory/internal/logger"
	"Directory/internal/service"

	"github.com/spf13/cobra"
)

// serviceOpener builds the directory service and a cleanup func.
type serviceOpener func(ctx context.Context) (*service.AccountService, func(), error)

func Execute() {
	cmd := newRootCmd(openFromEnv)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open serviceOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "directoryctl",
		Short:        "Create and look up directory accounts",
		SilenceUsage: true,
	}

	cmd.AddCommand(createCmd(open))
	cmd.AddCommand(getCmd(open))
	cmd.AddCommand(listCmd(open))
	return cmd
}

// openFromEnv wires the same store and cache as the API process.
func openFromEnv(ctx context.Context) (*service.AccountService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(os.Stderr, logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a.Service(), func() { _ = a.Close(ctx) }, nil
}

func withService(cmd *cobra.Command, open serviceOpener, fn func(context.Context, *service.AccountService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, cleanup, err := open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
