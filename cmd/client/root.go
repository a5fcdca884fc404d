package main

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvote/internal/client/cli"
	"github.com/dmitrijs2005/gophvote/internal/client/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	addr       string
	timeout    time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "gophvote",
		Short:         "Interactive client for the gophvote proposal registry",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			app, err := cli.NewApp(cfg)
			if err != nil {
				return fmt.Errorf("error creating client: %w", err)
			}

			app.Run(cmd.Context())
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (JSON)")
	cmd.PersistentFlags().StringVarP(&opts.addr, "addr", "a", "", "address and port of the gRPC server")
	cmd.PersistentFlags().DurationVarP(&opts.timeout, "timeout", "t", 0, "per-request timeout")

	return cmd
}

// loadConfig overlays explicitly set flags on top of defaults and the
// config file.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.ServerEndpointAddr = opts.addr
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = opts.timeout
	}
	return cfg, nil
}
