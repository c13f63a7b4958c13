package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextdocs/docsearch/internal/config"
	"github.com/nextdocs/docsearch/internal/service"
)

const (
	version     = "0.1.0"
	serverName  = "docsearch"
	description = "Full-text search over markdown documentation"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           serverName,
		Short:         description,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate(serverName + " version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default "+config.DefaultPath+")")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newMCPCmd(&configPath))
	cmd.AddCommand(newQueryCmd(&configPath))
	cmd.AddCommand(newIndexCmd(&configPath))
	cmd.AddCommand(newInitCmd(&configPath))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", serverName, version)
			return err
		},
	}
}

// startService loads the configuration and builds the first generation
func startService(ctx context.Context, configPath string) (*service.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	svc, err := service.New(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := svc.Refresh(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("failed to build search indexes: %w", err)
	}
	return svc, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func closeService(svc *service.Service) {
	if err := svc.Close(); err != nil {
		log.Printf("Error closing search service: %v", err)
	}
}
