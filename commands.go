package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextdocs/docsearch/internal/config"
	"github.com/nextdocs/docsearch/internal/httpapi"
	"github.com/nextdocs/docsearch/internal/router"
	"github.com/nextdocs/docsearch/internal/service"
	"github.com/nextdocs/docsearch/internal/source"
	"github.com/nextdocs/docsearch/internal/watch"
	"github.com/nextdocs/docsearch/tools"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listen string
	var watchContent bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search endpoint over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, err := startService(ctx, *configPath)
			if err != nil {
				return err
			}
			defer closeService(svc)

			cfg := svc.Config()
			if listen == "" {
				listen = cfg.Listen
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return httpapi.NewServer(listen, version, svc).Run(gctx)
			})
			if watchContent || cfg.Watch.Enabled {
				g.Go(func() error {
					return watchService(gctx, svc)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&watchContent, "watch", false, "Rebuild indexes when content changes")
	return cmd
}

// watchService refreshes svc whenever its content settles after a change
func watchService(ctx context.Context, svc *service.Service) error {
	debounce, err := svc.Config().DebounceDuration()
	if err != nil {
		return err
	}

	extensions := append([]string{".json"}, source.Extensions...)
	w, err := watch.New(debounce, extensions, func(ctx context.Context) {
		if _, err := svc.Refresh(ctx); err != nil {
			log.Printf("Warning: rebuild failed, keeping generation %d: %v", svc.Status().Generation, err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	for _, path := range svc.ContentPaths() {
		if err := w.Add(path); err != nil {
			return err
		}
		log.Printf("✓ Watching %s", path)
	}

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve documentation search tools over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// MCP uses stdout for protocol
			log.SetOutput(os.Stderr)
			log.Printf("%s v%s starting...", serverName, version)

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, err := startService(ctx, *configPath)
			if err != nil {
				return err
			}
			defer closeService(svc)

			server := mcp.NewServer(&mcp.Implementation{
				Name:    serverName,
				Version: version,
			}, nil)

			if err := tools.RegisterDocSearchTools(server, svc); err != nil {
				return fmt.Errorf("failed to register tools: %w", err)
			}

			log.Printf("✓ Server ready and waiting for connections")
			if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

func newQueryCmd(configPath *string) *cobra.Command {
	var req router.Request

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run one search and print the grouped results as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Keep stdout for results
			log.SetOutput(cmd.ErrOrStderr())

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, err := startService(ctx, *configPath)
			if err != nil {
				return err
			}
			defer closeService(svc)

			req.Query = args[0]
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(svc.Search(ctx, req))
		},
	}

	cmd.Flags().StringVar(&req.Tag, "tag", "", "Restrict results to pages with this tag")
	cmd.Flags().StringVar(&req.Locale, "locale", "", "Locale of an internationalized deployment")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "Maximum raw hits before grouping")
	return cmd
}

func newIndexCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build every configured index and print its statistics as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.SetOutput(cmd.ErrOrStderr())

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, err := startService(ctx, *configPath)
			if err != nil {
				return err
			}
			defer closeService(svc)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(svc.Status())
		},
	}
}

func newInitCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := *configPath
			if path == "" {
				path = config.DefaultPath
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.NewConfig().WriteYAML(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
