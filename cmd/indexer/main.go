package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nextdocs/docsearch/internal/config"
	"github.com/nextdocs/docsearch/internal/indexing"
	"github.com/nextdocs/docsearch/internal/service"
)

func main() {
	if err := newIndexerCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newIndexerCmd() *cobra.Command {
	var configPath string
	var dumpDir string

	cmd := &cobra.Command{
		Use:          "indexer",
		Short:        "Build the configured search indexes and report what they contain",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, configPath, dumpDir)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (default "+config.DefaultPath+")")
	cmd.Flags().StringVar(&dumpDir, "dump", "", "Write the records of every index as JSON into this directory")
	return cmd
}

func run(cmd *cobra.Command, configPath, dumpDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	svc, err := service.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	log.Printf("Documentation Indexer v%d (%s mode)", indexing.IndexSchemaVersion, cfg.Mode)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	status, err := svc.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to build indexes: %w", err)
	}

	keys := make([]string, 0, len(status.Stats))
	for key := range status.Stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("✓ Indexing complete in %s", status.Duration)
	for _, key := range keys {
		stats := status.Stats[key]
		log.Printf("")
		log.Printf("Index %s:", displayKey(key))
		log.Printf("  Documents: %d", stats.Documents)
		log.Printf("  Pages:     %d", stats.Pages)
		log.Printf("  Headings:  %d", stats.Headings)
		log.Printf("  Texts:     %d", stats.Texts)
		log.Printf("  Records:   %d", stats.Records)
	}
	log.Printf("  Schema:    v%d", indexing.IndexSchemaVersion)

	if dumpDir == "" {
		return nil
	}
	return dump(svc, dumpDir)
}

// dump writes the records each index was built from, one file per locale
func dump(svc *service.Service, dir string) error {
	docs, err := svc.Documents()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	for key, set := range docs {
		language := key
		if language == "" {
			language = svc.Config().Language
		}

		records, _, err := indexing.Records(set, svc.IndexOptions(language))
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode records: %w", err)
		}

		path := filepath.Join(dir, dumpName(key))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Printf("✓ Wrote %d records to %s", len(records), path)
	}
	return nil
}

func displayKey(key string) string {
	if key == "" {
		return "default"
	}
	return key
}

func dumpName(key string) string {
	return fmt.Sprintf("records-%s.json", displayKey(key))
}
