package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/edustack/mentora/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <manifest.json>",
	Short: "Load pre-chunked study material into the knowledge base",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		instanceProfile, err := buildProfile()
		if err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		manifest, err := ingest.LoadManifest(args[0])
		if err != nil {
			slog.Error("failed to load manifest", "path", args[0], "error", err)
			os.Exit(1)
		}

		ctx := context.Background()
		svc, err := buildServices(ctx, instanceProfile)
		if err != nil {
			printDatabaseError(err, instanceProfile)
			slog.Error("failed to initialize services", "error", err)
			os.Exit(1)
		}
		defer svc.Close()

		ingester := ingest.NewIngester(svc.Embedding, svc.Store)
		written, err := ingester.Run(ctx, manifest)
		if err != nil {
			slog.Error("ingestion failed", "written", written, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d points into the knowledge base.\n", written)
	},
}
