package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edustack/mentora/store"
)

// askCmd runs the full tutoring pipeline from a terminal.
var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Interactive tutoring session in the terminal",
	Run: func(_ *cobra.Command, _ []string) {
		runREPL("ask> ", func(ctx context.Context, svc *services, query string) {
			result := svc.Orchestrator.AnswerLesson(ctx, query, "")
			fmt.Println(result.Answer)
			for _, image := range result.Images {
				fmt.Printf("  [image] %s\n", image.Path)
			}
			if result.Video != nil {
				fmt.Printf("  [video] %s\n", result.Video.URL)
			}
		})
	},
}

// searchCmd inspects raw retrieval results without generation.
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Query the knowledge base and print the raw matches",
	Run: func(_ *cobra.Command, _ []string) {
		runREPL("search> ", func(ctx context.Context, svc *services, query string) {
			vector, err := svc.Embedding.Embed(ctx, query)
			if err != nil {
				fmt.Printf("embedding failed: %v\n", err)
				return
			}
			results, err := svc.Store.SearchPoints(ctx, store.KnowledgeCollection, vector, 5, nil)
			if err != nil {
				fmt.Printf("search failed: %v\n", err)
				return
			}
			if len(results) == 0 {
				fmt.Println("no matches")
				return
			}
			for _, result := range results {
				fmt.Printf("%.4f  [%s]  %s\n", result.Score, result.Payload.Kind, snippet(result.Payload.Content))
			}
		})
	},
}

func runREPL(prompt string, handle func(ctx context.Context, svc *services, query string)) {
	instanceProfile, err := buildProfile()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
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

	fmt.Println(`Type a question, or "exit" to quit.`)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			return
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			return
		}
		handle(ctx, svc, query)
	}
}

func snippet(s string) string {
	const limit = 120
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
