package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cognicore/feedscope/internal/bootstrap"
	"github.com/cognicore/feedscope/internal/logging"
	"github.com/cognicore/feedscope/internal/replay"
	"github.com/cognicore/feedscope/pkg/feedscope"
	"github.com/cognicore/feedscope/pkg/feedscope/config"
	"github.com/cognicore/feedscope/pkg/feedscope/intent"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Config file (optional, also "+config.ConfigPathEnvVar+")")
		dataDir     = flag.String("data", "", "Data directory (overrides config)")
		provider    = flag.String("provider", "", "LLM provider: none, openai, anthropic (overrides config)")
		query       = flag.String("query", "", "One-shot question (non-interactive mode)")
		intentsPath = flag.String("intents", "", "Replay recorded intents from a JSONL file and exit")
		explain     = flag.Bool("explain", false, "Print the intent and resolved call for each answer")
	)
	flag.Parse()

	cfg, err := config.LoadApp(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *provider != "" {
		cfg.LLM.Provider = *provider
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx := context.Background()

	fs, _, cleanup, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	// Replay mode
	if *intentsPath != "" {
		if err := runReplay(fs, *intentsPath, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	// One-shot query mode
	if *query != "" {
		if err := executeQuery(ctx, fs, *query, *explain, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Interactive mode
	fmt.Println("===========================================")
	fmt.Println("  Feedscope Chat")
	fmt.Printf("  %d camera feeds loaded\n", fs.Engine().Catalog().Len())
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Try one of:")
	for _, q := range feedscope.SampleQuestions {
		fmt.Println("  -", q)
	}
	fmt.Println()
	fmt.Println("Type your question (Ctrl+D to exit):")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		if err := executeQuery(ctx, fs, question, *explain, os.Stdout); err != nil {
			fmt.Println("Error:", err)
		}
	}

	fmt.Println("\nGoodbye!")
}

func executeQuery(ctx context.Context, fs *feedscope.Feedscope, question string, explain bool, w io.Writer) error {
	ans, err := fs.Ask(ctx, feedscope.AskRequest{Question: question})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintf(w, "\n%s\n", ans.Text)

	if explain {
		fmt.Fprintf(w, "\n--- Answer %s ---\n", ans.ID)
		fmt.Fprintf(w, "  Intent: %s", ans.Intent.Operation)
		for _, h := range []struct{ name, value string }{
			{"theater", ans.Intent.Theater},
			{"codec", ans.Intent.Codec},
			{"resolution", ans.Intent.Resolution},
			{"quality", ans.Intent.Quality},
			{"latency", ans.Intent.Latency},
		} {
			if h.value != "" {
				fmt.Fprintf(w, " %s=%s", h.name, h.value)
			}
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Call: %s", ans.Outcome.Call.Kind)
		for k, v := range ans.Outcome.Call.Args {
			fmt.Fprintf(w, " %s=%s", k, v)
		}
		fmt.Fprintln(w)
		if ans.Fallback {
			fmt.Fprintln(w, "  Interpreted by keyword matching")
		}
		if res := ans.Outcome.Result; res != nil {
			fmt.Fprintf(w, "  Matched: %d\n", res.Count)
			for _, warn := range res.Warnings {
				fmt.Fprintln(w, "  Warning:", warn)
			}
		}
	}
	fmt.Fprintln(w)
	return nil
}

func runReplay(fs *feedscope.Feedscope, path string, w io.Writer) error {
	entries, err := replay.LoadFromJSONL(path)
	if err != nil {
		return fmt.Errorf("load intents: %w", err)
	}
	results, err := replay.Run(intent.NewResolver(fs.Engine()), entries, w)
	if err != nil {
		return err
	}
	logging.Info().Int("entries", len(results)).Str("path", path).Msg("replay done")
	return nil
}
