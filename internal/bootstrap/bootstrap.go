// Package bootstrap builds a Feedscope instance from application config.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cognicore/feedscope/internal/llm"
	"github.com/cognicore/feedscope/internal/logging"
	"github.com/cognicore/feedscope/pkg/feedscope"
	"github.com/cognicore/feedscope/pkg/feedscope/config"
	"github.com/cognicore/feedscope/pkg/feedscope/intent"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
	"github.com/cognicore/feedscope/pkg/feedscope/store"
	"github.com/cognicore/feedscope/pkg/feedscope/store/memstore"
	"github.com/cognicore/feedscope/pkg/feedscope/store/sqlite"
)

// Build loads the dataset, vocabulary, history and model backend named
// by cfg. The returned cleanup closes the history store.
func Build(ctx context.Context, cfg *config.App) (*feedscope.Feedscope, *config.Dataset, func(), error) {
	loader := cfg.Dataset()
	ds, err := loader.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load dataset: %w", err)
	}

	var vocab *config.Vocabulary
	if cfg.VocabularyPath != "" {
		if vocab, err = config.LoadVocabulary(cfg.VocabularyPath); err != nil {
			return nil, nil, nil, fmt.Errorf("load vocabulary: %w", err)
		}
	}

	backend, err := NewBackend(cfg.LLM)
	if err != nil {
		return nil, nil, nil, err
	}
	if backend != nil && cfg.LLM.BreakerFailures > 0 {
		backend = llm.NewBreaker(backend, llm.BreakerConfig{
			Name:     cfg.LLM.Provider,
			Failures: cfg.LLM.BreakerFailures,
			Cooldown: cfg.LLM.BreakerCooldown,
		})
	}

	hist, err := OpenHistory(ctx, cfg.History)
	if err != nil {
		return nil, nil, nil, err
	}

	log := logging.Logger()
	opts := feedscope.Options{
		Catalog:         ds.Catalog,
		Keywords:        intent.NewKeywordParser(vocab.Build()),
		DisableFallback: !cfg.LLM.KeywordFallback,
		History:         hist,
		Logger:          &log,
	}
	if backend != nil {
		opts.Interpreter = backend
		if cfg.LLM.Narrate {
			opts.Narrator = backend
		}
	}

	fs, err := feedscope.New(opts)
	if err != nil {
		hist.Close()
		return nil, nil, nil, err
	}
	logging.Info().
		Int("feeds", ds.Catalog.Len()).
		Str("provider", cfg.LLM.Provider).
		Str("history", cfg.History.Driver).
		Msg("feedscope ready")

	cleanup := func() {
		if err := fs.Close(); err != nil {
			logging.Warn().Err(err).Msg("close history")
		}
	}
	return fs, ds, cleanup, nil
}

// NewBackend returns the configured model backend, or nil for provider none.
func NewBackend(cfg config.LLMConfig) (llm.Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", config.ProviderNone:
		return nil, nil
	case config.ProviderOpenAI:
		if cfg.BaseURL == "" || cfg.Model == "" {
			return nil, fmt.Errorf("%w: openai provider needs base_url and model", internalerr.ErrInvalidConfig)
		}
		return &llm.Client{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			HTTPClient: &http.Client{Timeout: cfg.Timeout},
		}, nil
	case config.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: anthropic provider needs api_key", internalerr.ErrInvalidConfig)
		}
		var opts []option.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
		}
		return llm.NewAnthropic(cfg.APIKey, cfg.Model, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", internalerr.ErrInvalidConfig, cfg.Provider)
	}
}

// OpenHistory opens the configured answer history store.
func OpenHistory(ctx context.Context, cfg config.HistoryConfig) (store.History, error) {
	switch cfg.Driver {
	case "", "memory":
		return memstore.New(), nil
	case "sqlite":
		h, err := sqlite.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%w: unknown history driver %q", internalerr.ErrInvalidConfig, cfg.Driver)
	}
}
