package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cognicore/feedscope/internal/llm"
	"github.com/cognicore/feedscope/pkg/feedscope"
	"github.com/cognicore/feedscope/pkg/feedscope/config"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

const feedsCSV = `FEED_ID,THEATER,CODEC,RES_W,RES_H,LAT_MS,MODL_TAG,ENCR,CIV_OK
FD-001,PAC,H265,3840,2160,150,Viper-VL,True,True
FD-002,EUR,H264,1280,720,800,,False,True
`

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.FeedsFile), []byte(feedsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.EncoderParamsFile), []byte(`{"gop":30}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestBuildDefaults(t *testing.T) {
	cfg := config.DefaultApp()
	cfg.DataDir = writeDataDir(t)

	fs, ds, cleanup, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer cleanup()

	if fs.Engine().Catalog().Len() != 2 {
		t.Errorf("expected 2 feeds, got %d", fs.Engine().Catalog().Len())
	}
	if ds.EncoderParams == nil || ds.DecoderParams != nil {
		t.Errorf("unexpected companion files %+v", ds)
	}

	ans, err := fs.Ask(context.Background(), feedscope.AskRequest{Question: "feeds in the pacific"})
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Fallback || ans.Outcome.Result == nil || ans.Outcome.Result.Count != 1 {
		t.Errorf("unexpected answer %+v", ans)
	}
	if _, err := fs.History().GetAnswer(context.Background(), ans.ID); err != nil {
		t.Errorf("answer should be stored: %v", err)
	}
}

func TestBuildSQLiteHistoryAndVocabulary(t *testing.T) {
	dir := writeDataDir(t)
	vocabPath := filepath.Join(dir, "vocab.yaml")
	vocab := "theaters:\n  - value: EUR\n    keywords: [\"old world\"]\n"
	if err := os.WriteFile(vocabPath, []byte(vocab), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultApp()
	cfg.DataDir = dir
	cfg.VocabularyPath = vocabPath
	cfg.History = config.HistoryConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "history.db")}

	fs, _, cleanup, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer cleanup()

	ans, err := fs.Ask(context.Background(), feedscope.AskRequest{Question: "What is in the Old World?"})
	if err != nil {
		t.Fatal(err)
	}
	if ans.Intent.Theater != "EUR" {
		t.Errorf("vocabulary not applied: %+v", ans.Intent)
	}
	recent, err := fs.History().RecentAnswers(context.Background(), 5)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one stored answer, got %d (%v)", len(recent), err)
	}
}

func TestBuildMissingDataset(t *testing.T) {
	cfg := config.DefaultApp()
	cfg.DataDir = t.TempDir()
	if _, _, _, err := Build(context.Background(), cfg); !errors.Is(err, internalerr.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(config.LLMConfig{Provider: config.ProviderNone})
	if err != nil || b != nil {
		t.Fatalf("provider none should yield no backend, got %v %v", b, err)
	}

	b, err = NewBackend(config.LLMConfig{Provider: config.ProviderOpenAI, BaseURL: "http://localhost:11434/v1", Model: "llama3"})
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := b.(*llm.Client); !ok || c.Model != "llama3" {
		t.Errorf("expected openai client, got %T", b)
	}

	b, err = NewBackend(config.LLMConfig{Provider: config.ProviderAnthropic, APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}
	if a, ok := b.(*llm.Anthropic); !ok || a.Model() != llm.DefaultAnthropicModel {
		t.Errorf("expected anthropic backend with default model, got %T", b)
	}

	for _, cfg := range []config.LLMConfig{
		{Provider: config.ProviderOpenAI},
		{Provider: config.ProviderAnthropic},
		{Provider: "cohere"},
	} {
		if _, err := NewBackend(cfg); !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", cfg.Provider, err)
		}
	}
}

func TestOpenHistoryUnknownDriver(t *testing.T) {
	if _, err := OpenHistory(context.Background(), config.HistoryConfig{Driver: "redis"}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildFallsBackWhenUpstreamFails(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	cfg := config.DefaultApp()
	cfg.DataDir = writeDataDir(t)
	cfg.LLM.Provider = config.ProviderOpenAI
	cfg.LLM.BaseURL = upstream.URL + "/v1"
	cfg.LLM.Model = "test-model"
	cfg.LLM.Timeout = 5 * time.Second
	cfg.LLM.BreakerFailures = 1
	cfg.LLM.BreakerCooldown = time.Minute

	fs, _, cleanup, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer cleanup()

	for i := 0; i < 3; i++ {
		ans, err := fs.Ask(context.Background(), feedscope.AskRequest{Question: "feeds in europe"})
		if err != nil {
			t.Fatal(err)
		}
		if !ans.Fallback || ans.Intent.Theater != "EUR" {
			t.Fatalf("expected keyword fallback, got %+v", ans.Intent)
		}
	}
	// one interpret call and one narrate call trip their breakers
	if n := calls.Load(); n != 2 {
		t.Errorf("open breakers should stop upstream calls, got %d", n)
	}
}
