package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/feedscope/pkg/feedscope/intent"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "{}\n")
	cfg, err := LoadApp(path)
	if err != nil {
		t.Fatalf("LoadApp: %v", err)
	}
	def := DefaultApp()
	if cfg.DataDir != def.DataDir || cfg.Server.Addr != def.Server.Addr {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !cfg.LLM.KeywordFallback || cfg.LLM.Provider != ProviderNone {
		t.Errorf("unexpected llm defaults %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %v", cfg.LLM.Timeout)
	}
	if cfg.LLM.BreakerFailures != 3 || cfg.LLM.BreakerCooldown != 30*time.Second {
		t.Errorf("unexpected breaker defaults %+v", cfg.LLM)
	}
	if cfg.Server.AskRatePerMinute != 30 || len(cfg.Server.CORSOrigins) != 0 {
		t.Errorf("unexpected server defaults %+v", cfg.Server)
	}
}

func TestLoadAppServerMiddleware(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feedscope.yaml", `
server:
  cors_origins: ["https://dash.example", "http://localhost:3000"]
  ask_rate_per_minute: 5
`)
	t.Setenv("FEEDSCOPE_LLM_BREAKER_FAILURES", "0")

	cfg, err := LoadApp(path)
	if err != nil {
		t.Fatalf("LoadApp: %v", err)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != "https://dash.example" {
		t.Errorf("cors origins lost: %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.AskRatePerMinute != 5 {
		t.Errorf("expected rate 5, got %d", cfg.Server.AskRatePerMinute)
	}
	if cfg.LLM.BreakerFailures != 0 {
		t.Errorf("env should disable the breaker, got %d", cfg.LLM.BreakerFailures)
	}
}

func TestLoadAppFileAndEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feedscope.yaml", `
data_dir: /srv/feeds
history:
  driver: sqlite
  path: /srv/history.db
llm:
  provider: openai
  base_url: http://localhost:11434/v1
  model: llama3
  timeout: 5s
logging:
  level: debug
  format: json
`)
	t.Setenv("FEEDSCOPE_LLM_MODEL", "qwen2")
	t.Setenv("FEEDSCOPE_LLM_KEYWORD_FALLBACK", "false")
	t.Setenv("FEEDSCOPE_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("FEEDSCOPE_UNRELATED", "ignored")

	cfg, err := LoadApp(path)
	if err != nil {
		t.Fatalf("LoadApp: %v", err)
	}
	if cfg.DataDir != "/srv/feeds" || cfg.History.Driver != "sqlite" || cfg.History.Path != "/srv/history.db" {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.LLM.Model != "qwen2" {
		t.Errorf("env should override file, got model %q", cfg.LLM.Model)
	}
	if cfg.LLM.KeywordFallback {
		t.Error("env should disable keyword fallback")
	}
	if cfg.LLM.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.LLM.Timeout)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("expected server addr override, got %q", cfg.Server.Addr)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json logging, got %q", cfg.Logging.Format)
	}
}

func TestLoadAppInvalid(t *testing.T) {
	tests := map[string]string{
		"bad provider":      "llm:\n  provider: carrier-pigeon\n",
		"sqlite needs path": "history:\n  driver: sqlite\n",
		"bad log level":     "logging:\n  level: loud\n",
		"negative rate":     "server:\n  ask_rate_per_minute: -1\n",
		"malformed yaml":    "llm: [unterminated\n",
		"empty data dir":    "data_dir: \"\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "c.yaml", body)
			_, err := LoadApp(path)
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

const feedsCSV = "FEED_ID,THEATER,CODEC,RES_W,RES_H,LAT_MS,MODL_TAG,ENCR,CIV_OK\nFD-001,PAC,H265,3840,2160,150,Viper-VL,true,true\n"

func TestDatasetLoaderFeedsOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FeedsFile, feedsCSV)

	loader := DatasetFromDir(dir)
	if loader.EncoderParamsPath != "" || loader.TableDefsPath != "" {
		t.Errorf("missing companion files should be skipped: %+v", loader)
	}
	ds, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Catalog.Len() != 1 {
		t.Errorf("expected 1 feed, got %d", ds.Catalog.Len())
	}
	if _, err := ds.Params(ParamsEncoder); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing params, got %v", err)
	}
}

func TestDatasetLoaderAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FeedsFile, feedsCSV)
	writeFile(t, dir, TableDefsFile, "Column,Description\nFEED_ID,Feed id\n")
	writeFile(t, dir, EncoderParamsFile, `{"bitrate_kbps": 8000}`)
	writeFile(t, dir, DecoderParamsFile, `{"buffer_ms": 200}`)
	writeFile(t, dir, EncoderSchemaFile, `{"type": "object"}`)
	writeFile(t, dir, DecoderSchemaFile, `{"type": "object"}`)

	loader := DatasetFromDir(dir)
	ds, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.TableDefs == nil || len(ds.TableDefs.Rows) != 1 {
		t.Errorf("table defs not loaded: %+v", ds.TableDefs)
	}
	p, err := ds.Params(ParamsDecoder)
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if string(p.Body) != `{"buffer_ms": 200}` {
		t.Errorf("params should be verbatim, got %s", p.Body)
	}
	if p.Description != "Video decoding configuration for all camera feeds" {
		t.Errorf("unexpected description %q", p.Description)
	}
	if len(ds.EncoderSchema) == 0 || len(ds.DecoderSchema) == 0 {
		t.Error("schemas not loaded")
	}
}

func TestDatasetLoaderErrors(t *testing.T) {
	if _, err := (&DatasetLoader{}).Load(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("empty loader: expected ErrInvalidConfig, got %v", err)
	}

	dir := t.TempDir()
	feeds := writeFile(t, dir, FeedsFile, feedsCSV)
	bad := writeFile(t, dir, EncoderParamsFile, `{"bitrate_kbps": `)
	loader := DatasetLoader{FeedsPath: feeds, EncoderParamsPath: bad}
	if _, err := loader.Load(); !errors.Is(err, internalerr.ErrLoad) {
		t.Errorf("invalid JSON: expected ErrLoad, got %v", err)
	}

	loader = DatasetLoader{FeedsPath: filepath.Join(dir, "missing.csv")}
	if _, err := loader.Load(); !errors.Is(err, internalerr.ErrLoad) {
		t.Errorf("missing feeds: expected ErrLoad, got %v", err)
	}
}

func TestLoadVocabulary(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vocab.yaml", `
theaters:
  - value: ARC
    keywords: [polar, arctic]
other_filters:
  - filter: encrypted
    value: true
    keywords: [secure]
`)
	v, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}
	p := intent.NewKeywordParser(v.Build())

	got := p.Parse("secure polar feeds in hevc")
	if got.Theater != "ARC" {
		t.Errorf("expected ARC, got %q", got.Theater)
	}
	if got.Codec != "H265" {
		t.Errorf("codecs should keep defaults, got %q", got.Codec)
	}
	if got.OtherFilters["encrypted"] != true {
		t.Errorf("custom flag not applied: %v", got.OtherFilters)
	}
	if p.Parse("pacific").Theater != "" {
		t.Error("theaters section should replace the defaults")
	}
}

func TestLoadVocabularyInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vocab.yaml", "codecs:\n  - value: AV1\n")
	if _, err := LoadVocabulary(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := LoadVocabulary("/nonexistent/vocab.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNilVocabularyBuildsDefaults(t *testing.T) {
	var v *Vocabulary
	if len(v.Build().Theaters) != len(intent.DefaultVocabulary().Theaters) {
		t.Error("nil vocabulary should build the defaults")
	}
}
