package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cognicore/feedscope/pkg/feedscope"
	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
	"github.com/cognicore/feedscope/pkg/feedscope/config"
	"github.com/cognicore/feedscope/pkg/feedscope/store/memstore"
)

func testServer(t *testing.T, withHistory bool) *httptest.Server {
	return testServerWith(t, withHistory, Config{})
}

func testServerWith(t *testing.T, withHistory bool, cfg Config) *httptest.Server {
	t.Helper()
	cat, err := catalog.New([]catalog.Feed{
		{ID: "FD-001", Theater: catalog.TheaterPAC, Codec: catalog.CodecH265, Width: 3840, Height: 2160, LatencyMS: 150, ModelTag: "Viper-VL", Encrypted: true, CivilianSafe: true},
		{ID: "FD-002", Theater: catalog.TheaterEUR, Codec: catalog.CodecH264, Width: 1280, Height: 720, LatencyMS: 800, ModelTag: "Hydra-ISR", CivilianSafe: true},
		{ID: "FD-003", Theater: catalog.TheaterEUR, Codec: catalog.CodecH265, Width: 1920, Height: 1080, LatencyMS: 400},
	})
	if err != nil {
		t.Fatal(err)
	}
	opts := feedscope.Options{Catalog: cat}
	if withHistory {
		opts.History = memstore.New()
	}
	fs, err := feedscope.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { fs.Close() })

	ds := &config.Dataset{Catalog: cat, EncoderParams: json.RawMessage(`{"bitrate":4000}`)}
	srv := httptest.NewServer(New(fs, ds, cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode body: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestFeedRoutes(t *testing.T) {
	srv := testServer(t, false)

	tests := []struct {
		path  string
		count float64
	}{
		{"/api/v1/feeds/", 3},
		{"/api/v1/feeds/quality", 3},
		{"/api/v1/feeds/theater/eur", 2},
		{"/api/v1/feeds/codec/H265", 2},
		{"/api/v1/feeds/model/Viper-VL", 1},
		{"/api/v1/feeds/resolution?min_width=1920", 2},
		{"/api/v1/feeds/latency?max=500", 2},
		{"/api/v1/feeds/latency?min=200&max=900", 2},
		{"/api/v1/feeds/encrypted", 1},
		{"/api/v1/feeds/civilian-safe?value=false", 1},
		{"/api/v1/feeds/theater/MOON", 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := do(t, srv, http.MethodGet, tt.path, "")
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d: %v", status, body)
			}
			if body["count"] != tt.count {
				t.Errorf("expected count %v, got %v", tt.count, body["count"])
			}
		})
	}
}

func TestBadQueryParameters(t *testing.T) {
	srv := testServer(t, false)
	for _, path := range []string{
		"/api/v1/feeds/resolution?min_width=wide",
		"/api/v1/feeds/latency?max=fast",
		"/api/v1/feeds/encrypted?value=maybe",
	} {
		status, body := do(t, srv, http.MethodGet, path, "")
		if status != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, status)
		}
		if body["error"] == "" {
			t.Errorf("%s: expected an error message", path)
		}
	}
}

func TestFeedByID(t *testing.T) {
	srv := testServer(t, false)

	status, body := do(t, srv, http.MethodGet, "/api/v1/feeds/FD-002", "")
	if status != http.StatusOK || body["found"] != true {
		t.Fatalf("expected hit, got %d %v", status, body)
	}
	feed := body["feed"].(map[string]any)
	if feed["FEED_ID"] != "FD-002" {
		t.Errorf("unexpected feed %v", feed)
	}

	status, body = do(t, srv, http.MethodGet, "/api/v1/feeds/FD-999", "")
	if status != http.StatusNotFound || body["found"] != false {
		t.Fatalf("expected miss, got %d %v", status, body)
	}
	if hints, _ := body["available_feeds"].([]any); len(hints) == 0 {
		t.Error("miss should list available feeds")
	}
}

func TestSearch(t *testing.T) {
	srv := testServer(t, false)

	status, body := do(t, srv, http.MethodPost, "/api/v1/search", `{"theater":"EUR","codec":"H265"}`)
	if status != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("expected one match, got %d %v", status, body)
	}

	status, _ = do(t, srv, http.MethodPost, "/api/v1/search", `{"colour":"red"}`)
	if status != http.StatusBadRequest {
		t.Errorf("unknown filter should be 400, got %d", status)
	}

	status, _ = do(t, srv, http.MethodPost, "/api/v1/search", `{"min_width":-1}`)
	if status != http.StatusBadRequest {
		t.Errorf("invalid value should be 400, got %d", status)
	}

	status, _ = do(t, srv, http.MethodPost, "/api/v1/search", `not json`)
	if status != http.StatusBadRequest {
		t.Errorf("malformed body should be 400, got %d", status)
	}
}

func TestAnalysis(t *testing.T) {
	srv := testServer(t, false)

	status, body := do(t, srv, http.MethodGet, "/api/v1/analysis/theater", "")
	if status != http.StatusOK || body["total_feeds"] != float64(3) {
		t.Fatalf("unexpected theater distribution %d %v", status, body)
	}
	dist := body["distribution"].(map[string]any)
	if dist["EUR"] != float64(2) || dist["PAC"] != float64(1) {
		t.Errorf("unexpected counts %v", dist)
	}

	status, body = do(t, srv, http.MethodGet, "/api/v1/analysis/resolution", "")
	if status != http.StatusOK || body["unique_resolutions"] != float64(3) {
		t.Errorf("unexpected resolution distribution %d %v", status, body)
	}
}

func TestParams(t *testing.T) {
	srv := testServer(t, false)

	status, body := do(t, srv, http.MethodGet, "/api/v1/params/encoder", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if p, ok := body["encoder_params"].(map[string]any); !ok || p["bitrate"] != float64(4000) {
		t.Errorf("unexpected params %v", body)
	}

	if status, _ := do(t, srv, http.MethodGet, "/api/v1/params/decoder", ""); status != http.StatusNotFound {
		t.Errorf("unloaded params should be 404, got %d", status)
	}
	if status, _ := do(t, srv, http.MethodGet, "/api/v1/params/audio", ""); status != http.StatusNotFound {
		t.Errorf("unknown kind should be 404, got %d", status)
	}
}

func TestAskAndHistory(t *testing.T) {
	srv := testServer(t, true)

	status, body := do(t, srv, http.MethodPost, "/api/v1/ask", `{"question":"Show me feeds in Europe"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	if body["fallback"] != true {
		t.Error("keyword parser should be reported as fallback")
	}
	if !strings.Contains(body["html"].(string), "<p>") {
		t.Errorf("expected rendered html, got %q", body["html"])
	}
	outcome := body["outcome"].(map[string]any)
	if outcome["call"].(map[string]any)["tool"] != "filter_by_theater" {
		t.Errorf("unexpected call %v", outcome["call"])
	}
	id := body["id"].(string)

	status, body = do(t, srv, http.MethodGet, "/api/v1/answers", "")
	if status != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("expected one stored answer, got %d %v", status, body)
	}

	status, body = do(t, srv, http.MethodGet, "/api/v1/answers/"+id, "")
	if status != http.StatusOK {
		t.Fatalf("expected stored answer, got %d", status)
	}
	if card := body["answer"].(map[string]any); card["id"] != id {
		t.Errorf("unexpected card %v", card)
	}

	if status, _ := do(t, srv, http.MethodGet, "/api/v1/answers/nope", ""); status != http.StatusNotFound {
		t.Errorf("missing answer should be 404, got %d", status)
	}
	if status, _ := do(t, srv, http.MethodGet, "/api/v1/answers?limit=zero", ""); status != http.StatusBadRequest {
		t.Errorf("bad limit should be 400, got %d", status)
	}
}

func TestAskValidation(t *testing.T) {
	srv := testServer(t, true)
	for _, body := range []string{`{"question":""}`, `{}`, `{"question":"` + strings.Repeat("x", 2001) + `"}`} {
		if status, _ := do(t, srv, http.MethodPost, "/api/v1/ask", body); status != http.StatusBadRequest {
			t.Errorf("expected 400 for %.40s, got %d", body, status)
		}
	}
}

func TestAnswersWithoutHistory(t *testing.T) {
	srv := testServer(t, false)
	if status, _ := do(t, srv, http.MethodGet, "/api/v1/answers", ""); status != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", status)
	}
}

func TestHealthAndSamples(t *testing.T) {
	srv := testServer(t, false)

	status, body := do(t, srv, http.MethodGet, "/api/v1/health", "")
	if status != http.StatusOK || body["feeds"] != float64(3) || body["history"] != false {
		t.Errorf("unexpected health %d %v", status, body)
	}

	status, body = do(t, srv, http.MethodGet, "/api/v1/samples", "")
	if qs, _ := body["questions"].([]any); status != http.StatusOK || len(qs) != len(feedscope.SampleQuestions) {
		t.Errorf("unexpected samples %d %v", status, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, false)
	do(t, srv, http.MethodGet, "/api/v1/health", "")

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "feedscope_http_requests_total") {
		t.Error("request counter not exported")
	}
}

func TestAskRateLimit(t *testing.T) {
	srv := testServerWith(t, false, Config{AskRatePerMinute: 2})
	for i := 0; i < 2; i++ {
		if status, _ := do(t, srv, http.MethodPost, "/api/v1/ask", `{"question":"all feeds"}`); status != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, status)
		}
	}
	status, body := do(t, srv, http.MethodPost, "/api/v1/ask", `{"question":"all feeds"}`)
	if status != http.StatusTooManyRequests || body["error"] == "" {
		t.Fatalf("expected 429 with error body, got %d %v", status, body)
	}
	if status, _ := do(t, srv, http.MethodGet, "/api/v1/health", ""); status != http.StatusOK {
		t.Errorf("limit should only cover /ask, got %d", status)
	}
}

func TestCORS(t *testing.T) {
	srv := testServerWith(t, false, Config{CORSOrigins: []string{"https://dash.example"}})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/health", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "https://dash.example")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Errorf("expected allowed origin header, got %q", got)
	}

	req.Header.Set("Origin", "https://evil.example")
	resp, err = srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected origin header %q", got)
	}
}
