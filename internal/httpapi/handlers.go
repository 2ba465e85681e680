package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cognicore/feedscope/pkg/feedscope"
	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
	"github.com/cognicore/feedscope/pkg/feedscope/config"
	"github.com/cognicore/feedscope/pkg/feedscope/filter"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
	"github.com/cognicore/feedscope/pkg/feedscope/store"
)

// MaxAnswersLimit caps ?limit= on the answers listing.
const MaxAnswersLimit = 100

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"feeds":   s.fs.Engine().Catalog().Len(),
		"history": s.fs.History() != nil,
	})
}

func (s *Server) samples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"questions": feedscope.SampleQuestions})
}

func (s *Server) allFeeds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fs.Engine().All())
}

func (s *Server) qualityRanking(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fs.Engine().QualityRanking())
}

func (s *Server) byTheater(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fs.Engine().ByTheater(chi.URLParam(r, "theater")))
}

func (s *Server) byCodec(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fs.Engine().ByCodec(chi.URLParam(r, "codec")))
}

func (s *Server) byModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fs.Engine().ByModel(chi.URLParam(r, "tag")))
}

func (s *Server) feedByID(w http.ResponseWriter, r *http.Request) {
	lookup := s.fs.Engine().ByID(chi.URLParam(r, "id"))
	if !lookup.Found {
		writeJSON(w, http.StatusNotFound, lookup)
		return
	}
	writeJSON(w, http.StatusOK, lookup)
}

func (s *Server) byResolution(w http.ResponseWriter, r *http.Request) {
	var b filter.ResolutionBounds
	var err error
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"min_width", &b.MinWidth},
		{"min_height", &b.MinHeight},
		{"max_width", &b.MaxWidth},
		{"max_height", &b.MaxHeight},
	} {
		if *p.dst, err = queryInt(q.Get(p.name), p.name); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.fs.Engine().ByResolution(b))
}

func (s *Server) byLatency(w http.ResponseWriter, r *http.Request) {
	var b filter.LatencyBounds
	var err error
	q := r.URL.Query()
	if b.Min, err = queryInt(q.Get("min"), "min"); err != nil {
		writeError(w, err)
		return
	}
	if b.Max, err = queryInt(q.Get("max"), "max"); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fs.Engine().ByLatency(b))
}

func (s *Server) byEncryption(w http.ResponseWriter, r *http.Request) {
	v, err := queryBool(r.URL.Query().Get("value"), true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fs.Engine().ByEncryption(v))
}

func (s *Server) byCivilianSafety(w http.ResponseWriter, r *http.Request) {
	v, err := queryBool(r.URL.Query().Get("value"), true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fs.Engine().ByCivilianSafety(v))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	crit, err := filter.ParseCriteria(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fs.Engine().Search(crit))
}

func (s *Server) theaterDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fs.Engine().TheaterDistribution())
}

func (s *Server) codecDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fs.Engine().CodecDistribution())
}

func (s *Server) resolutionDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fs.Engine().ResolutionDistribution())
}

func (s *Server) params(w http.ResponseWriter, r *http.Request) {
	if s.dataset == nil {
		writeError(w, fmt.Errorf("%w: %w", internalerr.ErrNotFound, config.ErrNoParams))
		return
	}
	p, err := s.dataset.Params(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type askResponse struct {
	feedscope.Answer
	HTML string `json:"html"`
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req feedscope.AskRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := getValidator().Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err))
		return
	}

	start := time.Now()
	ans, err := s.fs.Ask(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	recordAsk(string(ans.Outcome.Call.Kind), ans.Fallback, time.Since(start))
	writeJSON(w, http.StatusOK, askResponse{Answer: ans, HTML: s.renderMarkdown(ans.Text)})
}

func (s *Server) recentAnswers(w http.ResponseWriter, r *http.Request) {
	hist := s.fs.History()
	if hist == nil {
		writeError(w, fmt.Errorf("%w: answer history disabled", internalerr.ErrStoreUnavailable))
		return
	}
	limit := store.DefaultRecent
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer", internalerr.ErrInvalidInput))
			return
		}
		limit = n
	}
	if limit > MaxAnswersLimit {
		limit = MaxAnswersLimit
	}
	cards, err := hist.RecentAnswers(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"answers": cards, "count": len(cards)})
}

func (s *Server) answerByID(w http.ResponseWriter, r *http.Request) {
	hist := s.fs.History()
	if hist == nil {
		writeError(w, fmt.Errorf("%w: answer history disabled", internalerr.ErrStoreUnavailable))
		return
	}
	card, err := hist.GetAnswer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"answer": card, "title": card.Title()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", internalerr.ErrInvalidInput, err)
	}
	return nil
}

func queryInt(raw, name string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", internalerr.ErrInvalidInput, name)
	}
	return &n, nil
}

func queryBool(raw string, def bool) (bool, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, ok := catalog.ParseBool(raw)
	if !ok {
		return false, fmt.Errorf("%w: value must be a boolean", internalerr.ErrInvalidInput)
	}
	return v, nil
}
