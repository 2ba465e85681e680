package intent

import (
	"strings"

	"github.com/cognicore/feedscope/pkg/feedscope/filter"
)

// CallKind names the filter operation chosen for an intent.
type CallKind string

const (
	CallError          CallKind = "error"
	CallByTheater      CallKind = "filter_by_theater"
	CallByCodec        CallKind = "filter_by_codec"
	CallQualityRanking CallKind = "get_high_quality_feeds"
	CallAll            CallKind = "get_all_camera_feeds"
)

// Call is the single primary operation selected for an intent.
type Call struct {
	Kind CallKind          `json:"tool"`
	Args map[string]string `json:"args,omitempty"`
	Err  string            `json:"error,omitempty"`
}

// Resolve picks exactly one call. First match wins:
//
//  1. upstream error
//  2. theater hint
//  3. codec hint
//  4. quality hint equal to "high" or containing "best"
//  5. full listing
//
// Only one hint is ever acted on. A question naming both a theater and
// a codec is answered by theater alone, and resolution, latency and
// other_filters hints are never used here. Callers wanting a conjunction
// use filter.Engine.Search.
func Resolve(in Intent) Call {
	switch {
	case strings.EqualFold(strings.TrimSpace(in.Operation), OpError):
		msg := in.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return Call{Kind: CallError, Err: msg}
	case Present(in.Theater):
		return Call{Kind: CallByTheater, Args: map[string]string{"theater": strings.TrimSpace(in.Theater)}}
	case Present(in.Codec):
		return Call{Kind: CallByCodec, Args: map[string]string{"codec": strings.TrimSpace(in.Codec)}}
	case wantsQuality(in.Quality):
		return Call{Kind: CallQualityRanking}
	default:
		return Call{Kind: CallAll}
	}
}

func wantsQuality(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	return q == "high" || strings.Contains(q, "best")
}

// Engine is the subset of filter.Engine the resolver drives.
type Engine interface {
	All() filter.Result
	ByTheater(theater string) filter.Result
	ByCodec(codec string) filter.Result
	QualityRanking() filter.Result
}

// Outcome is the result of running a resolved call. Exactly one of
// Result and Error is set.
type Outcome struct {
	Call   Call           `json:"call"`
	Result *filter.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Resolver turns intents into filter results.
type Resolver struct {
	engine Engine
}

// NewResolver creates a resolver over engine.
func NewResolver(engine Engine) *Resolver {
	return &Resolver{engine: engine}
}

// Answer resolves and executes in one step.
func (r *Resolver) Answer(in Intent) Outcome {
	return r.Execute(Resolve(in))
}

// Execute runs call. Error calls never reach the engine.
func (r *Resolver) Execute(call Call) Outcome {
	var res filter.Result
	switch call.Kind {
	case CallError:
		return Outcome{Call: call, Error: call.Err}
	case CallByTheater:
		res = r.engine.ByTheater(call.Args["theater"])
	case CallByCodec:
		res = r.engine.ByCodec(call.Args["codec"])
	case CallQualityRanking:
		res = r.engine.QualityRanking()
	default:
		res = r.engine.All()
	}
	return Outcome{Call: call, Result: &res}
}
