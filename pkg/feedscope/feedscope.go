// Package feedscope answers natural-language questions about a camera
// feed catalog: interpret the question, resolve one filter call, run it
// and narrate the result.
package feedscope

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cognicore/feedscope/pkg/feedscope/cards"
	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
	"github.com/cognicore/feedscope/pkg/feedscope/filter"
	"github.com/cognicore/feedscope/pkg/feedscope/intent"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
	"github.com/cognicore/feedscope/pkg/feedscope/store"
)

// Interpreter reads the intent of a question, usually through a model.
type Interpreter interface {
	Interpret(ctx context.Context, question string) (intent.Intent, error)
}

// Narrator phrases a filter outcome as an answer.
type Narrator interface {
	Narrate(ctx context.Context, question string, in intent.Intent, out intent.Outcome) (string, error)
}

// Options configures a Feedscope instance. Only Catalog is required.
type Options struct {
	Catalog     *catalog.Catalog
	Interpreter Interpreter
	Narrator    Narrator
	// Keywords parses questions when there is no interpreter or it fails.
	// Nil uses intent.DefaultVocabulary.
	Keywords *intent.KeywordParser
	// DisableFallback turns interpreter failures into error intents
	// instead of keyword parsing.
	DisableFallback bool
	History         store.History
	Logger          *zerolog.Logger
}

// Feedscope is the question answering facade
type Feedscope struct {
	engine      *filter.Engine
	resolver    *intent.Resolver
	interpreter Interpreter
	narrator    Narrator
	keywords    *intent.KeywordParser
	fallback    bool
	history     store.History
	cards       *cards.Builder
	log         zerolog.Logger
}

// New creates a Feedscope instance with the given dependencies
func New(opts Options) (*Feedscope, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog required", internalerr.ErrInvalidConfig)
	}
	engine := filter.New(opts.Catalog)
	kw := opts.Keywords
	if kw == nil {
		kw = intent.NewKeywordParser(intent.DefaultVocabulary())
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "feedscope").Logger()
	}
	return &Feedscope{
		engine:      engine,
		resolver:    intent.NewResolver(engine),
		interpreter: opts.Interpreter,
		narrator:    opts.Narrator,
		keywords:    kw,
		fallback:    !opts.DisableFallback,
		history:     opts.History,
		cards:       cards.New(),
		log:         log,
	}, nil
}

// Engine returns the filter engine for direct queries.
func (f *Feedscope) Engine() *filter.Engine { return f.engine }

// History returns the configured answer history, or nil.
func (f *Feedscope) History() store.History { return f.history }

// Close closes the history store if one is configured.
func (f *Feedscope) Close() error {
	if f.history == nil {
		return nil
	}
	return f.history.Close()
}

// AskRequest is one question.
type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// Answer is the full record of an answered question.
type Answer struct {
	ID       string         `json:"id"`
	Question string         `json:"question"`
	Intent   intent.Intent  `json:"intent"`
	Outcome  intent.Outcome `json:"outcome"`
	Text     string         `json:"response"`
	Fallback bool           `json:"fallback,omitempty"`
	Card     cards.Card     `json:"-"`
}

// Ask interprets, resolves, executes and narrates question. Interpreter
// and narrator failures are folded into the answer; only an empty
// question is an error.
func (f *Feedscope) Ask(ctx context.Context, req AskRequest) (Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Answer{}, fmt.Errorf("%w: question required", internalerr.ErrInvalidInput)
	}
	start := time.Now()

	in, fallback := f.interpret(ctx, question)
	out := f.resolver.Answer(in)
	text := f.narrate(ctx, question, in, out)

	card := f.cards.Build(cards.Input{
		Question: question,
		Intent:   in,
		Outcome:  out,
		Answer:   text,
		Fallback: fallback,
	})
	if f.history != nil {
		if err := f.history.SaveAnswer(ctx, card); err != nil {
			f.log.Warn().Err(err).Str("answer_id", card.ID).Msg("save answer")
		}
	}

	count := 0
	if out.Result != nil {
		count = out.Result.Count
	}
	f.log.Info().
		Str("answer_id", card.ID).
		Str("operation", in.Operation).
		Str("call", string(out.Call.Kind)).
		Int("count", count).
		Bool("fallback", fallback).
		Dur("took", time.Since(start)).
		Msg("answered")

	return Answer{
		ID:       card.ID,
		Question: question,
		Intent:   in,
		Outcome:  out,
		Text:     text,
		Fallback: fallback,
		Card:     card,
	}, nil
}

// interpret reports whether the keyword parser produced the intent.
func (f *Feedscope) interpret(ctx context.Context, question string) (intent.Intent, bool) {
	if f.interpreter == nil {
		return f.keywords.Parse(question), true
	}
	in, err := f.interpreter.Interpret(ctx, question)
	if err == nil {
		return in, false
	}
	f.log.Warn().Err(err).Bool("fallback", f.fallback).Msg("interpret question")
	if f.fallback {
		return f.keywords.Parse(question), true
	}
	return intent.Failed(fmt.Errorf("%w: %v", internalerr.ErrUpstreamIntent, err)), false
}

func (f *Feedscope) narrate(ctx context.Context, question string, in intent.Intent, out intent.Outcome) string {
	if out.Error != "" {
		return "I encountered an error: " + out.Error
	}
	if f.narrator == nil {
		return Summarize(out)
	}
	text, err := f.narrator.Narrate(ctx, question, in, out)
	if err != nil {
		f.log.Warn().Err(err).Msg("narrate answer")
		return "I encountered an error generating the response: " + err.Error()
	}
	return text
}
