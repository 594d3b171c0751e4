// Package advisor turns prompts into short farming advice using a generative
// text model, falling back to canned tips whenever the model is unavailable.
package advisor

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/agritech/internal/breaker"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Outcome labels how a piece of advice was produced.
type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeFallback  Outcome = "fallback"
	OutcomeOpen      Outcome = "breaker_open"
	OutcomeDisabled  Outcome = "disabled"
)

// Observer is notified of every advice request. Used for metrics.
type Observer func(Outcome)

var errEmpty = errors.New("empty response")

// Advisor wraps a Generator with a timeout, a circuit breaker and fallbacks.
type Advisor struct {
	gen     Generator
	breaker *breaker.Breaker
	timeout time.Duration
	log     *zap.Logger
	observe Observer
}

// Options configures an Advisor.
type Options struct {
	Timeout  time.Duration
	Breaker  *breaker.Breaker
	Logger   *zap.Logger
	Observer Observer
}

// New creates an Advisor. gen may be nil, in which case every call returns
// its fallback.
func New(gen Generator, opts Options) *Advisor {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Breaker == nil {
		opts.Breaker = breaker.New("advisor", breaker.Config{}, opts.Logger)
	}
	return &Advisor{
		gen:     gen,
		breaker: opts.Breaker,
		timeout: opts.Timeout,
		log:     opts.Logger,
		observe: opts.Observer,
	}
}

// Enabled reports whether a generator is configured.
func (a *Advisor) Enabled() bool {
	return a.gen != nil
}

// BreakerState reports the position of the advisor's circuit breaker.
func (a *Advisor) BreakerState() breaker.State {
	return a.breaker.State()
}

// Advise returns formatted model output for prompt, or fallback if the model
// is disabled, failing, or returns nothing.
func (a *Advisor) Advise(ctx context.Context, prompt, fallback string) string {
	text, outcome := a.advise(ctx, prompt)
	if a.observe != nil {
		a.observe(outcome)
	}
	if outcome != OutcomeGenerated {
		return fallback
	}
	return text
}

func (a *Advisor) advise(ctx context.Context, prompt string) (string, Outcome) {
	if a.gen == nil {
		return "", OutcomeDisabled
	}

	var text string
	err := a.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		out, err := a.gen.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) == "" {
			return errEmpty
		}
		text = out
		return nil
	})
	switch {
	case errors.Is(err, breaker.ErrOpen):
		return "", OutcomeOpen
	case err != nil:
		a.log.Warn("advice generation failed", zap.Error(err))
		return "", OutcomeFallback
	}
	return FormatBullets(text), OutcomeGenerated
}

var (
	boldRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	bulletRe    = regexp.MustCompile(`(?m)^\s*\*\s*`)
	blankLineRe = regexp.MustCompile(`\n{2,}`)
)

// FormatBullets converts markdown bullets from the model into plain text:
// bold markers are removed, "*" list markers become "• ", and blank lines
// are collapsed.
func FormatBullets(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = bulletRe.ReplaceAllString(text, "• ")
	text = blankLineRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
