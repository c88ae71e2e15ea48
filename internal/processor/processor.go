// Package processor applies ignore and report patterns to loaded log text.
//
// Both operations are pure functions of (text, patterns, options). They never
// abort on a bad pattern: the failing pattern is skipped, recorded as a
// PatternError, and the remaining patterns still apply.
package processor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zorak1103/logsieve/internal/pattern"
)

// Options configures a processing call.
type Options struct {
	Engine pattern.Engine
	// MatchTimeout bounds one regexp2 match. Zero selects pattern.DefaultMatchTimeout.
	MatchTimeout time.Duration
}

type compileFunc func(text string) (pattern.Matcher, error)

func (o Options) compile(text string) (pattern.Matcher, error) {
	return pattern.CompileWithTimeout(text, o.Engine, o.MatchTimeout)
}

// PatternError records a pattern that could not be applied.
type PatternError struct {
	Index   int    // Position of the pattern in the list passed in
	Pattern string // Pattern text
	Err     error  // Usually a *pattern.InvalidPatternError
}

// Error implements the error interface for PatternError.
func (e PatternError) Error() string {
	return fmt.Sprintf("pattern #%d %q: %v", e.Index+1, e.Pattern, e.Err)
}

// Unwrap returns the underlying error.
func (e PatternError) Unwrap() error {
	return e.Err
}

func joinPatternErrors(errs []PatternError) error {
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i := range errs {
		joined[i] = errs[i]
	}
	return errors.Join(joined...)
}

// normalizeLineEndings turns CRLF into LF so that $ and .* behave the same
// for files written on any platform.
func normalizeLineEndings(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// CountLines returns the number of lines in text. A trailing newline does not
// start another line.
func CountLines(text string) int {
	return countLines(text)
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// Processor binds Options to a compile cache and a logger.
// It holds no per-call state and may be shared between goroutines.
type Processor struct {
	opts   Options
	cache  *pattern.Cache
	logger *zap.Logger
}

// New creates a Processor. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Engine == "" {
		opts.Engine = pattern.DefaultEngine
	}
	if opts.MatchTimeout <= 0 {
		opts.MatchTimeout = pattern.DefaultMatchTimeout
	}

	return &Processor{
		opts:   opts,
		cache:  pattern.NewCacheWithTimeout(opts.Engine, opts.MatchTimeout),
		logger: logger,
	}
}

// Options returns the options the processor was created with.
func (p *Processor) Options() Options {
	return p.opts
}

// RemoveIgnoredLines behaves like the package-level function but reuses compiled patterns.
func (p *Processor) RemoveIgnoredLines(text string, patterns pattern.List) IgnoreResult {
	res := removeIgnoredLines(text, patterns, p.cache.Compile)

	p.logger.Debug("ignore patterns applied",
		zap.Int("applied", res.Stats.PatternsApplied),
		zap.Int("disabled", res.Stats.PatternsDisabled),
		zap.Int("failed", res.Stats.PatternsFailed),
		zap.Int("lines_before", res.Stats.LinesBefore),
		zap.Int("lines_after", res.Stats.LinesAfter),
	)
	p.logErrors(res.Errors)

	return res
}

// BuildReport behaves like the package-level function but reuses compiled patterns.
func (p *Processor) BuildReport(text string, patterns pattern.List) ReportResult {
	res := buildReport(text, patterns, p.cache.Compile)

	p.logger.Debug("report built",
		zap.Int("patterns", len(patterns)),
		zap.Int("sections", len(res.Sections)),
	)
	p.logErrors(res.Errors)

	return res
}

func (p *Processor) logErrors(errs []PatternError) {
	for _, e := range errs {
		p.logger.Warn("pattern skipped",
			zap.Int("index", e.Index),
			zap.String("pattern", e.Pattern),
			zap.Error(e.Err),
		)
	}
}
