package crawler

import (
	"context"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/internal/logger"
)

// Outcome is what one successful page attempt produces.
type Outcome struct {
	Analysis domain.AnalysisResult
	Links    []string
	Attempts int
	Failed   bool
}

// emptyOutcome is returned when every attempt failed.
func emptyOutcome(attempts int) Outcome {
	return Outcome{
		Analysis: domain.EmptyAnalysis(),
		Links:    []string{},
		Attempts: attempts,
		Failed:   true,
	}
}

// AttemptFunc performs one page-processing attempt.
type AttemptFunc func(ctx context.Context) (Outcome, error)

// Attempt runs op up to maxRetries times in sequence and returns the first
// success. Failures are logged and swallowed; when all attempts fail, or the
// context ends between attempts, the neutral empty outcome is returned.
// maxRetries <= 0 falls back to domain.DefaultMaxRetries, the same value
// CrawlOptions.WithDefaults fills in.
func Attempt(ctx context.Context, href string, maxRetries int, op AttemptFunc, log logger.Logger) Outcome {
	log = logger.Ensure(log)
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}

	tries := 0
	for tries < maxRetries {
		if err := ctx.Err(); err != nil {
			log.WarnObj("page attempts stopped", "attempt_meta", map[string]any{
				"url":      href,
				"attempts": tries,
				"error":    err.Error(),
			})
			return emptyOutcome(tries)
		}

		tries++
		log.DebugObj("page attempt", "attempt_meta", map[string]any{
			"url":     href,
			"attempt": tries,
			"max":     maxRetries,
		})

		out, err := op(ctx)
		if err == nil {
			out.Attempts = tries
			out.Analysis = out.Analysis.Normalize()
			if out.Links == nil {
				out.Links = []string{}
			}
			return out
		}

		log.ErrorObj("there was an error processing the page", "attempt_error", map[string]any{
			"url":     href,
			"attempt": tries,
			"max":     maxRetries,
			"error":   err.Error(),
		})
	}

	log.WarnObj("page attempts exhausted", "attempt_meta", map[string]any{
		"url":      href,
		"attempts": tries,
	})
	return emptyOutcome(tries)
}
