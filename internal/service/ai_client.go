package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rentalsearch/internal/metrics"
)

// Reasoner is the language-reasoning capability: a prompt goes in, free text comes out.
// Implementations must be safe for concurrent use.
type Reasoner interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// Reasoning call purposes, used as metric labels
const (
	purposeFilters  = "extract_filters"
	purposeResidual = "residual_check"
	purposeScore    = "score_group"
	purposeIntent   = "classify_intent"
)

// defaultCallTimeout bounds any single reasoning call when the caller gives none
const defaultCallTimeout = 30 * time.Second

// callReasoner runs one reasoning call under its own deadline and records metrics.
// It never panics; a panicking implementation is reported as an error.
func callReasoner(
	ctx context.Context,
	r Reasoner,
	purpose string,
	prompt string,
	timeout time.Duration,
	logger *zap.Logger,
) (text string, err error) {
	if r == nil {
		return "", ErrReasonerDisabled
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reasoner panic: %v", rec)
		}

		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ReasonerRequestsTotal.WithLabelValues(purpose, status).Inc()
		metrics.ReasonerRequestDuration.WithLabelValues(purpose).Observe(time.Since(start).Seconds())

		if err != nil {
			logger.Warn("Reasoning call failed",
				zap.String("purpose", purpose),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
		}
	}()

	return r.Classify(callCtx, prompt)
}
