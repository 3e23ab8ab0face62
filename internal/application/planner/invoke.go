package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platewise/v2/internal/ports/outbound"
	"go.uber.org/zap"
)

// invoke submits the prompt to the model within the configured time
// budget. When the primary configuration fails outright (service error or
// timeout, not a later validation failure) and a fallback model is
// configured, that cheaper configuration is attempted once. The returned
// model name is whichever configuration produced the content.
func (s *Service) invoke(ctx context.Context, prompt string) (string, string, error) {
	params := outbound.GenerationParams{
		Model:       s.config.Model,
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
		Stream:      s.config.Stream,
	}

	content, primaryErr := s.race(ctx, prompt, params)
	if primaryErr == nil {
		return content, params.Model, nil
	}
	if s.config.FallbackModel == "" || s.config.FallbackModel == s.config.Model || ctx.Err() != nil {
		return "", params.Model, primaryErr
	}

	s.logger.Warn("primary model failed, trying fallback model",
		zap.String("primary", s.config.Model),
		zap.String("fallback", s.config.FallbackModel),
		zap.Error(primaryErr))

	params.Model = s.config.FallbackModel
	content, secondaryErr := s.race(ctx, prompt, params)
	if secondaryErr == nil {
		return content, params.Model, nil
	}
	return "", params.Model, errors.Join(primaryErr, secondaryErr)
}

type invokeResult struct {
	res *outbound.TextResult
	err error
}

// race runs one model invocation against the time budget. Whichever
// resolves first wins; the channel is buffered so a response arriving
// after the deadline is discarded, never merged.
func (s *Service) race(ctx context.Context, prompt string, params outbound.GenerationParams) (string, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan invokeResult, 1)
	started := time.Now()
	go func() {
		res, err := s.textGen.GenerateText(callCtx, prompt, params)
		ch <- invokeResult{res: res, err: err}
	}()

	timer := time.NewTimer(s.config.Timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		s.metrics.ObserveInvocation(params.Model, time.Since(started), r.err == nil)
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) || errors.Is(r.err, context.Canceled) {
				return "", fmt.Errorf("model %q: %w", params.Model, ErrTimeout)
			}
			return "", fmt.Errorf("model %q: %w: %v", params.Model, ErrServiceUnavailable, r.err)
		}
		if r.res == nil || strings.TrimSpace(r.res.Content) == "" {
			return "", fmt.Errorf("model %q returned empty content: %w", params.Model, ErrServiceUnavailable)
		}
		return r.res.Content, nil
	case <-timer.C:
		s.metrics.ObserveInvocation(params.Model, time.Since(started), false)
		return "", fmt.Errorf("model %q: no response within %s: %w", params.Model, s.config.Timeout, ErrTimeout)
	case <-ctx.Done():
		s.metrics.ObserveInvocation(params.Model, time.Since(started), false)
		return "", fmt.Errorf("model %q: caller abandoned the request: %w", params.Model, ErrTimeout)
	}
}
