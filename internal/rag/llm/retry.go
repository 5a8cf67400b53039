package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"github.com/openai/openai-go"
	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger = logger_i.NewLogger("llm")

// RetryPolicy is a bounded exponential backoff with full jitter. Only
// transient failures are retried.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration

	// Sleep defaults to a context-aware timer; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	// Jitter returns a value in [0,1); defaults to math/rand.
	Jitter func() float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: config.BackendMaxAttempts,
		Base:        config.BackendRetryBase,
		Cap:         config.BackendRetryCap,
	}
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	ceiling := p.Base << attempt
	if ceiling <= 0 || ceiling > p.Cap {
		ceiling = p.Cap
	}
	jitter := p.Jitter
	if jitter == nil {
		jitter = rand.Float64
	}
	return time.Duration(jitter() * float64(ceiling))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type retrying struct {
	next   Provider
	policy RetryPolicy
}

// WithRetry wraps p so that every failure it finally returns is an
// ErrBackendUnavailable.
func WithRetry(p Provider, policy RetryPolicy) Provider {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Sleep == nil {
		policy.Sleep = sleepCtx
	}
	return &retrying{next: p, policy: policy}
}

func (r *retrying) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	log := logger.FromContext(ctx)

	var err error
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		var text string
		text, err = r.next.Generate(ctx, prompt, opts)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil || !IsTransient(err) || attempt == r.policy.MaxAttempts-1 {
			break
		}

		wait := r.policy.backoff(attempt)
		log.Warn("transient backend failure, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		if sleepErr := r.policy.Sleep(ctx, wait); sleepErr != nil {
			err = errors.Join(err, sleepErr)
			break
		}
	}

	if errors.Is(err, commonModels.ErrBackendUnavailable) {
		return "", err
	}
	return "", fmt.Errorf("%w: %w", commonModels.ErrBackendUnavailable, err)
}

// IsTransient reports whether a provider error is worth another attempt:
// throttling, server side failures and network timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return transientStatus(oaErr.StatusCode)
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return transientStatus(gErr.Code)
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) {
		return transientStatus(gErrPtr.Code)
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func transientStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}
