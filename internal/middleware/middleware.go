package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/handlers"
	"github.com/akolanti/doctutor/internal/metrics"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

type guard struct {
	authToken    string
	noAuthBypass bool
	limiter      *IPRateLimiter
}

var (
	current = guard{
		limiter: NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND),
	}
	configureOnce sync.Once
)

// Configure installs the auth settings and starts evicting idle rate limit
// buckets until stop is closed. Only the first call has any effect.
func Configure(settings config.Settings, stop <-chan struct{}) {
	configureOnce.Do(func() {
		current.authToken = settings.AuthToken
		current.noAuthBypass = settings.NoAuthBypass
		go current.limiter.sweepEvery(config.RateLimitSweepInterval, config.RateLimitIdleTTL, stop)
	})
}

var ChatHandler = Wrap(handlers.ChatHandler)
var QuizHandler = Wrap(handlers.QuizHandler)
var FlashcardsHandler = Wrap(handlers.FlashcardsHandler)
var UploadHandler = Wrap(handlers.UploadHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var ModelsHandler = Wrap(handlers.ModelsHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		defer func() {
			metrics.HttpRequestsTotal.WithLabelValues(metrics.RouteLabel(r), strconv.Itoa(rec.Status)).Inc()
		}()

		re := processRequest(requestResponseStruct{req: r, writer: rec})
		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Info("New request received", "path", re.req.URL.Path)

	for _, step := range []func(requestResponseStruct) requestResponseStruct{injectTrace, rateLimiter, authenticate} {
		re = step(re)
		if re.badRequest.isBadRequest {
			return re
		}
	}
	return re
}
