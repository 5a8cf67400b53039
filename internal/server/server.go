package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/doctutor/internal/adapter/utils"
	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/handlers"
	"github.com/akolanti/doctutor/internal/middleware"
	"github.com/akolanti/doctutor/pkg/logger_i"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

var routesOnce sync.Once

// Routes registers the API on the shared router.
func Routes() http.Handler {
	r := utils.GetRouter()
	routesOnce.Do(func() {
		r.Router.Get("/", handlers.GetHandler)
		r.Router.Post("/upload", middleware.UploadHandler)
		r.Router.Post("/chat", middleware.ChatHandler)
		r.Router.Post("/quiz", middleware.QuizHandler)
		r.Router.Post("/flashcards", middleware.FlashcardsHandler)
		r.Router.Get("/status/{id}", middleware.GetStatusHandler)
		r.Router.Get("/models", middleware.ModelsHandler)
	})
	return r.Router
}

func CreateServer(listenAddr string) {
	_logger = logger_i.NewLogger("Server")

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      Routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err, "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully", "error", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully is shutting down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
