// @title           DocTutor API
// @version         1.0
// @description     Upload study documents, then ask questions or generate quizzes and flashcards grounded on them.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/doctutor/internal/bootstrap"
	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/data/redisStore"
	"github.com/akolanti/doctutor/internal/data/store"
	jobmodel "github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/internal/handlers"
	"github.com/akolanti/doctutor/internal/job"
	"github.com/akolanti/doctutor/internal/middleware"
	"github.com/akolanti/doctutor/internal/server"
	"github.com/akolanti/doctutor/internal/worker"
	"github.com/akolanti/doctutor/pkg/logger_i"
)

var (
	configPath        string
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	flag.StringVar(&configPath, "config", "", "path to a YAML settings file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides settings)")
	flag.Parse()

	settings, err := config.Load(configPath)
	logger_i.Init(settings.IsProd, settings.SlogLevel())
	var logger = logger_i.NewLogger("main")
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if listenAddr == "" {
		listenAddr = settings.ListenAddr
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	pipeline, err := bootstrap.Build(serviceContext, settings)
	if err != nil {
		logger.Error("Could not build the generation pipeline", "error", err)
		return
	}
	defer pipeline.Close()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	if jobStore := store.GetRedisJobStore(serviceContext, redisStore.Options{Addr: settings.RedisAddr, Password: settings.RedisPassword}); jobStore != nil {
		serviceConfig.JobStore = jobStore
	} else if config.FALLBACK_REDIS_TO_INTERNALSTORE {
		logger.Error("Redis job store is offline, using the in-memory store")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
	} else {
		logger.Error("Redis job store is offline. Shutting down.")
		return
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	middleware.Configure(settings, serviceContext.Done())
	handlers.InitJobHandler(service, pipeline.Storage)

	//init worker pool
	worker.InitServices(service, pipeline.Service)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
