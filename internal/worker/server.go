package worker

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Raunaq22/Musicbrew-sub000/internal/repository"
	"github.com/Raunaq22/Musicbrew-sub000/internal/tasks"
)

// WorkerServer wraps the asynq server running the background task handlers.
type WorkerServer struct {
	server       *asynq.Server
	log          *logrus.Entry
	activityRepo repository.ActivityRepository
	retention    time.Duration
}

// NewWorkerServer creates a WorkerServer instance.
func NewWorkerServer(redisOpt asynq.RedisClientOpt, activityRepo repository.ActivityRepository, retention time.Duration, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &WorkerServer{
		server:       server,
		log:          logEntry,
		activityRepo: activityRepo,
		retention:    retention,
	}
}

// Start runs the worker server. It should be called in its own goroutine.
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux()

	activityHandler := NewActivityHandler(ws.activityRepo, ws.retention)
	mux.HandleFunc(tasks.TypeActivityRecord, activityHandler.ProcessRecord)
	mux.HandleFunc(tasks.TypeActivityPrune, activityHandler.ProcessPrune)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		}
		ws.log.Info("Worker server stopped.")
	}
}

// Shutdown gracefully stops the worker server.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
