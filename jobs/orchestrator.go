package jobs

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReportRunner renders and delivers one report. Implemented by the reports
// package; declared here so the workers do not import it directly.
type ReportRunner interface {
	Run(ctx context.Context, payload ReportPayload) error
}

// Orchestrator runs three asynq servers, one per queue, so a long import can
// never starve recomputes and report rendering stays serialized.
type Orchestrator struct {
	importServer    *asynq.Server
	recomputeServer *asynq.Server
	reportServer    *asynq.Server
	handlers        *Handlers
	logger          *zap.Logger

	startOnce    sync.Once
	shutdownOnce sync.Once
}

func NewOrchestrator(redisOpt asynq.RedisClientOpt, handlers *Handlers, logger *zap.Logger) *Orchestrator {
	// Failed tasks back off exponentially, capped at ten minutes.
	retryDelay := func(n int, err error, task *asynq.Task) time.Duration {
		delay := time.Duration(math.Pow(2, float64(n))) * time.Second
		if delay > 10*time.Minute {
			delay = 10 * time.Minute
		}
		return delay
	}

	errorHandler := asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		logger.Error("task failed",
			zap.String("type", task.Type()),
			zap.Int("retried", retried),
			zap.Int("max_retry", maxRetry),
			zap.Error(err),
		)
		if retried >= maxRetry {
			handlers.OnRetriesExhausted(ctx, task, err)
		}
	})

	newServer := func(queue string, concurrency int) *asynq.Server {
		return asynq.NewServer(redisOpt, asynq.Config{
			Concurrency:    concurrency,
			Queues:         map[string]int{queue: 1},
			RetryDelayFunc: retryDelay,
			ErrorHandler:   errorHandler,
			Logger:         newZapAsynqLogger(logger),
		})
	}

	return &Orchestrator{
		importServer:    newServer(QueueImports, 2),
		recomputeServer: newServer(QueueRecompute, 8),
		reportServer:    newServer(QueueReports, 1),
		handlers:        handlers,
		logger:          logger,
	}
}

// Start launches the three servers. Safe to call once; subsequent calls are
// no-ops.
func (o *Orchestrator) Start() error {
	var startErr error
	o.startOnce.Do(func() {
		importMux := asynq.NewServeMux()
		importMux.HandleFunc(TypeImportBatch, o.handlers.HandleImportBatch)

		recomputeMux := asynq.NewServeMux()
		recomputeMux.HandleFunc(TypeRecompute, o.handlers.HandleRecompute)

		reportMux := asynq.NewServeMux()
		reportMux.HandleFunc(TypeReport, o.handlers.HandleReport)

		if err := o.importServer.Start(importMux); err != nil {
			startErr = err
			return
		}
		if err := o.recomputeServer.Start(recomputeMux); err != nil {
			o.importServer.Shutdown()
			startErr = err
			return
		}
		if err := o.reportServer.Start(reportMux); err != nil {
			o.importServer.Shutdown()
			o.recomputeServer.Shutdown()
			startErr = err
			return
		}
		o.logger.Info("job orchestrator started",
			zap.Int("import_concurrency", 2),
			zap.Int("recompute_concurrency", 8),
			zap.Int("report_concurrency", 1),
		)
	})
	return startErr
}

// Shutdown drains in-flight tasks and stops the servers. Idempotent.
func (o *Orchestrator) Shutdown() {
	o.shutdownOnce.Do(func() {
		o.importServer.Shutdown()
		o.recomputeServer.Shutdown()
		o.reportServer.Shutdown()
		o.logger.Info("job orchestrator stopped")
	})
}

// zapAsynqLogger adapts zap to asynq's logger interface.
type zapAsynqLogger struct {
	sugar *zap.SugaredLogger
}

func newZapAsynqLogger(logger *zap.Logger) *zapAsynqLogger {
	return &zapAsynqLogger{sugar: logger.Sugar()}
}

func (l *zapAsynqLogger) Debug(args ...interface{}) { l.sugar.Debug(args...) }
func (l *zapAsynqLogger) Info(args ...interface{})  { l.sugar.Info(args...) }
func (l *zapAsynqLogger) Warn(args ...interface{})  { l.sugar.Warn(args...) }
func (l *zapAsynqLogger) Error(args ...interface{}) { l.sugar.Error(args...) }
func (l *zapAsynqLogger) Fatal(args ...interface{}) { l.sugar.Fatal(args...) }
