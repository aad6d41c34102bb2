package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/huangang/problempad/internal/config"
	"github.com/huangang/problempad/internal/report"
	"github.com/huangang/problempad/pkg/logger"
)

const (
	TaskTypeExport = "export:workbook"
)

const (
	ExportAppend  = "append"
	ExportRebuild = "rebuild"
)

// ExportTask asks for the workbook to be updated. Append tasks carry the new
// reports; rebuild tasks re-read the database.
type ExportTask struct {
	Kind    string          `json:"kind"` // append, rebuild
	Reports []report.Report `json:"reports,omitempty"`
}

// ExportProcessor handles one export task.
type ExportProcessor func(context.Context, *ExportTask) error

// TaskQueue defines the interface for export task processing
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *ExportTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// NewTaskQueue returns a Redis-backed queue when Redis is enabled and
// reachable, and a SyncQueue otherwise.
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if !cfg.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}

	queue, err := NewAsyncQueue(cfg)
	if err != nil {
		logger.Infof("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
	return queue
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds an export task to the async queue
func (q *AsyncQueue) Enqueue(task *ExportTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeExport, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("kind", task.Kind).Msg("[AsyncQueue] Task enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs each task in its own goroutine inside the server process.
type SyncQueue struct {
	processor ExportProcessor
	wg        sync.WaitGroup
}

// NewSyncQueue creates a new synchronous queue
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that handles tasks
func (q *SyncQueue) SetProcessor(processor ExportProcessor) {
	q.processor = processor
}

// Enqueue starts processing the task without blocking the request.
func (q *SyncQueue) Enqueue(task *ExportTask) error {
	if q.processor == nil {
		logger.Infof("[SyncQueue] Warning: no processor set, task will be dropped")
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Errorf("[SyncQueue] Task processing failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
