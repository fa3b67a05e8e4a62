package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/replybase/replybase/internal/core/events"
)

// Job is a single webhook delivery queued for a background worker.
type Job struct {
	EventID   string
	EventType string
	Payload   []byte
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing job", "worker_id", w.ID, "event_id", job.EventID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Notifier delivers workspace events to an external webhook through a
// bounded worker pool so publishers never block on slow endpoints.
type Notifier struct {
	webhookURL  string
	apiKey      string
	sendTimeout time.Duration
	httpClient  *http.Client
	logger      *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type Config struct {
	WebhookURL     string
	APIKey         string
	SendTimeout    time.Duration
	MaxWorkers     int
	JobQueueSize   int
	WorkerPoolSize int
}

func New(config Config, logger *slog.Logger) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	workerPoolSize := config.WorkerPoolSize
	if workerPoolSize <= 0 {
		workerPoolSize = maxWorkers
	}

	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	n := &Notifier{
		webhookURL:  config.WebhookURL,
		apiKey:      config.APIKey,
		sendTimeout: sendTimeout,
		httpClient:  &http.Client{Timeout: sendTimeout},
		logger:      logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, jobQueueSize),
		workerPool: make(chan chan Job, workerPoolSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	n.startWorkerPool()

	return n
}

func (n *Notifier) startWorkerPool() {
	n.once.Do(func() {

		for i := 0; i < n.maxWorkers; i++ {
			worker := NewWorker(i, n.workerPool, n.logger)
			worker.Start(n.ctx, &n.wg, n.deliver)
		}

		// Counted before the goroutine starts so a Shutdown racing with
		// startup always waits for the dispatcher.
		n.wg.Add(1)
		go n.dispatch()

		n.logger.Info("notifier worker pool started",
			"max_workers", n.maxWorkers,
			"queue_size", cap(n.jobQueue))
	})
}

func (n *Notifier) dispatch() {
	defer n.wg.Done()

	for {
		select {
		case job := <-n.jobQueue:

			select {
			case jobChannel := <-n.workerPool:

				select {
				case jobChannel <- job:

				case <-n.ctx.Done():
					n.logger.Info("dispatcher shutting down")
					return
				}
			case <-n.ctx.Done():
				n.logger.Info("dispatcher shutting down")
				return
			}
		case <-n.ctx.Done():
			n.logger.Info("dispatcher shutting down")
			return
		}
	}
}

func (n *Notifier) Shutdown() {
	n.logger.Info("shutting down notifier")
	n.cancel()
	n.wg.Wait()
	n.logger.Info("notifier shutdown complete")
}

// Subscribe registers the notifier on the event bus for the invite
// lifecycle events it forwards.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeInviteCreated, n.HandleEvent)
	bus.Subscribe(events.EventTypeInviteAccepted, n.HandleEvent)
	bus.Subscribe(events.EventTypeInviteRevoked, n.HandleEvent)
}

// HandleEvent enqueues a delivery job for the event. Returns an error
// when the queue is full so the bus can log the drop.
func (n *Notifier) HandleEvent(_ context.Context, event events.Event) error {
	if n.webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event_id":    event.EventID(),
		"event_type":  event.EventType(),
		"occurred_at": event.OccurredAt().UTC().Format(time.RFC3339),
		"data":        event,
	})
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	job := Job{
		EventID:   event.EventID(),
		EventType: event.EventType(),
		Payload:   payload,
	}

	select {
	case n.jobQueue <- job:
		n.logger.Debug("notification queued",
			"event_id", job.EventID,
			"event_type", job.EventType,
			"queue_length", len(n.jobQueue))
		return nil
	default:
		n.logger.Warn("notification queue full, dropping event",
			"event_id", job.EventID,
			"queue_capacity", cap(n.jobQueue))
		return fmt.Errorf("notification queue full")
	}
}

func (n *Notifier) deliver(job Job) {
	ctx, cancel := context.WithTimeout(n.ctx, n.sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(job.Payload))
	if err != nil {
		n.logger.Error("failed to build webhook request",
			"event_id", job.EventID,
			"error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			"event_id", job.EventID,
			"event_type", job.EventType,
			"error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("webhook endpoint rejected event",
			"event_id", job.EventID,
			"event_type", job.EventType,
			"status", resp.StatusCode)
		return
	}

	n.logger.Info("notification delivered",
		"event_id", job.EventID,
		"event_type", job.EventType)
}
