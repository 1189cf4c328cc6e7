package stubserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/consent-management/internal"
)

// DeliveryJob is one webhook notification to push to a fiduciary
// endpoint after a consent changes state.
type DeliveryJob struct {
	WebhookID   int64
	FiduciaryID int64
	URL         string
	EventType   string
	Payload     map[string]any
}

type deliveryWorker struct {
	id         int
	workerPool chan chan DeliveryJob
	jobChannel chan DeliveryJob
	logger     *slog.Logger
}

func newDeliveryWorker(id int, workerPool chan chan DeliveryJob, logger *slog.Logger) *deliveryWorker {
	return &deliveryWorker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan DeliveryJob),
		logger:     logger,
	}
}

func (w *deliveryWorker) start(ctx context.Context, wg *sync.WaitGroup, deliver func(DeliveryJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				w.logger.Debug("worker delivering webhook", "worker_id", w.id, "webhook_id", job.WebhookID)
				deliver(job)
			case <-ctx.Done():
				w.logger.Debug("delivery worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// Dispatcher fans webhook deliveries out over a fixed worker pool and
// records each attempt in the fiduciary event feed. Deliveries are
// best-effort: a failed POST is logged and recorded, never retried.
type Dispatcher struct {
	events          *sqlx.DB
	httpClient      *http.Client
	deliveryTimeout time.Duration
	logger          *slog.Logger

	jobQueue   chan DeliveryJob
	workerPool chan chan DeliveryJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewDispatcher(cfg internal.DispatchConfig, events *sqlx.DB, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	deliveryTimeout := cfg.DeliveryTimeout
	if deliveryTimeout <= 0 {
		deliveryTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		events:          events,
		httpClient:      &http.Client{Timeout: deliveryTimeout},
		deliveryTimeout: deliveryTimeout,
		logger:          logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan DeliveryJob, queueSize),
		workerPool: make(chan chan DeliveryJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	d.startWorkerPool()
	return d
}

func (d *Dispatcher) startWorkerPool() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := newDeliveryWorker(i, d.workerPool, d.logger)
			worker.start(d.ctx, &d.wg, d.deliver)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("webhook dispatcher started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				jobChannel <- job
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			return
		}
	}
}

// Enqueue queues a delivery. When the queue is full the job is dropped
// with a warning rather than blocking the request path.
func (d *Dispatcher) Enqueue(job DeliveryJob) {
	select {
	case d.jobQueue <- job:
	default:
		d.logger.Warn("delivery queue full, dropping webhook",
			"webhook_id", job.WebhookID, "event_type", job.EventType)
	}
}

func (d *Dispatcher) deliver(job DeliveryJob) {
	ctx, cancel := context.WithTimeout(d.ctx, d.deliveryTimeout)
	defer cancel()

	status := "delivered"
	if err := d.post(ctx, job); err != nil {
		status = "failed"
		d.logger.Error("webhook delivery failed",
			"webhook_id", job.WebhookID, "url", job.URL, "error", err)
	}

	d.recordEvent(job, status)
}

func (d *Dispatcher) post(ctx context.Context, job DeliveryJob) error {
	body, err := json.Marshal(map[string]any{
		"event_type": job.EventType,
		"payload":    job.Payload,
		"sent_at":    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (d *Dispatcher) recordEvent(job DeliveryJob, status string) {
	description := fmt.Sprintf("webhook %s: %s to %s", status, job.EventType, job.URL)

	_, err := d.events.Exec(
		d.events.Rebind("INSERT INTO fiduciary_events (fiduciary_id, event_type, description, occurred_at) VALUES (?, ?, ?, ?)"),
		job.FiduciaryID, "webhook."+status, description, time.Now().UTC(),
	)
	if err != nil {
		d.logger.Error("failed to record delivery event", "webhook_id", job.WebhookID, "error", err)
	}
}

// Shutdown stops the workers and waits for in-flight deliveries.
func (d *Dispatcher) Shutdown() {
	d.cancel()
	d.wg.Wait()
	d.logger.Info("webhook dispatcher stopped")
}
