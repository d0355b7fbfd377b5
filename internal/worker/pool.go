package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cuentacorriente/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"
	QueueCaja  = "jobs:caja"

	JobEmail = "email"
	JobCaja  = "caja"

	// MaxJobAttempts is how many times a job runs before it goes to the DLQ.
	MaxJobAttempts = 3
)

// Queues is every queue the pool consumes, caja first: a pending cash-session
// registration matters more than a statement e-mail.
var Queues = []string{QueueCaja, QueueEmail}

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts,omitempty"`
}

// JobHandler processes one job payload. A returned error schedules a retry
// until MaxJobAttempts, after which the job is moved to the DLQ.
type JobHandler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueEmail pushes a statement e-mail job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

// EnqueueCobroCaja pushes the cash-register registration of a collected payment.
func (d *Dispatcher) EnqueueCobroCaja(ctx context.Context, payload CobroCajaPayload) error {
	return d.enqueue(ctx, QueueCaja, JobCaja, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes QueueEmail and QueueCaja and routes jobs by type.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]JobHandler
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{rdb: rdb, handlers: make(map[string]JobHandler)}
}

// Handle registers the handler for a job type.
func (p *Pool) Handle(jobType string, h JobHandler) {
	p.handlers[jobType] = h
}

// Start launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, Queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, p.rdb, queue, "unknown", quoted, "malformed job: "+err.Error(), 0)
		infra.JobsProcesados.WithLabelValues(queue, "dlq").Inc()
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		log.Error().Str("type", job.Type).Str("queue", queue).Msg("no handler registered for job type")
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", job.Attempts)
		infra.JobsProcesados.WithLabelValues(queue, "dlq").Inc()
		return
	}

	job.Attempts++
	err := h(ctx, job.Payload)
	if err == nil {
		infra.JobsProcesados.WithLabelValues(queue, "ok").Inc()
		return
	}

	if job.Attempts >= MaxJobAttempts {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload,
			fmt.Sprintf("max attempts (%d) exceeded: %s", MaxJobAttempts, err.Error()), job.Attempts)
		infra.JobsProcesados.WithLabelValues(queue, "dlq").Inc()
		return
	}

	log.Warn().Err(err).
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Msg("job failed, re-enqueued")
	infra.JobsProcesados.WithLabelValues(queue, "error").Inc()
	if pushErr := push(ctx, p.rdb, queue, job); pushErr != nil {
		log.Error().Err(pushErr).Str("queue", queue).Msg("failed to re-enqueue job")
	}
}
