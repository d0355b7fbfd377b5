package worker

// Jobs that run out of attempts (or cannot be decoded or routed) land in a
// Redis list per source queue, dlq:{queue}, newest first. A failed caja job
// means a collected payment is missing from the cash session, so operators
// list them with `cuentasctl dlq listar` and push them back once the cause
// is fixed.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

// QueueStatus is the backlog of one job queue and its DLQ.
type QueueStatus struct {
	Queue   string `json:"queue"`
	Pending int64  `json:"pending"`
	Failed  int64  `json:"failed"`
}

// SendToDLQ pushes a failed job to the dead letter queue for manual inspection.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// QueuesStatus reports pending and failed jobs for every queue the pool
// consumes, in Queues order.
func QueuesStatus(ctx context.Context, rdb *redis.Client) ([]QueueStatus, error) {
	out := make([]QueueStatus, 0, len(Queues))
	for _, q := range Queues {
		pending, err := rdb.LLen(ctx, q).Result()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q, err)
		}
		failed, err := DLQLength(ctx, rdb, q)
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", DLQPrefix, q, err)
		}
		out = append(out, QueueStatus{Queue: q, Pending: pending, Failed: failed})
	}
	return out, nil
}

// ListDLQ returns up to limit entries of a queue's DLQ, newest first.
// Entries that no longer decode are returned with only Reason set.
func ListDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]DLQEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	raws, err := rdb.LRange(ctx, DLQPrefix+queue, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]DLQEntry, 0, len(raws))
	for _, raw := range raws {
		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			e = DLQEntry{OriginalQueue: queue, Reason: "entrada ilegible: " + err.Error()}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// RequeueDLQ moves up to n entries, oldest first, from a queue's DLQ back
// onto the queue with a fresh attempt count. Entries without a routable job
// type (malformed jobs) stay in the DLQ. Returns how many were re-enqueued.
func RequeueDLQ(ctx context.Context, rdb *redis.Client, queue string, n int) (int, error) {
	dlqKey := DLQPrefix + queue
	var moved int
	var kept [][]byte
	defer func() {
		for i := len(kept) - 1; i >= 0; i-- {
			if err := rdb.RPush(ctx, dlqKey, kept[i]).Err(); err != nil {
				log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to keep entry")
			}
		}
	}()

	for i := 0; i < n; i++ {
		raw, err := rdb.RPop(ctx, dlqKey).Bytes()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, err
		}

		var e DLQEntry
		if err := json.Unmarshal(raw, &e); err != nil || !routable(e.JobType) {
			kept = append(kept, raw)
			continue
		}
		if err := push(ctx, rdb, queue, Job{Type: e.JobType, Payload: e.Payload}); err != nil {
			kept = append(kept, raw)
			return moved, err
		}
		moved++
		log.Info().Str("queue", queue).Str("job_type", e.JobType).Msg("dlq: job re-enqueued")
	}
	return moved, nil
}

func routable(jobType string) bool {
	return jobType == JobEmail || jobType == JobCaja
}
