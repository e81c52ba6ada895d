// Package dispatch fans a push message out to the addressed recipients who
// are online right now. Fan-out is decoupled from the transaction that
// triggered it: it runs after commit, never blocks the caller, and its
// failures stay inside the pool.
package dispatch

import (
	"context"
	"time"

	"notifyhub/internal/common/logger"
	"notifyhub/internal/common/metrics"
	"notifyhub/internal/common/observability"
	"notifyhub/internal/models"
	"notifyhub/internal/push"
	"notifyhub/internal/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Destination tags understood by connected clients.
const (
	DestNotifications       = "/queue/notifications"
	DestUpdateNotifications = "/queue/updateNotifications"
)

// MessagePrefix marks live pushes carrying content. Applied only to
// non-empty messages, so a removal signal goes out with an empty payload.
const MessagePrefix = "New message: "

// Request is one fan-out: push Message tagged with Destination to every
// online session whose user is in UserIDs. Duplicates in UserIDs are
// harmless and order is irrelevant; an empty list results in no pushes.
type Request struct {
	UserIDs     []int64
	Destination string
	Message     string
}

// Dispatcher runs fan-outs on a shared bounded worker pool. A full queue
// rejects the request (logged and counted) rather than blocking the caller
// of a committed transaction.
type Dispatcher struct {
	registry   session.Registry
	channel    push.Channel
	logger     logger.Logger
	obs        *observability.Observability
	queue      chan Request
	runTimeout time.Duration
	done       chan struct{}
	workers    int
}

func New(registry session.Registry, channel push.Channel, log logger.Logger, obs *observability.Observability, workers, queueSize int, runTimeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	d := &Dispatcher{
		registry:   registry,
		channel:    channel,
		logger:     log.WithFields(map[string]interface{}{"component": "dispatcher"}),
		obs:        obs,
		queue:      make(chan Request, queueSize),
		runTimeout: runTimeout,
		done:       make(chan struct{}),
		workers:    workers,
	}

	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// Dispatch schedules a fan-out and returns immediately. Rejects when the
// queue is full; a rejected fan-out is dropped, never retried.
func (d *Dispatcher) Dispatch(req Request) {
	if len(req.UserIDs) == 0 {
		return
	}

	select {
	case d.queue <- req:
	default:
		metrics.DispatchRejected.Inc()
		d.logger.Warn("dispatch queue full, fan-out rejected", map[string]interface{}{
			"destination": req.Destination,
			"recipients":  len(req.UserIDs),
		})
	}
}

// Shutdown stops accepting work and drains pending fan-outs.
func (d *Dispatcher) Shutdown() {
	close(d.queue)
	for i := 0; i < d.workers; i++ {
		<-d.done
	}
}

func (d *Dispatcher) worker() {
	defer func() { d.done <- struct{}{} }()
	for req := range d.queue {
		d.run(req)
	}
}

func (d *Dispatcher) run(req Request) {
	dispatchID := uuid.New().String()
	log := d.logger.WithFields(map[string]interface{}{
		"dispatchId":  dispatchID,
		"destination": req.Destination,
	})

	ctx := context.Background()
	if d.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.runTimeout)
		defer cancel()
	}

	if d.obs != nil {
		var span trace.Span
		ctx, span = d.obs.StartSpan(ctx, "dispatch.run")
		defer span.End()
		d.obs.RecordDispatchRun(ctx, req.Destination)
	}

	start := time.Now()
	metrics.DispatchRuns.WithLabelValues(req.Destination).Inc()

	// Snapshot once per run; connection churn after this point is invisible.
	sessions, err := d.registry.ListOnline(ctx)
	if err != nil {
		log.Error("online session query failed", map[string]interface{}{"error": err})
		return
	}

	targets := make(map[int64]struct{}, len(req.UserIDs))
	for _, id := range req.UserIDs {
		targets[id] = struct{}{}
	}

	payload := req.Message
	if payload != "" {
		payload = MessagePrefix + payload
	}

	delivered, failed := 0, 0
	for _, s := range sessions {
		if _, ok := targets[s.UserID]; !ok {
			continue
		}
		// Per-connection delivery: every matched session gets its own push,
		// and one failure never stops the rest.
		if err := d.sendOne(ctx, s, req.Destination, payload); err != nil {
			failed++
			metrics.PushFailed.WithLabelValues(d.channel.Name()).Inc()
			log.Warn("push delivery failed", map[string]interface{}{
				"userId":  s.UserID,
				"session": s.ID,
				"error":   err,
			})
			continue
		}
		delivered++
		metrics.PushDelivered.WithLabelValues(d.channel.Name()).Inc()
	}

	elapsed := time.Since(start)
	metrics.DispatchDuration.WithLabelValues(req.Destination).Observe(elapsed.Seconds())
	if d.obs != nil {
		d.obs.RecordDispatchDuration(ctx, elapsed, req.Destination)
	}

	log.Info("fan-out complete", map[string]interface{}{
		"sessions":  len(sessions),
		"delivered": delivered,
		"failed":    failed,
	})
}

func (d *Dispatcher) sendOne(ctx context.Context, s models.Session, destination, payload string) error {
	return d.channel.SendToUser(ctx, s.Address, destination, payload)
}
