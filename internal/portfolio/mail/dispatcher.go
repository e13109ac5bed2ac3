package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher fans queued messages out to a fixed pool of delivery workers.
// Enqueue never blocks the caller beyond a full buffer; delivery failures
// are logged and dropped, never retried or surfaced.
type Dispatcher struct {
	Mailer      Mailer
	Logger      *slog.Logger
	Workers     int
	SendTimeout time.Duration

	queue  chan Message
	wg     sync.WaitGroup
	stopMu sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher with sane defaults: 2 workers, a
// 64-message buffer and a 30 second per-send timeout.
func NewDispatcher(mailer Mailer, logger *slog.Logger, workers, buffer int, sendTimeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 64
	}
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}

	return &Dispatcher{
		Mailer:      mailer,
		Logger:      logger,
		Workers:     workers,
		SendTimeout: sendTimeout,
		queue:       make(chan Message, buffer),
	}
}

// Start launches the delivery workers. Non-blocking; call Stop to shut down.
func (d *Dispatcher) Start() {
	for i := 0; i < d.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.Logger.Info("mail dispatcher started", "workers", d.Workers)
}

// Stop drains the queue and blocks until every in-flight send has finished.
func (d *Dispatcher) Stop() {
	d.stopMu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.stopMu.Unlock()

	d.wg.Wait()
	d.Logger.Info("mail dispatcher stopped")
}

// Enqueue queues a message for delivery. Returns false if the buffer is full
// or the dispatcher has stopped; the message is dropped either way.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.stopMu.Lock()
	defer d.stopMu.Unlock()

	if d.closed {
		d.Logger.Warn("mail dropped: dispatcher stopped", "to", msg.To)
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.Logger.Warn("mail dropped: queue full", "to", msg.To)
		return false
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.SendTimeout)
		if err := d.Mailer.Send(ctx, msg); err != nil {
			d.Logger.Error("mail delivery failed", "to", msg.To, "error", err)
		} else {
			d.Logger.Debug("mail delivered", "to", msg.To)
		}
		cancel()
	}
}
