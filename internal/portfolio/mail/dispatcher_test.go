package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherDrainsOnStop(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, discardLogger(), 2, 32, time.Second)
	d.Start()

	for i := 0; i < 10; i++ {
		require.True(t, d.Enqueue(Message{To: fmt.Sprintf("user%d@example.com", i)}))
	}

	d.Stop()
	require.Equal(t, 10, mailer.count())
}

func TestDispatcherDropsAfterStop(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, discardLogger(), 1, 8, time.Second)
	d.Start()
	d.Stop()

	require.False(t, d.Enqueue(Message{To: "late@example.com"}))
	require.Zero(t, mailer.count())
}

func TestDispatcherDropsWhenBufferFull(t *testing.T) {
	// No workers started, so nothing drains the buffer.
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, discardLogger(), 1, 2, time.Second)

	require.True(t, d.Enqueue(Message{To: "a@example.com"}))
	require.True(t, d.Enqueue(Message{To: "b@example.com"}))
	require.False(t, d.Enqueue(Message{To: "overflow@example.com"}))
}

func TestDispatcherSwallowsDeliveryFailures(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	d := NewDispatcher(mailer, discardLogger(), 1, 8, time.Second)
	d.Start()

	require.True(t, d.Enqueue(Message{To: "a@example.com"}))
	d.Stop()
	require.Zero(t, mailer.count())
}

func TestDispatcherStopIsIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingMailer{}, discardLogger(), 1, 8, time.Second)
	d.Start()
	d.Stop()
	d.Stop()
}

func TestDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(&recordingMailer{}, discardLogger(), 0, 0, 0)
	require.Equal(t, 2, d.Workers)
	require.Equal(t, 64, cap(d.queue))
	require.Equal(t, 30*time.Second, d.SendTimeout)
}
