package event

import (
	"bytes"
	"errors"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-session-engine/internal/domain"
)

type recorder struct {
	NopSink
	mu    sync.Mutex
	names []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
}

func (r *recorder) QuestionChanged(e QuestionChanged) error {
	r.add(e.Name())
	return nil
}

func (r *recorder) SessionCompleted(e SessionCompleted) error {
	r.add(e.Name())
	return nil
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func TestBusIsolatesFailingSubscribers(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(log.New(&buf, "", 0))

	rec := &recorder{}
	bus.Subscribe("failing", Funcs{OnQuestionChanged: func(QuestionChanged) error {
		return errors.New("boom")
	}})
	bus.Subscribe("panicking", Funcs{OnQuestionChanged: func(QuestionChanged) error {
		panic("kaboom")
	}})
	bus.Subscribe("recorder", rec)

	failures := bus.Publish(QuestionChanged{Index: 1})
	require.Len(t, failures, 2)

	var serr *domain.SubscriberError
	require.ErrorAs(t, failures[0], &serr)
	assert.Equal(t, "failing", serr.Subscriber)
	assert.Equal(t, "question_changed", serr.Event)

	assert.Equal(t, []string{"question_changed"}, rec.got())
	assert.Contains(t, buf.String(), "subscriber panicking failed on question_changed")
}

func TestBusImplementsSink(t *testing.T) {
	bus := NewBus(nil)
	rec := &recorder{}
	bus.Subscribe("rec", rec)
	bus.Subscribe("nil", nil)

	var s Sink = bus
	require.NoError(t, s.SessionCompleted(SessionCompleted{}))
	assert.Equal(t, []string{"session_completed"}, rec.got())
}

func TestAsyncPreservesOrderAndDrains(t *testing.T) {
	rec := &recorder{}
	a := NewAsync("rec", rec, 8, nil)

	require.NoError(t, a.QuestionChanged(QuestionChanged{}))
	require.NoError(t, a.SessionCompleted(SessionCompleted{}))
	a.Close()

	assert.Equal(t, []string{"question_changed", "session_completed"}, rec.got())

	// Closed sinks drop silently.
	require.NoError(t, a.QuestionChanged(QuestionChanged{}))
	a.Close()
}

func TestAsyncDoesNotBlockOnSlowSubscriber(t *testing.T) {
	release := make(chan struct{})
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := log.New(&lockedWriter{w: &buf, mu: &mu}, "", 0)

	a := NewAsync("slow", Funcs{OnQuestionChanged: func(QuestionChanged) error {
		<-release
		return nil
	}}, 1, logger)

	for i := 0; i < 5; i++ {
		require.NoError(t, a.QuestionChanged(QuestionChanged{Index: i}))
	}
	close(release)
	a.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "queue full")
}

func TestChannelDropsOldest(t *testing.T) {
	c := NewChannel(2)
	_ = c.QuestionChanged(QuestionChanged{Index: 0})
	_ = c.QuestionChanged(QuestionChanged{Index: 1})
	_ = c.QuestionChanged(QuestionChanged{Index: 2})
	c.Close()

	var got []int
	for e := range c.Events() {
		got = append(got, e.(QuestionChanged).Index)
	}
	assert.Equal(t, []int{1, 2}, got)

	// Pushing after close is ignored.
	assert.NoError(t, c.QuestionChanged(QuestionChanged{}))
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
