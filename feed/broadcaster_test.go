package feed

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBroadcaster_DeliversOnlyToOwner(t *testing.T) {
	t.Parallel()
	b := NewBroadcaster(4, zap.NewNop())

	_, alice := b.Subscribe(1)
	_, bob := b.Subscribe(2)

	n := b.Publish(1, Event{ID: "10", Name: "operation", Data: []byte(`{"x":1}`)})
	assert.Equal(t, 1, n)

	select {
	case ev := <-alice:
		assert.Equal(t, "10", ev.ID)
	default:
		t.Fatal("alice did not receive her event")
	}
	select {
	case ev := <-bob:
		t.Fatalf("bob received someone else's event: %+v", ev)
	default:
	}
}

func TestBroadcaster_FullBufferDropsAndWarns(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.WarnLevel)
	b := NewBroadcaster(1, zap.New(core))

	_, ch := b.Subscribe(7)
	assert.Equal(t, 1, b.Publish(7, Event{ID: "1"}))
	assert.Equal(t, 0, b.Publish(7, Event{ID: "2"}))

	assert.Equal(t, "1", (<-ch).ID)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "2", logs.All()[0].ContextMap()["event_id"])
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	b := NewBroadcaster(0, zap.NewNop())

	id, ch := b.Subscribe(3)
	assert.Equal(t, []string{id}, b.ActiveClients())

	b.Unsubscribe(id)
	b.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Empty(t, b.ActiveClients())
	assert.Equal(t, 0, b.Publish(3, Event{ID: "x"}))
}

func TestBroadcaster_CloseEndsAllStreams(t *testing.T) {
	t.Parallel()
	b := NewBroadcaster(0, zap.NewNop())

	_, a := b.Subscribe(1)
	_, c := b.Subscribe(2)
	b.Close()

	for _, ch := range []<-chan Event{a, c} {
		_, open := <-ch
		assert.False(t, open)
	}
}

func TestBroadcaster_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	t.Parallel()
	b := NewBroadcaster(8, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		i := i
		id, ch := b.Subscribe(int64(i % 2))
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		go func() {
			defer wg.Done()
			b.Publish(int64(i%2), Event{ID: "e"})
			b.Unsubscribe(id)
		}()
	}
	wg.Wait()
	assert.Empty(t, b.ActiveClients())
}

func TestEvent_WriteTo(t *testing.T) {
	t.Parallel()

	ev, err := NewEvent("42", "operation", map[string]int{"x": 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = ev.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "id: 42\nevent: operation\ndata: {\"x\":1}\n\n", buf.String())

	buf.Reset()
	_, err = Event{Data: []byte("ping")}.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "data: ping\n\n", buf.String())
}
