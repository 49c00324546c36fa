package sse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hybridroot/internal/sse"
)

func TestSubscribePublish(t *testing.T) {
	ch, cancel := sse.Subscribe("run-1")
	defer cancel()

	sse.Publish("run-1", "hello")

	select {
	case msg := <-ch:
		require.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestPublishOtherRun(t *testing.T) {
	ch, cancel := sse.Subscribe("run-a")
	defer cancel()

	sse.Publish("run-b", "not for us")

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	ch, cancel := sse.Subscribe("run-2")
	cancel()

	sse.Publish("run-2", "after cancel")

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

// Publish must not block when a subscriber's buffer is full.
func TestPublishDoesNotBlock(t *testing.T) {
	_, cancel := sse.Subscribe("run-3")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			sse.Publish("run-3", "burst")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
