package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/unclebandit/hoperise-backend/internal/model"
)

func fastQueue() *InMemoryQueue {
	q := NewInMemoryQueue(nil)
	q.backoff = time.Millisecond
	return q
}

func TestPublishWithoutSubscribers(t *testing.T) {
	q := fastQueue()
	if err := q.Publish(TopicEscrowEvents, "x"); err == nil {
		t.Fatal("expected an error with no subscribers")
	}
}

func TestPublishRetriesUntilSuccess(t *testing.T) {
	q := fastQueue()
	var calls int32
	done := make(chan struct{})

	_ = q.Subscribe("t", func(payload any) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})
	if err := q.Publish("t", "payload"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never succeeded")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestPublishGivesUpAfterMaxRetries(t *testing.T) {
	q := fastQueue()
	var calls int32
	_ = q.Subscribe("t", func(payload any) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	})
	_ = q.Publish("t", "payload")

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&calls) < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Fatalf("expected 1 attempt plus 3 retries, got %d", got)
	}
}

func TestDecodeEvent(t *testing.T) {
	evt := model.EscrowEvent{
		ID:         uuid.New(),
		Type:       model.EventCampaignFunded,
		CampaignID: 9,
		Actor:      "alice",
		Amount:     42,
		OccurredAt: time.Unix(1_700_000_000, 0).UTC(),
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for name, payload := range map[string]any{"value": evt, "pointer": &evt, "json": raw} {
		got, err := DecodeEvent(payload)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.ID != evt.ID || got.CampaignID != 9 || got.Amount != 42 || got.Type != evt.Type {
			t.Fatalf("%s: decoded %+v", name, got)
		}
	}

	var nilEvt *model.EscrowEvent
	for name, payload := range map[string]any{"nil pointer": nilEvt, "bad json": []byte("{"), "string": "nope"} {
		if _, err := DecodeEvent(payload); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestStartActivitySubscriber(t *testing.T) {
	q := fastQueue()
	jobs := make(chan EventJob, 1)
	if err := StartActivitySubscriber(context.Background(), q, jobs, nil); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Malformed payloads are dropped without reaching the consumer.
	_ = q.Publish(TopicEscrowEvents, 12)

	want := model.EscrowEvent{ID: uuid.New(), Type: model.EventCampaignClosed, CampaignID: 3}
	_ = q.Publish(TopicEscrowEvents, want)

	select {
	case job := <-jobs:
		if job.Event.ID != want.ID {
			t.Fatalf("expected event %s, got %s", want.ID, job.Event.ID)
		}
		job.Done(nil)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not forwarded")
	}
}

func TestStartActivitySubscriber_RetriesFailedJob(t *testing.T) {
	q := fastQueue()
	jobs := make(chan EventJob)
	if err := StartActivitySubscriber(context.Background(), q, jobs, nil); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := model.EscrowEvent{ID: uuid.New(), Type: model.EventCampaignFunded, CampaignID: 5}
	_ = q.Publish(TopicEscrowEvents, want)

	for i, outcome := range []error{errors.New("feed down"), nil} {
		select {
		case job := <-jobs:
			if job.Event.ID != want.ID {
				t.Fatalf("attempt %d: expected event %s, got %s", i, want.ID, job.Event.ID)
			}
			job.Done(outcome)
		case <-time.After(2 * time.Second):
			t.Fatalf("attempt %d was not delivered", i)
		}
	}

	select {
	case job := <-jobs:
		t.Fatalf("unexpected extra delivery of %s", job.Event.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

type captureQueue struct {
	handler func(payload any) error
}

func (c *captureQueue) Publish(topic string, payload any) error { return c.handler(payload) }

func (c *captureQueue) Subscribe(topic string, handler func(payload any) error) error {
	c.handler = handler
	return nil
}

func TestStartActivitySubscriber_StopsOnCancel(t *testing.T) {
	q := &captureQueue{}
	ctx, cancel := context.WithCancel(context.Background())
	if err := StartActivitySubscriber(ctx, q, make(chan EventJob), nil); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- q.Publish(TopicEscrowEvents, model.EscrowEvent{ID: uuid.New()})
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler blocked after cancel")
	}
}
