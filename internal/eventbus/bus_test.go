package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reviewsvc/internal/model"
)

func drain(t *testing.T, ch <-chan model.Event, timeout time.Duration) []model.Event {
	t.Helper()
	var got []model.Event
	deadline := time.After(timeout)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, e)
		case <-deadline:
			t.Fatal("timed out draining event channel")
		}
	}
}

func TestBus_PublishOrderAndTerminal(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()

	b.Publish(model.Event{Type: model.EventReviewStarted})
	b.Publish(model.Event{Type: model.EventCheckStarted})
	b.Publish(model.Event{Type: model.EventReviewCompleted})

	events := drain(t, sub, time.Second)
	require.Len(t, events, 3)
	assert.Equal(t, model.EventReviewStarted, events[0].Type)
	assert.Equal(t, model.EventCheckStarted, events[1].Type)
	assert.Equal(t, model.EventReviewCompleted, events[2].Type)
}

func TestBus_LateSubscriberGetsOnlyTerminal(t *testing.T) {
	b := New(4)
	b.Publish(model.Event{Type: model.EventReviewStarted})
	b.Publish(model.Event{Type: model.EventReviewCompleted})

	sub := b.Subscribe()
	events := drain(t, sub, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventReviewCompleted, events[0].Type)
}

func TestBus_SlowSubscriberDropsButGetsTerminal(t *testing.T) {
	b := New(1)
	sub := b.Subscribe()

	// Publish more events than the ring can hold before the subscriber reads.
	b.Publish(model.Event{Type: model.EventCheckStarted})
	b.Publish(model.Event{Type: model.EventCheckCompleted})
	b.Publish(model.Event{Type: model.EventReviewCompleted})

	events := drain(t, sub, time.Second)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, model.EventReviewCompleted, last.Type, "terminal event must always be the last delivered")
}

func TestBus_TwoSubscribersEachGetOneTerminal(t *testing.T) {
	b := New(4)
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.Publish(model.Event{Type: model.EventGradeStarted})
	b.Publish(model.Event{Type: model.EventGradeCompleted})

	e1 := drain(t, sub1, time.Second)
	e2 := drain(t, sub2, time.Second)

	require.Len(t, e1, 2)
	require.Len(t, e2, 2)
	assert.Equal(t, model.EventGradeCompleted, e1[len(e1)-1].Type)
	assert.Equal(t, model.EventGradeCompleted, e2[len(e2)-1].Type)
}
