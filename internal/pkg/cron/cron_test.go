package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndList(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:        "search_reindex",
		Description: "rebuild the search index",
		Interval:    24 * time.Hour,
		Fn:          func(ctx context.Context) error { return nil },
	})

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, "search_reindex", items[0].Name)
	assert.Equal(t, StatusIdle, items[0].Status)
	assert.Nil(t, items[0].LastRunAt)
	require.NotNil(t, items[0].NextDate)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *items[0].NextDate, time.Minute)
}

func TestExecuteRecordsOutcome(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:     "cleanup_tasks",
		Interval: time.Hour,
		Fn:       func(ctx context.Context) error { return nil },
	})
	s.Register(Job{
		Name:     "search_reindex",
		Interval: time.Hour,
		Fn:       func(ctx context.Context) error { return errors.New("index unreachable") },
	})

	for _, js := range s.jobs {
		s.execute(context.Background(), js)
	}

	byName := map[string]ListItem{}
	for _, item := range s.List() {
		byName[item.Name] = item
	}

	assert.Equal(t, StatusOK, byName["cleanup_tasks"].Status)
	assert.NotNil(t, byName["cleanup_tasks"].LastRunAt)
	assert.Equal(t, StatusFailed, byName["search_reindex"].Status)
}

func TestStartStopsOnCancel(t *testing.T) {
	s := New()
	ran := make(chan struct{}, 1)
	s.Register(Job{
		Name:     "fast",
		Interval: 10 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
