package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memSink struct {
	name   string
	err    error
	events []Event
}

func (s *memSink) Name() string { return s.name }

func (s *memSink) Write(_ context.Context, e Event) error {
	s.events = append(s.events, e)
	return s.err
}

func TestBus_FailingSinkDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	broken := &memSink{name: "broken", err: errors.New("broker down")}
	ok := &memSink{name: "ok"}
	bus := NewBus(zap.New(core), broken, ok)

	bus.Publish(context.Background(), Event{Type: TypeWithdrawalRequested, AccountID: "1001"})

	require.Len(t, ok.events, 1)
	assert.Equal(t, TypeWithdrawalRequested, ok.events[0].Type)
	assert.False(t, ok.events[0].Timestamp.IsZero())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "event publish failed", entry.Message)
	assert.Equal(t, "broken", entry.ContextMap()["sink"])
}

func TestBus_KeepsTimestamp(t *testing.T) {
	sink := &memSink{name: "mem"}
	ts := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	NewBus(zap.NewNop(), sink).Publish(context.Background(), Event{Type: TypeReferralVerified, Timestamp: ts})
	require.Len(t, sink.events, 1)
	assert.Equal(t, ts, sink.events[0].Timestamp)
}
