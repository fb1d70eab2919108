package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

func TestJobEventRoutingKey(t *testing.T) {
	key := JobEventRoutingKey(interfaces.JobEvent{AccountID: "acct-1", EventType: interfaces.JobEventEnqueued})
	assert.Equal(t, "job.acct-1.enqueued", key)
}

func TestDecodeJobEvent(t *testing.T) {
	event, err := decodeJobEvent([]byte(`{"event_type":"requeued","job_id":"j-1","account_id":"acct-1","job_type":"full_cycle","status":"queued","occurred_at":"2026-01-02T03:04:05Z"}`))
	require.NoError(t, err)
	assert.Equal(t, interfaces.JobEventRequeued, event.EventType)
	assert.Equal(t, models.JobTypeFullCycle, event.JobType)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), event.OccurredAt)

	_, err = decodeJobEvent([]byte(`{not json`))
	assert.Error(t, err)

	_, err = decodeJobEvent([]byte(`{"event_type":"enqueued","job_id":"j-1"}`))
	assert.ErrorContains(t, err, "missing")
}

func TestLogPublisherWritesDebugEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewLogPublisher(zap.New(core))

	require.NoError(t, p.PublishJobEvent(context.Background(), interfaces.JobEvent{
		EventType: interfaces.JobEventCompleted, JobID: "j-1", AccountID: "acct-1", Status: models.JobStatusCompleted,
	}))
	require.NoError(t, p.PublishTemplateEvent(context.Background(), interfaces.TemplateEvent{
		EventType: interfaces.TemplateEventCurrentChanged, TemplateID: "t-1", VersionID: "v-2", AccountID: "acct-1",
	}))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "completed", entries[0].ContextMap()["status"])
	assert.Equal(t, "current_changed", entries[1].ContextMap()["event_type"])
}

func TestPublishersRequireConnection(t *testing.T) {
	_, err := NewRabbitMQJobEventPublisher(nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewJobEventConsumer(nil, nil, "", zap.NewNop())
	assert.Error(t, err)
}
