package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHooks struct {
	finalized []AttachmentEvent
	deleted   []AttachmentEvent
}

func (h *recordingHooks) HandleFinalized(ctx context.Context, evt AttachmentEvent) error {
	h.finalized = append(h.finalized, evt)
	return nil
}

func (h *recordingHooks) HandleDeleted(ctx context.Context, evt AttachmentEvent) error {
	h.deleted = append(h.deleted, evt)
	return nil
}

func envelopeFor(t *testing.T, eventType string, evt AttachmentEvent) Envelope {
	t.Helper()
	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	return Envelope{EventType: eventType, Payload: raw}
}

func TestRegisterSyncHooksDispatch(t *testing.T) {
	bus := NewRedisBus(nil, "test-events", nil)
	hooks := &recordingHooks{}
	RegisterSyncHooks(bus, hooks)

	bus.dispatch(envelopeFor(t, EventTypeAttachmentFinalized, AttachmentEvent{
		AttachmentID: 42,
		SourcePath:   "2026/08/photo.jpg",
		MimeType:     "image/jpeg",
	}))
	bus.dispatch(envelopeFor(t, EventTypeAttachmentDeleted, AttachmentEvent{AttachmentID: 42}))

	require.Len(t, hooks.finalized, 1)
	assert.Equal(t, int64(42), hooks.finalized[0].AttachmentID)
	assert.Equal(t, "2026/08/photo.jpg", hooks.finalized[0].SourcePath)
	require.Len(t, hooks.deleted, 1)
}

func TestDispatchUnknownEventTypeIsIgnored(t *testing.T) {
	bus := NewRedisBus(nil, "test-events", nil)
	hooks := &recordingHooks{}
	RegisterSyncHooks(bus, hooks)

	bus.dispatch(envelopeFor(t, "attachment.viewed", AttachmentEvent{AttachmentID: 1}))

	assert.Empty(t, hooks.finalized)
	assert.Empty(t, hooks.deleted)
}

func TestDecodeAttachmentEvent(t *testing.T) {
	env := envelopeFor(t, EventTypeAttachmentFinalized, AttachmentEvent{AttachmentID: 7, SourcePath: "a.jpg"})
	evt, err := decodeAttachmentEvent(env)
	require.NoError(t, err)
	assert.Equal(t, int64(7), evt.AttachmentID)

	_, err = decodeAttachmentEvent(Envelope{EventType: EventTypeAttachmentFinalized, Payload: []byte(`{"attachment_id":0}`)})
	assert.Error(t, err)

	_, err = decodeAttachmentEvent(Envelope{EventType: EventTypeAttachmentFinalized, Payload: []byte(`not json`)})
	assert.Error(t, err)
}
