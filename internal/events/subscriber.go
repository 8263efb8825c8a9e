package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// SyncHooks is what the core exposes to the attachment lifecycle stream.
type SyncHooks interface {
	HandleFinalized(ctx context.Context, evt AttachmentEvent) error
	HandleDeleted(ctx context.Context, evt AttachmentEvent) error
}

// RegisterSyncHooks subscribes the core's sync hooks to the attachment
// lifecycle events.
func RegisterSyncHooks(bus *RedisBus, hooks SyncHooks) {
	bus.Subscribe(EventTypeAttachmentFinalized, func(ctx context.Context, env Envelope) error {
		evt, err := decodeAttachmentEvent(env)
		if err != nil {
			return err
		}
		return hooks.HandleFinalized(ctx, evt)
	})
	bus.Subscribe(EventTypeAttachmentDeleted, func(ctx context.Context, env Envelope) error {
		evt, err := decodeAttachmentEvent(env)
		if err != nil {
			return err
		}
		return hooks.HandleDeleted(ctx, evt)
	})
}

func decodeAttachmentEvent(env Envelope) (AttachmentEvent, error) {
	var evt AttachmentEvent
	if err := json.Unmarshal(env.Payload, &evt); err != nil {
		return AttachmentEvent{}, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	if evt.AttachmentID <= 0 {
		return AttachmentEvent{}, fmt.Errorf("%s: missing attachment_id", env.EventType)
	}
	return evt, nil
}
