package cache

import (
	"context"

	"github.com/roach88/stampbook/internal/tour"
)

// DeviceIdentifier returns the identifier remembered on this device.
func (c *Cache) DeviceIdentifier(ctx context.Context) string {
	v, ok := c.get(ctx, "get_device_id", tour.DeviceIdentifierKey)
	if !ok {
		return ""
	}
	return v
}

// SetDeviceIdentifier remembers id as this device's identifier.
func (c *Cache) SetDeviceIdentifier(ctx context.Context, id string) {
	if id == "" {
		return
	}
	c.set(ctx, "set_device_id", tour.DeviceIdentifierKey, id)
}

// PendingSurvey returns the survey payload waiting to be sent, if any.
func (c *Cache) PendingSurvey(ctx context.Context) ([]byte, bool) {
	v, ok := c.get(ctx, "get_pending_survey", tour.PendingSurveyKey)
	if !ok || v == "" {
		return nil, false
	}
	return []byte(v), true
}

// SetPendingSurvey stores payload for a later send, replacing any previous one.
func (c *Cache) SetPendingSurvey(ctx context.Context, payload []byte) {
	c.set(ctx, "set_pending_survey", tour.PendingSurveyKey, string(payload))
}

// ClearPendingSurvey drops the pending payload.
func (c *Cache) ClearPendingSurvey(ctx context.Context) {
	c.remove(ctx, "clear_pending_survey", tour.PendingSurveyKey)
}
