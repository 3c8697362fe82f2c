package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/roach88/stampbook/internal/tour"
)

// DeviceStore is the slice of the local cache Device needs.
type DeviceStore interface {
	DeviceIdentifier(ctx context.Context) string
	SetDeviceIdentifier(ctx context.Context, id string)
}

// IDGenerator mints new device identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator mints time-sortable UUIDv7 identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Device returns the identifier remembered on this device. With
// provisioning enabled, a device without one is issued a fresh identifier
// that is persisted for later visits.
type Device struct {
	store     DeviceStore
	gen       IDGenerator
	provision bool
}

// NewDevice creates a device provider. gen may be nil when provision is false;
// when provision is true and gen is nil, UUIDv7Generator is used.
func NewDevice(store DeviceStore, gen IDGenerator, provision bool) *Device {
	if provision && gen == nil {
		gen = UUIDv7Generator{}
	}
	return &Device{store: store, gen: gen, provision: provision}
}

// Identifier implements Provider.
//
// The fallback markers are never handed out as real identifiers. If the
// freshly provisioned identifier cannot be persisted it is still returned;
// the next visit simply provisions again.
func (d *Device) Identifier(ctx context.Context) (string, error) {
	if d.store == nil {
		return "", nil
	}
	if id := d.store.DeviceIdentifier(ctx); id != "" && !tour.IsAnonymous(id) {
		return id, nil
	}
	if !d.provision {
		return "", nil
	}
	id := d.gen.Generate()
	d.store.SetDeviceIdentifier(ctx, id)
	return id, nil
}
