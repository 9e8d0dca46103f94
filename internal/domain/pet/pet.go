package pet

import (
	"time"

	"github.com/google/uuid"

	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// Status represents the lifecycle state of a pet profile.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Pet is the aggregate root for a registered patient. The scheduling engine
// only ever checks existence; everything else is registry bookkeeping.
type Pet struct {
	id        uuid.UUID
	ownerID   uuid.UUID
	name      string
	specie    string
	breed     string
	ageMonths int
	notes     string
	status    Status
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewPet creates a new active pet profile with validated fields.
func NewPet(ownerID uuid.UUID, name, specie, breed string, ageMonths int, notes string) (*Pet, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if name == "" {
		return nil, domain.NewValidationError("pet name is required")
	}
	if specie == "" {
		return nil, domain.NewValidationError("pet specie is required")
	}

	now := time.Now().UTC()
	return &Pet{
		id:        uuid.New(),
		ownerID:   ownerID,
		name:      name,
		specie:    specie,
		breed:     breed,
		ageMonths: ageMonths,
		notes:     notes,
		status:    StatusActive,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Pet from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	name, specie, breed string,
	ageMonths int,
	notes string,
	status Status,
	version int64,
	createdAt, updatedAt time.Time,
) *Pet {
	return &Pet{
		id:        id,
		ownerID:   ownerID,
		name:      name,
		specie:    specie,
		breed:     breed,
		ageMonths: ageMonths,
		notes:     notes,
		status:    status,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (p *Pet) ID() uuid.UUID        { return p.id }
func (p *Pet) OwnerID() uuid.UUID   { return p.ownerID }
func (p *Pet) Name() string         { return p.name }
func (p *Pet) Specie() string       { return p.specie }
func (p *Pet) Breed() string        { return p.breed }
func (p *Pet) AgeMonths() int       { return p.ageMonths }
func (p *Pet) Notes() string        { return p.notes }
func (p *Pet) Status() Status       { return p.status }
func (p *Pet) Version() int64       { return p.version }
func (p *Pet) CreatedAt() time.Time { return p.createdAt }
func (p *Pet) UpdatedAt() time.Time { return p.updatedAt }

// IsOwnedBy checks if the pet belongs to the given owner.
func (p *Pet) IsOwnedBy(ownerID uuid.UUID) bool {
	return p.ownerID == ownerID
}

// IsActive returns true if the pet profile is active.
func (p *Pet) IsActive() bool {
	return p.status == StatusActive
}

// Update applies partial updates to the pet profile. Empty values leave the
// existing field unchanged.
func (p *Pet) Update(name, specie, breed string, ageMonths int, notes string) {
	if name != "" {
		p.name = name
	}
	if specie != "" {
		p.specie = specie
	}
	if breed != "" {
		p.breed = breed
	}
	if ageMonths > 0 {
		p.ageMonths = ageMonths
	}
	if notes != "" {
		p.notes = notes
	}
	p.version++
	p.updatedAt = time.Now().UTC()
}

// Archive marks the pet profile as archived.
func (p *Pet) Archive() {
	p.status = StatusArchived
	p.version++
	p.updatedAt = time.Now().UTC()
}
