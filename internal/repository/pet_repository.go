package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetdesk/service-reservation/internal/domain/pet"
	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// PetModel is the GORM model for the pets table.
type PetModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Specie    string    `gorm:"type:varchar(50);not null"`
	Breed     string    `gorm:"type:varchar(100)"`
	AgeMonths int       `gorm:"type:int"`
	Notes     string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for the GORM model.
func (PetModel) TableName() string {
	return "pets"
}

// GormPetRepository is the GORM-based implementation of pet.Repository.
type GormPetRepository struct {
	db *gorm.DB
}

// NewGormPetRepository creates a new GormPetRepository.
func NewGormPetRepository(db *gorm.DB) *GormPetRepository {
	return &GormPetRepository{db: db}
}

// FindByID retrieves a pet by its unique identifier.
func (r *GormPetRepository) FindByID(ctx context.Context, id uuid.UUID) (*pet.Pet, error) {
	var model PetModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Pet", id.String())
		}
		return nil, fmt.Errorf("failed to find pet by ID: %w", err)
	}
	return toDomainPet(&model), nil
}

// FindByOwnerID retrieves all pets for a specific owner.
func (r *GormPetRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*pet.Pet, error) {
	var models []PetModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find pets by owner: %w", err)
	}

	pets := make([]*pet.Pet, len(models))
	for i, m := range models {
		pets[i] = toDomainPet(&m)
	}
	return pets, nil
}

// Save persists a new pet profile.
func (r *GormPetRepository) Save(ctx context.Context, p *pet.Pet) error {
	model := toPetModel(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save pet: %w", err)
	}
	return nil
}

// Update persists changes to an existing pet profile with optimistic locking.
func (r *GormPetRepository) Update(ctx context.Context, p *pet.Pet) error {
	model := toPetModel(p)

	expectedVersion := p.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&PetModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"specie":     model.Specie,
			"breed":      model.Breed,
			"age_months": model.AgeMonths,
			"notes":      model.Notes,
			"status":     model.Status,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update pet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("pet profile was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toPetModel(p *pet.Pet) *PetModel {
	return &PetModel{
		ID:        p.ID(),
		OwnerID:   p.OwnerID(),
		Name:      p.Name(),
		Specie:    p.Specie(),
		Breed:     p.Breed(),
		AgeMonths: p.AgeMonths(),
		Notes:     p.Notes(),
		Status:    string(p.Status()),
		Version:   p.Version(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

func toDomainPet(m *PetModel) *pet.Pet {
	return pet.Reconstruct(
		m.ID,
		m.OwnerID,
		m.Name,
		m.Specie,
		m.Breed,
		m.AgeMonths,
		m.Notes,
		pet.Status(m.Status),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
