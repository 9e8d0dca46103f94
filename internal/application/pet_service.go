package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetdesk/service-reservation/internal/domain/pet"
	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// CreatePetRequest is the request DTO for registering a pet profile.
type CreatePetRequest struct {
	Name      string `json:"name" binding:"required"`
	Specie    string `json:"specie" binding:"required"`
	Breed     string `json:"breed"`
	AgeMonths int    `json:"age_months"`
	Notes     string `json:"notes"`
}

// UpdatePetRequest is the request DTO for updating a pet profile.
type UpdatePetRequest struct {
	Name      string `json:"name"`
	Specie    string `json:"specie"`
	Breed     string `json:"breed"`
	AgeMonths int    `json:"age_months"`
	Notes     string `json:"notes"`
}

// PetDTO is the API response representation of a pet profile.
type PetDTO struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Specie    string    `json:"specie"`
	Breed     string    `json:"breed,omitempty"`
	AgeMonths int       `json:"age_months,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PetService manages the patient registry.
type PetService struct {
	repo   pet.Repository
	logger *zap.Logger
}

// NewPetService creates a new PetService.
func NewPetService(repo pet.Repository, logger *zap.Logger) *PetService {
	return &PetService{repo: repo, logger: logger}
}

// CreatePet registers a new pet profile for an owner.
func (s *PetService) CreatePet(ctx context.Context, ownerID uuid.UUID, req CreatePetRequest) (*PetDTO, error) {
	p, err := pet.NewPet(ownerID, req.Name, req.Specie, req.Breed, req.AgeMonths, req.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("pet profile created",
		zap.String("pet_id", p.ID().String()),
		zap.String("owner_id", ownerID.String()),
	)

	dto := toPetDTO(p)
	return &dto, nil
}

// GetPet retrieves a pet profile. Non-admin callers may only read their own
// pets.
func (s *PetService) GetPet(ctx context.Context, id, callerID uuid.UUID, isAdmin bool) (*PetDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !p.IsOwnedBy(callerID) {
		return nil, domain.NewForbiddenError("pet belongs to another owner")
	}
	dto := toPetDTO(p)
	return &dto, nil
}

// ListPetsByOwner returns every pet profile registered to an owner.
func (s *PetService) ListPetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]PetDTO, error) {
	pets, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dtos := make([]PetDTO, len(pets))
	for i, p := range pets {
		dtos[i] = toPetDTO(p)
	}
	return dtos, nil
}

// UpdatePet applies a partial edit to a pet profile.
func (s *PetService) UpdatePet(ctx context.Context, id, callerID uuid.UUID, isAdmin bool, req UpdatePetRequest) (*PetDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !p.IsOwnedBy(callerID) {
		return nil, domain.NewForbiddenError("pet belongs to another owner")
	}

	p.Update(req.Name, req.Specie, req.Breed, req.AgeMonths, req.Notes)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	dto := toPetDTO(p)
	return &dto, nil
}

// ArchivePet retires a pet profile. Archived pets keep their reservation
// history but cannot be booked.
func (s *PetService) ArchivePet(ctx context.Context, id, callerID uuid.UUID, isAdmin bool) (*PetDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !p.IsOwnedBy(callerID) {
		return nil, domain.NewForbiddenError("pet belongs to another owner")
	}

	p.Archive()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("pet profile archived", zap.String("pet_id", p.ID().String()))

	dto := toPetDTO(p)
	return &dto, nil
}

func toPetDTO(p *pet.Pet) PetDTO {
	return PetDTO{
		ID:        p.ID(),
		OwnerID:   p.OwnerID(),
		Name:      p.Name(),
		Specie:    p.Specie(),
		Breed:     p.Breed(),
		AgeMonths: p.AgeMonths(),
		Notes:     p.Notes(),
		Status:    string(p.Status()),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}
