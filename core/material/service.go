package material

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("material not found")
)

var NowFunc = func() time.Time { return time.Now().UTC() } // mockable

type (
	Repository interface {
		CreateMaterial(ctx context.Context, m Material) (Material, error)
		GetMaterial(ctx context.Context, id string) (Material, error)
		// QueryActiveMaterials returns active materials, newest first.
		QueryActiveMaterials(ctx context.Context) ([]Material, error)
		UpdateMaterial(ctx context.Context, m Material) (Material, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context) ([]Material, error) {
	return svc.repo.QueryActiveMaterials(ctx)
}

// Get returns an active Material.
func (svc *Service) Get(ctx context.Context, id string) (Material, error) {
	m, err := svc.repo.GetMaterial(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if !m.IsActive {
		return Material{}, ErrNotFound
	}
	return m, nil
}

// Create stores a new active Material. `in` must be validated.
func (svc *Service) Create(ctx context.Context, uploadedBy string, in Input) (Material, error) {
	now := NowFunc()
	return svc.repo.CreateMaterial(ctx, Material{
		Title:       in.Title,
		Type:        in.Type,
		Language:    in.Language,
		Description: in.Description,
		Content:     in.Content,
		Files:       in.Files,
		UploadedBy:  uploadedBy,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Update replaces every mutable field of an active Material with `in`. `in` must be validated.
func (svc *Service) Update(ctx context.Context, id string, in Input) (Material, error) {
	m, err := svc.Get(ctx, id)
	if err != nil {
		return Material{}, err
	}
	m.Title = in.Title
	m.Type = in.Type
	m.Language = in.Language
	m.Description = in.Description
	m.Content = in.Content
	m.Files = in.Files
	m.UpdatedAt = NowFunc()
	return svc.repo.UpdateMaterial(ctx, m)
}

// Delete soft deletes an active Material.
func (svc *Service) Delete(ctx context.Context, id string) error {
	m, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}
	m.IsActive = false
	m.UpdatedAt = NowFunc()
	_, err = svc.repo.UpdateMaterial(ctx, m)
	return err
}
