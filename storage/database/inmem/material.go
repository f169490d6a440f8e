package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/files"
	"github.com/trezcool/ptemanager/core/material"
)

type materialRepository struct {
	db *materialTable
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *DB) *materialRepository {
	return &materialRepository{db: db.material}
}

func copyMaterial(m material.Material) *material.Material {
	m.Files = append([]files.Descriptor{}, m.Files...)
	return &m
}

func (repo *materialRepository) CreateMaterial(_ context.Context, m material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = core.NewID()
	repo.db.table[m.ID] = copyMaterial(m)
	return m, nil
}

func (repo *materialRepository) GetMaterial(_ context.Context, id string) (material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.table[id]; ok {
		return *copyMaterial(*m), nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) QueryActiveMaterials(_ context.Context) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	mats := make([]material.Material, 0)
	for _, m := range repo.db.table {
		if m.IsActive {
			mats = append(mats, *copyMaterial(*m))
		}
	}
	sort.Slice(mats, func(i, j int) bool {
		return newestFirst(mats[i].CreatedAt, mats[j].CreatedAt, mats[i].ID, mats[j].ID)
	})
	return mats, nil
}

func (repo *materialRepository) UpdateMaterial(_ context.Context, m material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[m.ID]; !ok {
		return material.Material{}, material.ErrNotFound
	}
	repo.db.table[m.ID] = copyMaterial(m)
	return m, nil
}
