package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/files"
	"github.com/trezcool/ptemanager/core/material"
)

type materialRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Type        string      `db:"type"`
	Language    string      `db:"language"`
	Description string      `db:"description"`
	Content     string      `db:"content"`
	Files       filesColumn `db:"files"`
	UploadedBy  string      `db:"uploaded_by"`
	IsActive    bool        `db:"is_active"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func toMaterialRow(m material.Material) materialRow {
	return materialRow{
		ID:          m.ID,
		Title:       m.Title,
		Type:        m.Type,
		Language:    m.Language,
		Description: m.Description,
		Content:     m.Content,
		Files:       filesColumn(m.Files),
		UploadedBy:  m.UploadedBy,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func (r materialRow) toMaterial() material.Material {
	m := material.Material{
		ID:          r.ID,
		Title:       r.Title,
		Type:        r.Type,
		Language:    r.Language,
		Description: r.Description,
		Content:     r.Content,
		Files:       []files.Descriptor(r.Files),
		UploadedBy:  r.UploadedBy,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if m.Files == nil {
		m.Files = []files.Descriptor{}
	}
	return m
}

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *sqlx.DB) *materialRepository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	m.ID = core.NewID()
	q := `INSERT INTO materials (id, title, type, language, description, content, files, uploaded_by, is_active,
		created_at, updated_at)
		VALUES (:id, :title, :type, :language, :description, :content, :files, :uploaded_by, :is_active,
		:created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toMaterialRow(m)); err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return m, nil
}

func (repo *materialRepository) GetMaterial(ctx context.Context, id string) (material.Material, error) {
	var row materialRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM materials WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return material.Material{}, material.ErrNotFound
		}
		return material.Material{}, errors.Wrap(err, "selecting material")
	}
	return row.toMaterial(), nil
}

func (repo *materialRepository) QueryActiveMaterials(ctx context.Context) ([]material.Material, error) {
	var rows []materialRow
	q := "SELECT * FROM materials WHERE is_active = TRUE ORDER BY created_at DESC, id DESC"
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting materials")
	}
	mats := make([]material.Material, 0, len(rows))
	for _, r := range rows {
		mats = append(mats, r.toMaterial())
	}
	return mats, nil
}

func (repo *materialRepository) UpdateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	q := `UPDATE materials SET title = :title, type = :type, language = :language, description = :description,
		content = :content, files = :files, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toMaterialRow(m))
	if err != nil {
		return material.Material{}, errors.Wrap(err, "updating material")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return material.Material{}, material.ErrNotFound
	}
	return m, nil
}
