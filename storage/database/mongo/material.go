package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/material"
)

type materialDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Type        string    `bson:"type"`
	Language    string    `bson:"language"`
	Description string    `bson:"description"`
	Content     string    `bson:"content"`
	Files       []fileDoc `bson:"files"`
	UploadedBy  string    `bson:"uploadedBy"`
	IsActive    bool      `bson:"isActive"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func toMaterialDoc(m material.Material) materialDoc {
	return materialDoc{
		ID:          m.ID,
		Title:       m.Title,
		Type:        m.Type,
		Language:    m.Language,
		Description: m.Description,
		Content:     m.Content,
		Files:       toFileDocs(m.Files),
		UploadedBy:  m.UploadedBy,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (d materialDoc) toMaterial() material.Material {
	return material.Material{
		ID:          d.ID,
		Title:       d.Title,
		Type:        d.Type,
		Language:    d.Language,
		Description: d.Description,
		Content:     d.Content,
		Files:       toDescriptors(d.Files),
		UploadedBy:  d.UploadedBy,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type materialRepository struct {
	coll *mongo.Collection
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *DB) *materialRepository {
	return &materialRepository{coll: db.collection(materialsColl)}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	m.ID = core.NewID()
	if _, err := repo.coll.InsertOne(ctx, toMaterialDoc(m)); err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return m, nil
}

func (repo *materialRepository) GetMaterial(ctx context.Context, id string) (material.Material, error) {
	var doc materialDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return material.Material{}, material.ErrNotFound
		}
		return material.Material{}, errors.Wrap(err, "finding material")
	}
	return doc.toMaterial(), nil
}

func (repo *materialRepository) QueryActiveMaterials(ctx context.Context) ([]material.Material, error) {
	cur, err := repo.coll.Find(ctx, bson.M{"isActive": true}, newestFirst("createdAt"))
	if err != nil {
		return nil, errors.Wrap(err, "querying materials")
	}
	var docs []materialDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding materials")
	}
	mats := make([]material.Material, 0, len(docs))
	for _, d := range docs {
		mats = append(mats, d.toMaterial())
	}
	return mats, nil
}

func (repo *materialRepository) UpdateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": m.ID}, toMaterialDoc(m))
	if err != nil {
		return material.Material{}, errors.Wrap(err, "updating material")
	}
	if res.MatchedCount == 0 {
		return material.Material{}, material.ErrNotFound
	}
	return m, nil
}
