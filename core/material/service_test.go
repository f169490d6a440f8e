package material_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ptemanager/core/files"
	"github.com/trezcool/ptemanager/core/material"
	"github.com/trezcool/ptemanager/storage/database"
	inmemdb "github.com/trezcool/ptemanager/storage/database/inmem"
	"github.com/trezcool/ptemanager/tests"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	repos := database.NewInMemory(inmemdb.Open())
	svc := material.NewService(repos.Materials)

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	material.NowFunc = func() time.Time { return now }
	defer func() { material.NowFunc = func() time.Time { return time.Now().UTC() } }()

	old := testutil.CreateMaterial(t, repos.Materials, "Old tips", material.TypeTips, "admin", true, now.Add(-time.Hour))
	hidden := testutil.CreateMaterial(t, repos.Materials, "Hidden", material.TypeGrammar, "admin", false)

	var created material.Material
	t.Run("create", func(t *testing.T) {
		var err error
		created, err = svc.Create(ctx, "admin", material.Input{
			Title: "Essay template", Type: material.TypeTemplate, Language: material.LangBoth, Files: []files.Descriptor{},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.True(t, created.IsActive)
		assert.Equal(t, "admin", created.UploadedBy)
		assert.Equal(t, now, created.CreatedAt)
		assert.Equal(t, now, created.UpdatedAt)
	})

	t.Run("list active, newest first", func(t *testing.T) {
		mats, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, mats, 2)
		assert.Equal(t, created.ID, mats[0].ID)
		assert.Equal(t, old.ID, mats[1].ID)
	})

	t.Run("get inactive", func(t *testing.T) {
		_, err := svc.Get(ctx, hidden.ID)
		assert.Equal(t, material.ErrNotFound, err)
	})

	t.Run("update", func(t *testing.T) {
		now = now.Add(time.Minute)
		m, err := svc.Update(ctx, old.ID, material.Input{
			Title: "New tips", Type: material.TypeTips, Language: material.LangGujarati, Description: "updated",
		})
		require.NoError(t, err)
		assert.Equal(t, "New tips", m.Title)
		assert.Equal(t, material.LangGujarati, m.Language)
		assert.Equal(t, "updated", m.Description)
		assert.Equal(t, old.CreatedAt, m.CreatedAt)
		assert.Equal(t, now, m.UpdatedAt)
	})

	t.Run("update inactive", func(t *testing.T) {
		_, err := svc.Update(ctx, hidden.ID, material.Input{Title: "x", Type: material.TypeTips})
		assert.Equal(t, material.ErrNotFound, err)
	})

	t.Run("soft delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, created.ID))
		assert.Equal(t, material.ErrNotFound, svc.Delete(ctx, created.ID))

		m, err := repos.Materials.GetMaterial(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, m.IsActive)

		mats, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, mats, 1)
		assert.Equal(t, old.ID, mats[0].ID)
	})
}
