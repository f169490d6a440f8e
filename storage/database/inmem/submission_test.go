package inmemdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/submission"
	inmemdb "github.com/trezcool/ptemanager/storage/database/inmem"
)

func TestQuerySubmissions_sameTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewSubmissionRepository(inmemdb.Open())

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ids := make(map[string]bool)
	for i := 0; i < 6; i++ {
		s, err := repo.CreateSubmission(ctx, submission.Submission{
			TaskID: "t", StudentID: "s", Status: submission.StatusPending, SubmittedAt: at,
		})
		require.NoError(t, err)
		ids[s.ID] = true
	}
	newest, err := repo.CreateSubmission(ctx, submission.Submission{
		TaskID: "t", StudentID: "s", Status: submission.StatusPending, SubmittedAt: at.Add(time.Second),
	})
	require.NoError(t, err)

	all, total, err := repo.QuerySubmissions(ctx, submission.QueryFilter{}, core.Page{})
	require.NoError(t, err)
	require.Equal(t, 7, total)
	assert.Equal(t, newest.ID, all[0].ID)
	for i := 2; i < len(all); i++ {
		assert.Greater(t, all[i-1].ID, all[i].ID, "ties ordered by id")
	}

	// pages never overlap nor skip a record
	seen := make(map[string]bool)
	for n := 1; n <= 4; n++ {
		page, _, err := repo.QuerySubmissions(ctx, submission.QueryFilter{}, core.Page{Number: n, Size: 2})
		require.NoError(t, err)
		for _, s := range page {
			assert.False(t, seen[s.ID], s.ID)
			seen[s.ID] = true
		}
	}
	assert.Len(t, seen, 7)
	for id := range ids {
		assert.True(t, seen[id], id)
	}
}
