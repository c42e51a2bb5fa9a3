package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cernopendata/coldstorage/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewRepository(s)
}

func TestCreateDefaultsToStageAndSubmitted(t *testing.T) {
	repo := newTestRepo(t)
	snap := Snapshot{NumHotFiles: 1, NumColdFiles: 2, NumRecordFiles: 3, RecordSize: 4096}
	req, err := repo.Create("rec1", []string{"a@example.org"}, "", snap)
	require.NoError(t, err)
	assert.Equal(t, "stage", req.Action)
	assert.Equal(t, StatusSubmitted, req.Status)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, 1, req.NumHotFiles)
	assert.Equal(t, 2, req.NumColdFiles)
	assert.Equal(t, 3, req.NumRecordFiles)
	assert.EqualValues(t, 4096, req.RecordSize)
}

func TestCreateStoresFileScope(t *testing.T) {
	repo := newTestRepo(t)
	req, err := repo.Create("rec1", nil, "f1", Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "f1", req.FileID)
}

func TestMarkAsStartedThenCompletedReturnsSubscribers(t *testing.T) {
	repo := newTestRepo(t)
	req, err := repo.Create("rec1", []string{"a@example.org", "b@example.org"}, "", Snapshot{})
	require.NoError(t, err)

	require.NoError(t, repo.MarkAsStarted(req, 3, 1024))
	assert.Equal(t, StatusStarted, req.Status)
	assert.Equal(t, 3, req.NumFiles)

	subs, err := repo.MarkAsCompleted(req)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, req.Status)
	assert.ElementsMatch(t, []string{"a@example.org", "b@example.org"}, subs)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	req, err := repo.Create("rec1", nil, "", Snapshot{})
	require.NoError(t, err)

	added, err := repo.Subscribe(req, "a@example.org")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Subscribe(req, "a@example.org")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, req.Subscribers, 1)
}

func TestListByStatusFiltersCorrectly(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Create("rec1", nil, "", Snapshot{})
	require.NoError(t, err)
	started, err := repo.Create("rec2", nil, "", Snapshot{})
	require.NoError(t, err)
	require.NoError(t, repo.MarkAsStarted(started, 1, 1))

	submitted, err := repo.ListByStatus(StatusSubmitted)
	require.NoError(t, err)
	assert.Len(t, submitted, 1)

	startedList, err := repo.ListByStatus(StatusStarted)
	require.NoError(t, err)
	assert.Len(t, startedList, 1)
}
