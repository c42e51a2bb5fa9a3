package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cernopendata/coldstorage/internal/catalog"
	"github.com/cernopendata/coldstorage/internal/manager"
	"github.com/cernopendata/coldstorage/internal/storage"
)

func TestNewArchiveCmdHasExpectedShape(t *testing.T) {
	cmd := newArchiveCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "archive RECID", cmd.Use)
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.Flags().Lookup("register"))
	assert.NotNil(t, cmd.Flags().Lookup("limit"))
}

func TestNewListCmdHasVerifyFlag(t *testing.T) {
	cmd := newListCmd()
	require.NotNil(t, cmd)
	assert.NotNil(t, cmd.Flags().Lookup("verify"))
}

func TestNewServeCmdHasIntervalFlag(t *testing.T) {
	cmd := newServeCmd()
	require.NotNil(t, cmd)
	assert.NotNil(t, cmd.Flags().Lookup("interval"))
}

func TestExitForSummaryErrorsOnErrorOrInconsistent(t *testing.T) {
	assert.NoError(t, exitForSummary(map[string]int{manager.OutcomeDone: 3}))
	assert.Error(t, exitForSummary(map[string]int{manager.OutcomeError: 1}))
	assert.Error(t, exitForSummary(map[string]int{manager.OutcomeInconsistent: 1}))
}

func TestRecordsFileStoreRoundTripsTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	store := &recordsFileStore{path: path}

	_, err := store.GetRecord("rec1")
	assert.Error(t, err, "record should not exist yet")

	records := map[string]*catalog.Record{
		"rec1": {
			UUID:  "rec1",
			Files: []*catalog.File{{ID: "f1", URI: "file://host/hot/f", Size: 10}},
		},
	}
	require.NoError(t, store.save(records))

	require.NoError(t, store.SetFileTag("rec1", "f1", catalog.TagURICold, "file://host/cold/f"))

	record, err := store.GetRecord("rec1")
	require.NoError(t, err)
	file := findFile(record, "f1")
	require.NotNil(t, file)
	assert.Equal(t, "file://host/cold/f", file.Tags[catalog.TagURICold])

	require.NoError(t, store.DeleteFileTag("rec1", "f1", catalog.TagURICold))
	record, err = store.GetRecord("rec1")
	require.NoError(t, err)
	file = findFile(record, "f1")
	require.NotNil(t, file)
	assert.Empty(t, file.Tags[catalog.TagURICold])
}

func TestLoadLocationsReturnsNilWhenFileMissing(t *testing.T) {
	locations, err := loadLocations(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Nil(t, locations)
}

func TestSaveThenLoadLocationsRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.yaml")
	want := []storage.Location{{HotPrefix: "root://eos/hot", ColdPrefix: "s3://cold", Backend: "s3"}}

	require.NoError(t, saveLocations(path, want))
	got, err := loadLocations(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want[0], got[0])
}

func TestSaveLocationsRequiresPath(t *testing.T) {
	err := saveLocations("", nil)
	assert.Error(t, err)
}

func TestIdentityPIDResolverReturnsInputUnchanged(t *testing.T) {
	got, err := identityPIDResolver{}.ResolveUUID("10.17181/abc")
	require.NoError(t, err)
	assert.Equal(t, "10.17181/abc", got)
}
