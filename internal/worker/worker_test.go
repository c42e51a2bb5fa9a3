package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cernopendata/coldstorage/internal/backend"
	"github.com/cernopendata/coldstorage/internal/backend/localcopy"
	"github.com/cernopendata/coldstorage/internal/catalog"
	"github.com/cernopendata/coldstorage/internal/manager"
	"github.com/cernopendata/coldstorage/internal/request"
	"github.com/cernopendata/coldstorage/internal/storage"
	"github.com/cernopendata/coldstorage/internal/store"
	"github.com/cernopendata/coldstorage/internal/transfer"
)

type fakeRecordStore struct {
	records map[string]*catalog.Record
}

func (f *fakeRecordStore) GetRecord(recordUUID string) (*catalog.Record, error) {
	r, ok := f.records[recordUUID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return r, nil
}

func (f *fakeRecordStore) SetFileTag(recordUUID, fileID, key, value string) error {
	file := f.find(recordUUID, fileID)
	if file == nil {
		return fmt.Errorf("file not found")
	}
	if file.Tags == nil {
		file.Tags = map[string]string{}
	}
	file.Tags[key] = value
	return nil
}

func (f *fakeRecordStore) DeleteFileTag(recordUUID, fileID, key string) error {
	file := f.find(recordUUID, fileID)
	if file != nil && file.Tags != nil {
		delete(file.Tags, key)
	}
	return nil
}

func (f *fakeRecordStore) find(recordUUID, fileID string) *catalog.File {
	r := f.records[recordUUID]
	if r == nil {
		return nil
	}
	for _, file := range r.AllFiles(0) {
		if file.ID == fileID {
			return file
		}
	}
	return nil
}

type fakeIndexer struct{ indexed []string }

func (f *fakeIndexer) Index(recordUUID string) error {
	f.indexed = append(f.indexed, recordUUID)
	return nil
}

type fakeMailer struct{ sent []string }

func (f *fakeMailer) Send(subject, body string, recipients []string) error {
	f.sent = append(f.sent, recipients...)
	return nil
}

func setupWorker(t *testing.T) (*Worker, *fakeRecordStore, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hot"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cold"), 0o755))

	recStore := &fakeRecordStore{records: map[string]*catalog.Record{}}
	cat := catalog.New(recStore, &fakeIndexer{})

	router := storage.NewRouter([]storage.Location{{
		HotPrefix:  "file://host" + filepath.Join(dir, "hot"),
		ColdPrefix: "file://host" + filepath.Join(dir, "cold"),
		Backend:    "cp",
	}})
	registry := backend.NewRegistry()
	registry.Register(localcopy.New())

	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	transfers := transfer.NewRepository(s)
	requests := request.NewRepository(s)
	mgr := manager.New(cat, router, registry, transfers, nil)

	threshold := 10
	w := &Worker{
		Catalog:   cat,
		Manager:   mgr,
		Backends:  registry,
		Transfers: transfers,
		Requests:  requests,
		Mailer:    &fakeMailer{},
		Threshold: func(action string) *int { return &threshold },
	}
	return w, recStore, s, dir
}

func TestProcessTransfersMarksDoneAndUpdatesCatalog(t *testing.T) {
	w, recStore, _, dir := setupWorker(t)

	src := filepath.Join(dir, "hot", "f")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))
	recStore.records["rec1"] = &catalog.Record{
		UUID:  "rec1",
		Files: []*catalog.File{{ID: "f1", URI: "file://host" + src, Size: 5}},
	}

	summary, err := w.Manager.DoOperation(catalog.ActionArchive, "rec1", 0, false, false, false, "")
	require.NoError(t, err)
	require.Len(t, summary.Transfers, 1)

	stats, err := w.ProcessTransfers(time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, stats[transfer.StatusDone])

	file := recStore.find("rec1", "f1")
	assert.True(t, file.IsArchived())

	finished, err := w.Transfers.GetOngoingTransfers(time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, finished, "a finished transfer is no longer ongoing")
}

func TestProcessTransfersNoOpOnEmptySet(t *testing.T) {
	w, _, _, _ := setupWorker(t)
	stats, err := w.ProcessTransfers(time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestProcessRequestsAdmitsAndCompletesStageRequest(t *testing.T) {
	w, recStore, _, dir := setupWorker(t)

	coldPath := filepath.Join(dir, "cold", "f")
	require.NoError(t, os.WriteFile(coldPath, []byte("hello"), 0o644))
	recStore.records["rec1"] = &catalog.Record{
		UUID: "rec1",
		Files: []*catalog.File{{
			ID: "f1", URI: "file://host" + filepath.Join(dir, "hot", "f"), Size: 5,
			Tags: map[string]string{catalog.TagURICold: "file://host" + coldPath, catalog.TagHotDeleted: "t"},
		}},
	}

	snap := request.Snapshot{NumHotFiles: 0, NumColdFiles: 1, NumRecordFiles: 1, RecordSize: 5}
	req, err := w.Requests.Create("rec1", []string{"u@x"}, "", snap)
	require.NoError(t, err)

	require.NoError(t, w.ProcessRequests())

	stats, err := w.ProcessTransfers(time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, stats[transfer.StatusDone])

	require.NoError(t, w.ProcessRequests())

	list, err := w.Requests.ListByStatus(request.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, req.ID, list[0].ID)

	m := w.Mailer.(*fakeMailer)
	assert.Equal(t, []string{"u@x"}, m.sent)
}

func TestCheckSubmittedLeavesRequestSubmittedWhenBudgetExhausted(t *testing.T) {
	w, recStore, _, dir := setupWorker(t)

	w.Threshold = func(action string) *int { n := 1; return &n }

	cold1 := filepath.Join(dir, "cold", "f1")
	cold2 := filepath.Join(dir, "cold", "f2")
	require.NoError(t, os.WriteFile(cold1, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(cold2, []byte("world"), 0o644))

	recStore.records["rec1"] = &catalog.Record{
		UUID: "rec1",
		Files: []*catalog.File{
			{ID: "f1", URI: "file://host" + filepath.Join(dir, "hot", "f1"), Size: 5,
				Tags: map[string]string{catalog.TagURICold: "file://host" + cold1, catalog.TagHotDeleted: "t"}},
			{ID: "f2", URI: "file://host" + filepath.Join(dir, "hot", "f2"), Size: 5,
				Tags: map[string]string{catalog.TagURICold: "file://host" + cold2, catalog.TagHotDeleted: "t"}},
		},
	}

	snap := request.Snapshot{NumColdFiles: 2, NumRecordFiles: 2, RecordSize: 10}
	req, err := w.Requests.Create("rec1", nil, "", snap)
	require.NoError(t, err)

	require.NoError(t, w.ProcessRequests())

	submitted, err := w.Requests.ListByStatus(request.StatusSubmitted)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	assert.Equal(t, req.ID, submitted[0].ID)
}
