// Package request implements the Request entity: a user-facing request
// to stage a record's files, tracked through submitted -> started ->
// completed and notifying subscribers on completion.
package request

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"

	"github.com/cernopendata/coldstorage/internal/store"
)

// Status values a request moves through.
const (
	StatusSubmitted = "submitted"
	StatusStarted   = "started"
	StatusCompleted = "completed"
)

// Request tracks a request to stage a record's files online, plus the
// list of subscriber emails to notify once the data is available.
type Request struct {
	ID          string     `json:"id"`
	RecordUUID  string     `json:"record_uuid"`
	Action      string     `json:"action"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	NumFiles    int        `json:"num_files"`
	Size        int64      `json:"size"`
	Subscribers []string   `json:"subscribers"`
	// FileID scopes the request to a single file of the record; empty
	// means the whole record, the common case.
	FileID string `json:"file_id,omitempty"`
	// NumHotFiles, NumColdFiles, NumRecordFiles and RecordSize are a
	// snapshot of the record's file counts and total size taken at
	// submission time, kept for later statistics even as the record's
	// actual state moves on past it.
	NumHotFiles    int   `json:"num_hot_files"`
	NumColdFiles   int   `json:"num_cold_files"`
	NumRecordFiles int   `json:"num_record_files"`
	RecordSize     int64 `json:"record_size"`
}

// Snapshot is the record file-count/size snapshot Create stores on a
// new request, captured by the caller at submission time.
type Snapshot struct {
	NumHotFiles    int
	NumColdFiles   int
	NumRecordFiles int
	RecordSize     int64
}

// Repository persists Request entities in the shared store, keyed under
// store.RequestPrefix.
type Repository struct {
	store *store.Store
}

// NewRepository creates a request Repository backed by s.
func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

func key(id string) string {
	return store.RequestPrefix + id
}

// Create inserts a new request for the given record, defaulting its
// action to stage as the source implementation does. fileID scopes the
// request to a single file of the record; pass "" for the whole
// record. snap is the submission-time snapshot of the record's
// hot/cold file counts and size, stored for later statistics.
func (r *Repository) Create(recordUUID string, subscribers []string, fileID string, snap Snapshot) (*Request, error) {
	req := &Request{
		ID:             uuid.NewString(),
		RecordUUID:     recordUUID,
		Action:         "stage",
		Status:         StatusSubmitted,
		CreatedAt:      time.Now().UTC(),
		Subscribers:    subscribers,
		FileID:         fileID,
		NumHotFiles:    snap.NumHotFiles,
		NumColdFiles:   snap.NumColdFiles,
		NumRecordFiles: snap.NumRecordFiles,
		RecordSize:     snap.RecordSize,
	}
	if err := r.save(req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

func (r *Repository) save(req *Request) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return r.store.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(req.ID), string(raw), nil)
		return err
	})
}

// MarkAsStarted records that the manager has admitted the request and
// begun staging, storing the file count and total size it computed.
func (r *Repository) MarkAsStarted(req *Request, numFiles int, size int64) error {
	now := time.Now().UTC()
	req.StartedAt = &now
	req.Status = StatusStarted
	req.NumFiles = numFiles
	req.Size = size
	return r.save(req)
}

// MarkAsCompleted records that all of the request's files are online,
// returning the list of subscribers to notify.
func (r *Repository) MarkAsCompleted(req *Request) ([]string, error) {
	now := time.Now().UTC()
	req.CompletedAt = &now
	req.Status = StatusCompleted
	if err := r.save(req); err != nil {
		return nil, err
	}
	return req.Subscribers, nil
}

// Subscribe adds an email to the request's subscriber list, returning
// false if it was already present.
func (r *Repository) Subscribe(req *Request, email string) (bool, error) {
	for _, s := range req.Subscribers {
		if s == email {
			return false, nil
		}
	}
	req.Subscribers = append(req.Subscribers, email)
	if err := r.save(req); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	return true, nil
}

// ListByStatus returns all requests in the given status.
func (r *Repository) ListByStatus(status string) ([]*Request, error) {
	var result []*Request
	err := r.store.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(store.IdxRequestStatus, func(k, v string) bool {
			var req Request
			if err := json.Unmarshal([]byte(v), &req); err != nil {
				return true
			}
			if req.Status == status {
				result = append(result, &req)
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list requests by status %s: %w", status, err)
	}
	return result, nil
}
