// Package transfer implements the Transfer entity: a single in-flight
// copy operation submitted to a backend plugin, persisted so the
// periodic worker can reconcile its status across process restarts.
package transfer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"

	"github.com/cernopendata/coldstorage/internal/store"
)

// Status values a transfer moves through.
const (
	StatusSubmitted = "submitted"
	StatusDone      = "done"
	StatusFailed    = "failed"
)

// Transfer is one unit of work handed to a backend plugin: copy file_id
// belonging to record_uuid to new_filename via method/method_id, tracked
// until it finishes or fails.
type Transfer struct {
	ID          string     `json:"id"`
	RecordUUID  string     `json:"record_uuid"`
	FileID      string     `json:"file_id"`
	Action      string     `json:"action"`
	NewFilename string     `json:"new_filename"`
	Method      string     `json:"method"`
	MethodID    string     `json:"method_id"`
	SubmittedAt time.Time  `json:"submitted_at"`
	LastCheck   time.Time  `json:"last_check"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Status      string     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	Size        int64      `json:"size"`
	// LastState is the backend's raw in-flight status string from its
	// most recent CheckStatus poll (e.g. a scheduler job_state),
	// independent of the coarser Status field, kept purely for
	// observability.
	LastState string `json:"last_state,omitempty"`
}

// IsFinished reports whether the transfer has reached a terminal state.
func (t *Transfer) IsFinished() bool {
	return t.FinishedAt != nil
}

// Repository persists Transfer entities in the shared store, keyed under
// store.TransferPrefix, enforcing the (file_id,action) unfinished
// uniqueness invariant inside a single write transaction.
type Repository struct {
	store *store.Store
}

// NewRepository creates a transfer Repository backed by s.
func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

func key(id string) string {
	return store.TransferPrefix + id
}

// IsScheduled reports whether an unfinished transfer already exists for
// the given file and action, mirroring the source's is_scheduled check.
func (r *Repository) IsScheduled(fileID, action string) (bool, error) {
	scheduled := false
	err := r.store.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(store.IdxTransferActionStatus, func(k, v string) bool {
			var t Transfer
			if err := json.Unmarshal([]byte(v), &t); err != nil {
				return true
			}
			if t.FileID == fileID && t.Action == action && !t.IsFinished() {
				scheduled = true
				return false
			}
			return true
		})
	})
	if err != nil {
		return false, fmt.Errorf("is scheduled: %w", err)
	}
	return scheduled, nil
}

// Create inserts a new transfer, refusing to create a duplicate
// unfinished (file_id, action) pair by checking and writing inside the
// same transaction.
func (r *Repository) Create(t *Transfer) (*Transfer, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.SubmittedAt = now
	t.LastCheck = now
	if t.Status == "" {
		t.Status = StatusSubmitted
	}

	err := r.store.Update(func(tx *buntdb.Tx) error {
		duplicate := false
		_ = tx.Ascend(store.IdxTransferActionStatus, func(k, v string) bool {
			var existing Transfer
			if err := json.Unmarshal([]byte(v), &existing); err != nil {
				return true
			}
			if existing.FileID == t.FileID && existing.Action == t.Action && !existing.IsFinished() {
				duplicate = true
				return false
			}
			return true
		})
		if duplicate {
			return fmt.Errorf("transfer already scheduled for file %s action %s", t.FileID, t.Action)
		}

		raw, err := json.Marshal(t)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(key(t.ID), string(raw), nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create transfer: %w", err)
	}
	return t, nil
}

// Update persists changes to an existing transfer.
func (r *Repository) Update(t *Transfer) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	err = r.store.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(t.ID), string(raw), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("update transfer %s: %w", t.ID, err)
	}
	return nil
}

// MarkFinished sets the transfer's terminal status, finish time and
// optional failure reason, then persists it.
func (r *Repository) MarkFinished(t *Transfer, status, reason string) error {
	now := time.Now().UTC()
	t.Status = status
	t.FinishedAt = &now
	t.LastCheck = now
	t.Reason = reason
	return r.Update(t)
}

// TouchLastCheck updates last_check to now without altering status,
// used when a poll cycle observes no change yet.
func (r *Repository) TouchLastCheck(t *Transfer) error {
	t.LastCheck = time.Now().UTC()
	return r.Update(t)
}

// GetOngoingTransfers returns unfinished transfers whose last_check is
// at or before the given cutoff, ordered by last_check ascending, so the
// poller always re-checks the stalest transfers first.
func (r *Repository) GetOngoingTransfers(cutoff time.Time) ([]*Transfer, error) {
	var result []*Transfer
	err := r.store.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(store.IdxTransferRecordUUID, func(k, v string) bool {
			var t Transfer
			if err := json.Unmarshal([]byte(v), &t); err != nil {
				return true
			}
			if !t.IsFinished() && !t.LastCheck.After(cutoff) {
				result = append(result, &t)
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get ongoing transfers: %w", err)
	}
	sortByLastCheck(result)
	return result, nil
}

func sortByLastCheck(transfers []*Transfer) {
	for i := 1; i < len(transfers); i++ {
		for j := i; j > 0 && transfers[j].LastCheck.Before(transfers[j-1].LastCheck); j-- {
			transfers[j], transfers[j-1] = transfers[j-1], transfers[j]
		}
	}
}

// ActiveCount returns the number of unfinished transfers for the given
// action, used to enforce the configured active-transfers threshold
// before the manager submits more work of that kind.
func (r *Repository) ActiveCount(action string) (int, error) {
	count := 0
	err := r.store.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(store.IdxTransferActionStatus, func(k, v string) bool {
			var t Transfer
			if err := json.Unmarshal([]byte(v), &t); err != nil {
				return true
			}
			if t.Action == action && !t.IsFinished() {
				count++
			}
			return true
		})
	})
	if err != nil {
		return 0, fmt.Errorf("active count: %w", err)
	}
	return count, nil
}

// HasUnfinishedForRecord reports whether a record has any unfinished
// transfer for the given action, used by availability derivation to
// decide whether to override to "requested".
func (r *Repository) HasUnfinishedForRecord(recordUUID, action string) (bool, error) {
	found := false
	err := r.store.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(store.IdxTransferRecordUUID, func(k, v string) bool {
			var t Transfer
			if err := json.Unmarshal([]byte(v), &t); err != nil {
				return true
			}
			if t.RecordUUID == recordUUID && t.Action == action && !t.IsFinished() {
				found = true
				return false
			}
			return true
		})
	})
	if err != nil {
		return false, fmt.Errorf("has unfinished for record: %w", err)
	}
	return found, nil
}
