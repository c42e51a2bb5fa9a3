// Package manager implements the per-record operation engine: for each
// file of a record it decides whether a transfer is needed, already
// scheduled, already present at the destination, or should be
// dispatched, and enforces per-operation limits.
package manager

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cernopendata/coldstorage/internal/backend"
	"github.com/cernopendata/coldstorage/internal/catalog"
	"github.com/cernopendata/coldstorage/internal/storage"
	"github.com/cernopendata/coldstorage/internal/transfer"
)

// Outcome keywords a single file's processing can produce, matching the
// CLI's per-record summary counters.
const (
	OutcomeDone         = "done"
	OutcomeScheduled    = "scheduled"
	OutcomeError        = "error"
	OutcomeRegistered   = "registered"
	OutcomeInconsistent = "inconsistent"
	OutcomeToRegister   = "to_register"
	OutcomeDry          = "dry"
	OutcomeCreated      = "created"
)

// FileOutcome pairs a file with the outcome keyword it produced and the
// Transfer created for it, if any.
type FileOutcome struct {
	FileID   string
	Outcome  string
	Transfer *transfer.Transfer
}

// Summary tallies outcomes across a doOperation call.
type Summary struct {
	Counts    map[string]int
	Outcomes  []FileOutcome
	Transfers []*transfer.Transfer
	// Truncated is set when a positive limit cut the run off before
	// every file needing a transfer had been considered, so a caller
	// tracking a budget across calls knows work remains.
	Truncated bool
}

// Manager is the per-record operation engine, bound to the catalog,
// storage router, backend registry and transfer repository it needs to
// move files between tiers.
type Manager struct {
	Catalog   *catalog.Catalog
	Router    *storage.Router
	Backends  *backend.Registry
	Transfers *transfer.Repository
	Log       *zerolog.Logger
}

// New creates a Manager bound to its collaborators.
func New(cat *catalog.Catalog, router *storage.Router, backends *backend.Registry, transfers *transfer.Repository, log *zerolog.Logger) *Manager {
	return &Manager{Catalog: cat, Router: router, Backends: backends, Transfers: transfers, Log: log}
}

// DoOperation dispatches to the archive/stage per-file engine, or to
// ClearHot, matching the action keyword given. fileID scopes the
// operation to a single file of the record, bypassing limit entirely;
// pass "" to operate over the whole record.
func (m *Manager) DoOperation(action, recordUUID string, limit int, register, force, dry bool, fileID string) (*Summary, error) {
	switch action {
	case catalog.ActionArchive, catalog.ActionStage:
		return m.moveRecord(recordUUID, limit, action, register, force, dry, fileID)
	case "clear_hot":
		return m.ClearHot(recordUUID, limit, dry)
	default:
		return nil, fmt.Errorf("manager: unknown operation %q", action)
	}
}

func (m *Manager) moveRecord(recordUUID string, limit int, action string, register, force, dry bool, fileID string) (*Summary, error) {
	record, err := m.Catalog.GetRecord(recordUUID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Counts: map[string]int{}}

	var files []*catalog.File
	if fileID != "" {
		for _, f := range record.AllFiles(0) {
			if f.ID == fileID {
				files = []*catalog.File{f}
				break
			}
		}
		if files == nil {
			return nil, fmt.Errorf("manager: file %s not found on record %s", fileID, recordUUID)
		}
		limit = 0
	} else {
		files = m.Catalog.GetFilesFromRecord(record, limit)
	}
	needsReindex := false

	for i, file := range files {
		outcome, newTransfer, err := m.moveRecordFile(record.UUID, file, action, register, force, dry)
		if err != nil {
			if m.Log != nil {
				m.Log.Error().Err(err).Str("file_id", file.ID).Msg("failed to move file")
			}
			outcome = OutcomeError
		}
		summary.Counts[outcome]++
		summary.Outcomes = append(summary.Outcomes, FileOutcome{FileID: file.ID, Outcome: outcome, Transfer: newTransfer})
		if outcome == OutcomeRegistered {
			needsReindex = true
		}
		if newTransfer != nil {
			summary.Transfers = append(summary.Transfers, newTransfer)
		}
		if limit > 0 && len(summary.Transfers) >= limit {
			summary.Truncated = i < len(files)-1
			break
		}
	}

	if needsReindex {
		m.Catalog.ReindexEntries()
	}
	return summary, nil
}

func (m *Manager) moveRecordFile(recordUUID string, file *catalog.File, action string, register, force, dry bool) (string, *transfer.Transfer, error) {
	if file.IsInQoS(action) {
		return OutcomeDone, nil, nil
	}

	scheduled, err := m.Transfers.IsScheduled(file.ID, action)
	if err != nil {
		return "", nil, err
	}
	if scheduled {
		return OutcomeScheduled, nil, nil
	}

	entry, err := m.peekDestination(file, action)
	if err != nil {
		return "", nil, err
	}
	if entry == nil {
		return OutcomeError, nil, fmt.Errorf("cannot resolve destination for file %s", file.ID)
	}

	if !force {
		matches, reason, err := m.Router.VerifyFile(m.Backends, action, entry.NewFilename, file.Size, file.Checksum)
		if err != nil {
			return "", nil, err
		}
		if reason != "File does not exist" {
			// Destination already exists.
			if register {
				if matches {
					if err := m.Catalog.AddCopy(recordUUID, file.ID, action, entry.NewFilename); err != nil {
						return "", nil, err
					}
					return OutcomeRegistered, nil, nil
				}
				return OutcomeInconsistent, nil, nil
			}
			return OutcomeToRegister, nil, nil
		}
	}

	if dry {
		return OutcomeDry, nil, nil
	}

	submitted, err := m.submit(file, action)
	if err != nil {
		return OutcomeError, nil, err
	}

	t, err := m.Transfers.Create(&transfer.Transfer{
		RecordUUID:  recordUUID,
		FileID:      file.ID,
		Action:      action,
		NewFilename: submitted.NewFilename,
		Method:      submitted.Method,
		MethodID:    submitted.MethodID,
		Size:        file.Size,
	})
	if err != nil {
		return OutcomeError, nil, err
	}
	return OutcomeCreated, t, nil
}

// peekDestination resolves where a file would land without submitting a
// transfer, used to drive the register/verify fast path. It reuses the
// router's FindURL rather than Archive/Stage so no job is actually
// submitted yet.
func (m *Manager) peekDestination(file *catalog.File, action string) (*storage.MoveEntry, error) {
	source := file.URI
	if action == catalog.ActionStage {
		source = file.Tags[catalog.TagURICold]
	}
	peer, backendName := m.Router.FindURL(action, source)
	if peer == "" {
		return nil, nil
	}
	return &storage.MoveEntry{Action: action, NewFilename: peer, Filename: source, Method: backendName}, nil
}

func (m *Manager) submit(file *catalog.File, action string) (*storage.MoveEntry, error) {
	if action == catalog.ActionArchive {
		return m.Router.Archive(m.Backends, file)
	}
	return m.Router.Stage(m.Backends, file)
}

// ClearHot removes the hot copy of each eligible file of a record: the
// file must have both a cold copy and a present hot copy. A positive
// limit caps the number of files cleared (or reported, when dry); a
// negative limit leaves the last |limit| files untouched.
func (m *Manager) ClearHot(recordUUID string, limit int, dry bool) (*Summary, error) {
	record, err := m.Catalog.GetRecord(recordUUID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Counts: map[string]int{}}
	cleared := false
	handled := 0

	for _, file := range m.Catalog.GetFilesFromRecord(record, limit) {
		if limit > 0 && handled >= limit {
			break
		}
		if !file.IsArchived() {
			summary.Counts["skipped_not_archived"]++
			continue
		}
		if !file.IsStaged() {
			summary.Counts["skipped_not_staged"]++
			continue
		}
		if !dry {
			if err := m.Router.ClearHot(file.URI); err != nil {
				summary.Counts[OutcomeError]++
				continue
			}
			if err := m.Catalog.ClearHot(recordUUID, file.ID); err != nil {
				summary.Counts[OutcomeError]++
				continue
			}
			cleared = true
			summary.Counts[OutcomeDone]++
		} else {
			summary.Counts[OutcomeDry]++
		}
		handled++
	}

	m.Catalog.ReindexEntries()
	summary.Counts["cleared"] = boolToInt(cleared)
	return summary, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// List returns the flat set of files belonging to a record, matching
// the source's list operation.
func (m *Manager) List(recordUUID string) ([]*catalog.File, error) {
	record, err := m.Catalog.GetRecord(recordUUID)
	if err != nil {
		return nil, err
	}
	return m.Catalog.GetFilesFromRecord(record, 0), nil
}
