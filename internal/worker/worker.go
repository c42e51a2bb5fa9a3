// Package worker implements the two periodic procedures that drive the
// system forward: process_transfers reconciles in-flight transfer
// status with their back-ends, and process_requests admits submitted
// requests and completes started ones.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cernopendata/coldstorage/internal/availability"
	"github.com/cernopendata/coldstorage/internal/backend"
	"github.com/cernopendata/coldstorage/internal/catalog"
	"github.com/cernopendata/coldstorage/internal/mailer"
	"github.com/cernopendata/coldstorage/internal/manager"
	"github.com/cernopendata/coldstorage/internal/request"
	"github.com/cernopendata/coldstorage/internal/transfer"
)

// ThresholdLookup resolves the configured active-transfers budget for
// an action, or nil when no budget is configured for it.
type ThresholdLookup func(action string) *int

// Worker bundles the collaborators both periodic procedures need.
type Worker struct {
	Catalog   *catalog.Catalog
	Manager   *manager.Manager
	Backends  *backend.Registry
	Transfers *transfer.Repository
	Requests  *request.Repository
	Mailer    mailer.Mailer
	Threshold ThresholdLookup
	Log       *zerolog.Logger
}

// ProcessTransfers reconciles every ongoing transfer against its
// back-end, committing per transfer so a crash loses at most one
// status update, then drains the catalog's reindex queue once.
func (w *Worker) ProcessTransfers(now time.Time) (map[string]int, error) {
	summary := map[string]int{}

	transfers, err := w.Transfers.GetOngoingTransfers(now)
	if err != nil {
		return nil, fmt.Errorf("process transfers: %w", err)
	}

	for _, t := range transfers {
		t.LastCheck = now

		b, err := w.Backends.Get(t.Method)
		if err != nil {
			w.logError(err, t.ID)
			summary["error"]++
			_ = w.Transfers.TouchLastCheck(t)
			continue
		}

		done, succeeded, state, reason, err := b.CheckStatus(t.MethodID)
		if err != nil {
			w.logError(err, t.ID)
			summary["transport_error"]++
			_ = w.Transfers.TouchLastCheck(t)
			continue
		}
		t.LastState = state

		switch {
		case done && succeeded:
			if err := w.Catalog.AddCopy(t.RecordUUID, t.FileID, t.Action, t.NewFilename); err != nil {
				w.logError(err, t.ID)
			}
			if err := w.Transfers.MarkFinished(t, transfer.StatusDone, ""); err != nil {
				return nil, err
			}
			summary[transfer.StatusDone]++
		case done && !succeeded:
			if err := w.Transfers.MarkFinished(t, transfer.StatusFailed, reason); err != nil {
				return nil, err
			}
			summary[transfer.StatusFailed]++
		default:
			if err := w.Transfers.TouchLastCheck(t); err != nil {
				return nil, err
			}
			summary["in_flight"]++
		}
	}

	w.Catalog.ReindexEntries()
	return summary, nil
}

func (w *Worker) logError(err error, transferID string) {
	if w.Log != nil {
		w.Log.Error().Err(err).Str("transfer_id", transferID).Msg("transfer check failed")
	}
}

// ProcessRequests runs the two admission/completion passes described by
// the Request Driver.
func (w *Worker) ProcessRequests() error {
	if err := w.checkSubmitted(); err != nil {
		return err
	}
	return w.checkRunning()
}

func (w *Worker) checkSubmitted() error {
	for _, action := range []string{"stage", "archive"} {
		threshold := w.Threshold(action)
		if threshold == nil {
			continue
		}

		active, err := w.Transfers.ActiveCount(action)
		if err != nil {
			return err
		}
		budget := *threshold - active
		if budget <= 0 {
			continue
		}

		submitted, err := w.Requests.ListByStatus(request.StatusSubmitted)
		if err != nil {
			return err
		}

		admitted := 0
		for _, req := range submitted {
			if req.Action != action {
				continue
			}
			if admitted >= budget {
				break
			}

			summary, err := w.Manager.DoOperation(action, req.RecordUUID, budget-admitted, true, false, false, req.FileID)
			if err != nil {
				w.logError(err, req.ID)
				continue
			}

			issued := len(summary.Transfers)
			admitted += issued

			if summary.Truncated {
				// The budget ran out before every file needing a
				// transfer had been considered; leave the request
				// submitted so the next cycle picks up where this one
				// left off instead of losing the stranded tail files.
				continue
			}

			var size int64
			for _, t := range summary.Transfers {
				size += t.Size
			}

			if err := w.Requests.MarkAsStarted(req, req.NumFiles+issued, req.Size+size); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Worker) checkRunning() error {
	for _, action := range []string{"stage", "archive"} {
		started, err := w.Requests.ListByStatus(request.StatusStarted)
		if err != nil {
			return err
		}

		for _, req := range started {
			if req.Action != action {
				continue
			}

			record, err := w.Catalog.GetRecord(req.RecordUUID)
			if err != nil {
				w.logError(err, req.ID)
				continue
			}

			complete, err := w.isComplete(record, action)
			if err != nil {
				return err
			}
			if !complete {
				continue
			}

			subscribers, err := w.Requests.MarkAsCompleted(req)
			if err != nil {
				return err
			}
			mailer.NotifyRequestCompleted(w.Mailer, req.ID, subscribers)
		}
	}
	return nil
}

func (w *Worker) isComplete(record *catalog.Record, action string) (bool, error) {
	if action == catalog.ActionStage {
		result, err := availability.DeriveWithOverride(record, pendingChecker{w})
		if err != nil {
			return false, err
		}
		return result.Availability == availability.Online, nil
	}

	for _, f := range record.AllFiles(0) {
		if !f.IsArchived() {
			return false, nil
		}
	}
	return true, nil
}

type pendingChecker struct{ w *Worker }

func (c pendingChecker) HasPendingStageActivity(recordUUID string) (bool, error) {
	submitted, err := c.w.Requests.ListByStatus(request.StatusSubmitted)
	if err != nil {
		return false, err
	}
	for _, req := range submitted {
		if req.RecordUUID == recordUUID && req.Action == "stage" {
			return true, nil
		}
	}

	return c.w.Transfers.HasUnfinishedForRecord(recordUUID, "stage")
}

// Run drives ProcessRequests -> ProcessTransfers -> ProcessRequests on
// the given ticker interval until ctx is cancelled, the sandwich order
// that lets newly-completed transfers promote requests to completed in
// the same cycle.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.runCycle()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runCycle()
		}
	}
}

func (w *Worker) runCycle() {
	if err := w.ProcessRequests(); err != nil && w.Log != nil {
		w.Log.Error().Err(err).Msg("process requests cycle failed")
	}
	if _, err := w.ProcessTransfers(time.Now().UTC()); err != nil && w.Log != nil {
		w.Log.Error().Err(err).Msg("process transfers cycle failed")
	}
	if err := w.ProcessRequests(); err != nil && w.Log != nil {
		w.Log.Error().Err(err).Msg("process requests cycle failed")
	}
}
