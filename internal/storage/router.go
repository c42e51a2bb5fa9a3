package storage

import (
	"fmt"
	"os"
	"regexp"

	"github.com/cernopendata/coldstorage/internal/backend"
	"github.com/cernopendata/coldstorage/internal/catalog"
)

// MoveEntry describes a transfer that was just submitted to a backend:
// the information the caller persists as a Transfer row.
type MoveEntry struct {
	Action      string
	NewFilename string
	Filename    string
	Method      string
	MethodID    string
}

var hotFilePrefix = regexp.MustCompile(`^(root|file)://[^/]*/`)

// Archive resolves the peer URL and backend for file's hot URI and
// submits an archive job. Protocol rewriting (root:// to https://), when
// required, is the responsibility of the bound backend, not the router.
func (r *Router) Archive(registry *backend.Registry, file *catalog.File) (*MoveEntry, error) {
	return r.move(registry, catalog.ActionArchive, file.URI)
}

// Stage resolves the peer URL and backend for file's uri_cold tag and
// submits a stage job.
func (r *Router) Stage(registry *backend.Registry, file *catalog.File) (*MoveEntry, error) {
	return r.move(registry, catalog.ActionStage, file.Tags[catalog.TagURICold])
}

// move resolves the peer location and dispatches to the bound backend.
func (r *Router) move(registry *backend.Registry, action, source string) (*MoveEntry, error) {
	if source == "" {
		return nil, fmt.Errorf("storage: no source URI available for action %s", action)
	}

	peer, backendName := r.FindURL(action, source)
	if peer == "" {
		return nil, fmt.Errorf("storage: cannot find a destination for %s", source)
	}

	b, err := registry.Get(backendName)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	var jobID string
	if action == catalog.ActionArchive {
		jobID, err = b.Archive(source, peer)
	} else {
		jobID, err = b.Stage(source, peer)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: submit %s: %w", action, err)
	}

	return &MoveEntry{
		Action:      action,
		NewFilename: peer,
		Filename:    source,
		Method:      backendName,
		MethodID:    jobID,
	}, nil
}

// ClearHot deletes the local hot copy referenced by uri, stripping any
// root://host/ or file://host/ prefix to derive the filesystem path.
// Idempotent: a missing file is not an error.
func (r *Router) ClearHot(uri string) error {
	path := hotFilePrefix.ReplaceAllString(uri, "/")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("storage: clear hot %s: %w", path, err)
	}
	return nil
}

// VerifyFile checks a destination URI's existence, size and checksum
// through the backend bound to the location whose prefix matches it.
// reason is one of "File does not exist", "different size", "different
// checksum", or "" on success.
func (r *Router) VerifyFile(registry *backend.Registry, action, uri string, expectedSize int64, expectedChecksum string) (ok bool, reason string, err error) {
	// uri is already expressed in the destination tier for this action
	// (cold for archive, hot for stage); look it up against the
	// opposite action's prefix table to resolve its bound backend.
	_, backendName := r.FindURL(invertAction(action), uri)
	if backendName == "" {
		return false, "", fmt.Errorf("storage: unsupported URI scheme for %s", uri)
	}

	b, err := registry.Get(backendName)
	if err != nil {
		return false, "", fmt.Errorf("storage: %w", err)
	}

	result, err := b.ExistsFile(uri)
	if err != nil {
		return false, "", fmt.Errorf("storage: verify %s: %w", uri, err)
	}
	if result == nil {
		return false, "File does not exist", nil
	}
	if expectedSize != 0 && result.Size != expectedSize {
		return false, "different size", nil
	}
	if expectedChecksum != "" && result.Checksum != "" && "adler32:"+result.Checksum != expectedChecksum {
		return false, "different checksum", nil
	}
	return true, "", nil
}

func invertAction(action string) string {
	if action == catalog.ActionArchive {
		return catalog.ActionStage
	}
	return catalog.ActionArchive
}
