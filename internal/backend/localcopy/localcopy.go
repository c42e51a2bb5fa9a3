// Package localcopy implements a synchronous, filesystem-local transfer
// backend: it copies bytes directly and reports jobs as immediately
// finished, for cold/hot tiers that both live on disks reachable from
// the process (e.g. in tests or a single-host deployment).
package localcopy

import (
	"fmt"
	"hash/adler32"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cernopendata/coldstorage/internal/backend"
	"github.com/cernopendata/coldstorage/internal/validation"
)

// Name is the short method name this backend registers under.
const Name = "cp"

// Backend copies files between two paths on the local filesystem. It
// strips the root://host/ and file://host/ URL prefixes the catalog
// uses to describe locations, the way the original manager's plain
// filesystem paths did.
type Backend struct {
	mu   sync.Mutex
	next int
}

// New creates a localcopy Backend.
func New() *Backend {
	return &Backend{}
}

// Name returns "cp".
func (b *Backend) Name() string { return Name }

// Archive copies sourceURL to destURL synchronously.
func (b *Backend) Archive(sourceURL, destURL string) (string, error) {
	return b.copy(sourceURL, destURL)
}

// Stage copies sourceURL to destURL synchronously.
func (b *Backend) Stage(sourceURL, destURL string) (string, error) {
	return b.copy(sourceURL, destURL)
}

func (b *Backend) copy(sourceURL, destURL string) (string, error) {
	src := stripScheme(sourceURL)
	dest := stripScheme(destURL)

	if err := validation.ValidateFilePath(src); err != nil {
		return "", fmt.Errorf("localcopy: source %w", err)
	}
	if err := validation.ValidateFilePath(dest); err != nil {
		return "", fmt.Errorf("localcopy: destination %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("localcopy: create destination dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("localcopy: open source %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("localcopy: create destination %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("localcopy: copy %s to %s: %w", src, dest, err)
	}

	b.mu.Lock()
	b.next++
	jobID := fmt.Sprintf("cp-%d", b.next)
	b.mu.Unlock()

	return jobID, nil
}

// CheckStatus always reports a finished, successful job, regardless of
// jobID or which process submitted it: Archive/Stage already copied
// the bytes synchronously before returning a job id, so there is
// nothing left to poll for. This matches the original local-copy
// backend's unconditional DONE status, and is what lets a transfer
// submitted by one `cold archive` invocation be reconciled by a later,
// separate `cold process-transfers` run with no shared in-memory state.
func (b *Backend) CheckStatus(jobID string) (bool, bool, string, string, error) {
	return true, true, "done", "", nil
}

// ExistsFile reports the size and adler32 checksum of destURL on disk,
// or nil if it does not exist.
func (b *Backend) ExistsFile(destURL string) (*backend.ExistsResult, error) {
	path := stripScheme(destURL)
	if err := validation.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("localcopy: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("localcopy: stat %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("localcopy: open %s: %w", path, err)
	}
	defer f.Close()

	sum := adler32.New()
	if _, err := io.Copy(sum, f); err != nil {
		return nil, fmt.Errorf("localcopy: checksum %s: %w", path, err)
	}

	return &backend.ExistsResult{
		Size:     info.Size(),
		Checksum: fmt.Sprintf("%08x", sum.Sum32()),
	}, nil
}

// stripScheme removes a root://host/ or file://host/ prefix, leaving a
// plain filesystem path, matching the catalog's tag-based URI model.
func stripScheme(url string) string {
	for _, scheme := range []string{"root://", "file://"} {
		if strings.HasPrefix(url, scheme) {
			rest := url[len(scheme):]
			if idx := strings.Index(rest, "/"); idx >= 0 {
				return rest[idx:]
			}
			return "/"
		}
	}
	return url
}
