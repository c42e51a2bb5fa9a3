// Package widearea implements a transfer backend that submits jobs to a
// wide-area file transfer scheduler over HTTP, for moves that cross
// site boundaries (EOS/CTA style archival endpoints). It models the
// job/submit/status life-cycle of a managed transfer service: a job is
// posted once, then polled for completion by id.
package widearea

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cernopendata/coldstorage/internal/backend"
)

// Name is the short method name this backend registers under.
const Name = "widearea"

// Default job parameters, matching the wide-area scheduler defaults
// used for archival (1-day archive timeout) and staging (7-day
// bring-online window) jobs.
const (
	DefaultArchiveTimeoutSeconds = 86400
	DefaultBringOnlineSeconds    = 604800
	DefaultCopyPinLifetime       = 64000
)

// Backend submits jobs to a generic REST transfer-scheduler endpoint
// and polls job status by id. The scheduler endpoint is
// environment-configured by internal/config; requests carry no
// credentials.
type Backend struct {
	client   *retryablehttp.Client
	endpoint string
}

// New creates a widearea Backend pointed at the given scheduler
// endpoint (e.g. "https://fts3.cern.ch:8446").
func New(endpoint string) *Backend {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 10 * time.Second
	client.Logger = nil

	return &Backend{client: client, endpoint: strings.TrimRight(endpoint, "/")}
}

// Name returns "widearea".
func (b *Backend) Name() string { return Name }

type jobFile struct {
	Sources      []string `json:"sources"`
	Destinations []string `json:"destinations"`
}

type jobRequest struct {
	Files  []jobFile      `json:"files"`
	Params map[string]int `json:"params"`
}

type jobResponse struct {
	JobID string `json:"job_id"`
}

// rewriteProtocol swaps a root:// URL for https://, the protocol the
// wide-area scheduler actually dials; other schemes pass through
// unchanged. Protocol rewriting is scoped to this backend only, not
// applied by the Storage Router generically.
func rewriteProtocol(url string) string {
	return strings.Replace(url, "root://", "https://", 1)
}

func (b *Backend) submit(source, dest string, params map[string]int) (string, error) {
	job := jobRequest{
		Files: []jobFile{{
			Sources:      []string{rewriteProtocol(source)},
			Destinations: []string{rewriteProtocol(dest)},
		}},
		Params: params,
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("widearea: marshal job: %w", err)
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, b.endpoint+"/jobs", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("widearea: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("widearea: submit job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("widearea: submit job: unexpected status %d", resp.StatusCode)
	}

	var out jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("widearea: decode response: %w", err)
	}
	if out.JobID == "" {
		return "", fmt.Errorf("widearea: scheduler returned an empty job id")
	}
	return out.JobID, nil
}

// Archive submits a hot-to-cold copy with the archive_timeout param.
func (b *Backend) Archive(sourceURL, destURL string) (string, error) {
	return b.submit(sourceURL, destURL, map[string]int{
		"archive_timeout":   DefaultArchiveTimeoutSeconds,
		"copy_pin_lifetime": -1,
	})
}

// Stage submits a cold-to-hot copy with the bring_online param.
func (b *Backend) Stage(sourceURL, destURL string) (string, error) {
	return b.submit(sourceURL, destURL, map[string]int{
		"bring_online":      DefaultBringOnlineSeconds,
		"copy_pin_lifetime": DefaultCopyPinLifetime,
	})
}

type statusResponse struct {
	JobState string `json:"job_state"`
	Reason   string `json:"reason"`
}

// CheckStatus polls the scheduler for a job's current state. The
// scheduler's "FINISHED" state maps to done+succeeded; any other
// terminal-looking failure state maps to done without success; anything
// else means the job is still running. The raw job_state is always
// returned alongside, so a caller can log what the job is doing
// (STAGING, SUBMITTED, ...) while it's still in flight.
func (b *Backend) CheckStatus(jobID string) (bool, bool, string, string, error) {
	req, err := retryablehttp.NewRequest(http.MethodGet, b.endpoint+"/jobs/"+jobID, nil)
	if err != nil {
		return false, false, "", "", fmt.Errorf("widearea: build status request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return false, false, "", "", fmt.Errorf("widearea: check status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return false, false, "", "", fmt.Errorf("widearea: check status: unexpected status %d", resp.StatusCode)
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, false, "", "", fmt.Errorf("widearea: decode status: %w", err)
	}

	switch out.JobState {
	case "FINISHED":
		return true, true, out.JobState, "", nil
	case "FAILED", "CANCELED":
		return true, false, out.JobState, out.Reason, nil
	default:
		return false, false, out.JobState, "", nil
	}
}

// ExistsFile issues a HEAD request against destURL to check for an
// existing copy and its reported size.
func (b *Backend) ExistsFile(destURL string) (*backend.ExistsResult, error) {
	req, err := retryablehttp.NewRequest(http.MethodHead, rewriteProtocol(destURL), nil)
	if err != nil {
		return nil, fmt.Errorf("widearea: build head request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("widearea: exists check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("widearea: exists check: unexpected status %d", resp.StatusCode)
	}

	return &backend.ExistsResult{
		Size:     resp.ContentLength,
		Checksum: resp.Header.Get("X-Checksum-Adler32"),
	}, nil
}
