// Package backend defines the Transfer Back-end Plugin contract: the
// thing that actually moves bytes between the hot and cold tiers, plus a
// registry backends attach themselves to so the Storage Router can look
// one up by its short method name at runtime instead of dynamically
// importing a class path.
package backend

import "fmt"

// ExistsResult describes what a backend found when probing a
// destination URL for an existing copy.
type ExistsResult struct {
	Size     int64
	Checksum string
}

// Backend is implemented by every transfer back-end plugin. A plugin
// knows how to submit an archive or stage job for one file and how to
// check on a previously submitted job's status.
type Backend interface {
	// Name is the short, stable identifier this backend registers under
	// (e.g. "cp", "s3", "azure").
	Name() string

	// Archive submits a job copying sourceURL (hot) to destURL (cold)
	// and returns a backend-assigned job id.
	Archive(sourceURL, destURL string) (jobID string, err error)

	// Stage submits a job copying sourceURL (cold) to destURL (hot) and
	// returns a backend-assigned job id.
	Stage(sourceURL, destURL string) (jobID string, err error)

	// CheckStatus reports whether a previously submitted job has
	// finished, and if so whether it succeeded. state is the backend's
	// raw status string (e.g. a scheduler job_state), reported
	// regardless of whether the job is done, for observability; reason
	// is populated only on failure.
	CheckStatus(jobID string) (done bool, succeeded bool, state string, reason string, err error)

	// ExistsFile probes destURL for an existing copy, returning nil if
	// it does not exist.
	ExistsFile(destURL string) (*ExistsResult, error)
}

// Registry maps a backend's short name to its implementation, replacing
// the dynamic class-path lookup of the original implementation with an
// explicit table built once at process start.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{backends: map[string]Backend{}}
}

// Register adds a backend under its own Name(). It panics on a
// duplicate name since that can only be a wiring mistake at startup.
func (r *Registry) Register(b Backend) {
	if _, exists := r.backends[b.Name()]; exists {
		panic(fmt.Sprintf("backend already registered: %s", b.Name()))
	}
	r.backends[b.Name()] = b
}

// Get looks up a backend by name.
func (r *Registry) Get(name string) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("no backend registered for method %q", name)
	}
	return b, nil
}
