// Package app wires the cold storage subsystem's collaborators into a
// single Services struct, the explicit dependency-injection root the CLI
// and workers are built from instead of package-level singletons.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cernopendata/coldstorage/internal/backend"
	"github.com/cernopendata/coldstorage/internal/backend/localcopy"
	"github.com/cernopendata/coldstorage/internal/backend/widearea"
	"github.com/cernopendata/coldstorage/internal/catalog"
	"github.com/cernopendata/coldstorage/internal/config"
	"github.com/cernopendata/coldstorage/internal/mailer"
	"github.com/cernopendata/coldstorage/internal/manager"
	"github.com/cernopendata/coldstorage/internal/request"
	"github.com/cernopendata/coldstorage/internal/storage"
	"github.com/cernopendata/coldstorage/internal/store"
	"github.com/cernopendata/coldstorage/internal/transfer"
	"github.com/cernopendata/coldstorage/internal/worker"
)

// PIDResolver maps a persistent identifier (e.g. a DOI) to the record
// UUID the catalog and manager operate on, letting CLI commands accept
// either form the way the portal's own tooling does.
type PIDResolver interface {
	ResolveUUID(pid string) (recordUUID string, err error)
}

// Services bundles every external collaborator (record store, PID
// resolver, indexer, mailer) plus the subsystem's own internal wiring
// (store, backend registry, catalog, manager, worker). Nothing here is a
// package-level singleton: callers build one Services per process and
// pass it explicitly.
type Services struct {
	Config *config.Config
	Log    *zerolog.Logger

	Store *store.Store

	RecordStore catalog.RecordStore
	Indexer     catalog.Indexer
	PIDs        PIDResolver
	Mailer      mailer.Mailer

	Backends  *backend.Registry
	Catalog   *catalog.Catalog
	Router    *storage.Router
	Transfers *transfer.Repository
	Requests  *request.Repository
	Manager   *manager.Manager
	Worker    *worker.Worker
}

// Locations is the location table the storage router is built from; kept
// separate from config so it can be loaded from the YAML location file.
type Locations []storage.Location

// New builds a Services from its collaborators. locations seeds the
// storage router; registerExtraBackends, if non-nil, is called after the
// built-in backends are registered (cp always, widearea only when
// cfg.WideAreaEndpoint is set), letting the caller add s3/azure
// backends that need extra configuration.
func New(
	cfg *config.Config,
	log *zerolog.Logger,
	recordStore catalog.RecordStore,
	indexer catalog.Indexer,
	pids PIDResolver,
	mail mailer.Mailer,
	locations Locations,
	registerExtraBackends func(*backend.Registry) error,
) (*Services, error) {
	s, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	registry := backend.NewRegistry()
	registry.Register(localcopy.New())
	if cfg.WideAreaEndpoint != "" {
		registry.Register(widearea.New(cfg.WideAreaEndpoint))
	}
	if registerExtraBackends != nil {
		if err := registerExtraBackends(registry); err != nil {
			return nil, fmt.Errorf("app: register backends: %w", err)
		}
	}

	cat := catalog.New(recordStore, indexer)
	router := storage.NewRouter([]storage.Location(locations))
	transfers := transfer.NewRepository(s)
	requests := request.NewRepository(s)
	mgr := manager.New(cat, router, registry, transfers, log)

	svc := &Services{
		Config:      cfg,
		Log:         log,
		Store:       s,
		RecordStore: recordStore,
		Indexer:     indexer,
		PIDs:        pids,
		Mailer:      mail,
		Backends:    registry,
		Catalog:     cat,
		Router:      router,
		Transfers:   transfers,
		Requests:    requests,
		Manager:     mgr,
	}
	svc.Worker = &worker.Worker{
		Catalog:   cat,
		Manager:   mgr,
		Backends:  registry,
		Transfers: transfers,
		Requests:  requests,
		Mailer:    mail,
		Threshold: cfg.ThresholdFor,
		Log:       log,
	}
	return svc, nil
}

// ResolveUUID resolves id to a record UUID, treating it as a UUID
// directly when no PIDResolver is configured.
func (s *Services) ResolveUUID(id string) (string, error) {
	if s.PIDs == nil {
		return id, nil
	}
	return s.PIDs.ResolveUUID(id)
}

// Close releases the underlying store.
func (s *Services) Close() error {
	return s.Store.Close()
}
