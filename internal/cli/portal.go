package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cernopendata/coldstorage/internal/app"
	"github.com/cernopendata/coldstorage/internal/backend"
	"github.com/cernopendata/coldstorage/internal/catalog"
	"github.com/cernopendata/coldstorage/internal/config"
	"github.com/cernopendata/coldstorage/internal/mailer"
	"github.com/cernopendata/coldstorage/internal/storage"
	"github.com/cernopendata/coldstorage/internal/storage/remote/azureblob"
	"github.com/cernopendata/coldstorage/internal/storage/remote/s3object"
)

// recordsFile is the JSON file standing in for the portal's record
// metadata store when run standalone: a map of record UUID to Record,
// read and rewritten whole on every mutation. The real portal record
// store is an external collaborator (catalog.RecordStore); this is
// the one shipped so the CLI is runnable on its own.
const defaultRecordsFile = "records.json"

type recordsFileStore struct {
	path string
}

func (s *recordsFileStore) load() (map[string]*catalog.Record, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]*catalog.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	records := map[string]*catalog.Record{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return records, nil
}

func (s *recordsFileStore) save(records map[string]*catalog.Record) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}

func (s *recordsFileStore) GetRecord(recordUUID string) (*catalog.Record, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	record, ok := records[recordUUID]
	if !ok {
		return nil, fmt.Errorf("record %s not found in %s", recordUUID, s.path)
	}
	return record, nil
}

func (s *recordsFileStore) SetFileTag(recordUUID, fileID, key, value string) error {
	records, err := s.load()
	if err != nil {
		return err
	}
	record, ok := records[recordUUID]
	if !ok {
		return fmt.Errorf("record %s not found in %s", recordUUID, s.path)
	}
	file := findFile(record, fileID)
	if file == nil {
		return fmt.Errorf("file %s not found in record %s", fileID, recordUUID)
	}
	if file.Tags == nil {
		file.Tags = map[string]string{}
	}
	file.Tags[key] = value
	return s.save(records)
}

func (s *recordsFileStore) DeleteFileTag(recordUUID, fileID, key string) error {
	records, err := s.load()
	if err != nil {
		return err
	}
	record, ok := records[recordUUID]
	if !ok {
		return fmt.Errorf("record %s not found in %s", recordUUID, s.path)
	}
	file := findFile(record, fileID)
	if file != nil && file.Tags != nil {
		delete(file.Tags, key)
	}
	return s.save(records)
}

func findFile(record *catalog.Record, fileID string) *catalog.File {
	for _, f := range record.AllFiles(0) {
		if f.ID == fileID {
			return f
		}
	}
	return nil
}

// loggingIndexer logs that a record would be reindexed, standing in for
// the portal's search indexer (catalog.Indexer) when run standalone.
type loggingIndexer struct{}

func (loggingIndexer) Index(recordUUID string) error {
	GetLogger().Debug().Str("record_uuid", recordUUID).Msg("record queued for reindex")
	return nil
}

// identityPIDResolver is used when no PID resolver is configured: the
// caller's identifier is already a record UUID.
type identityPIDResolver struct{}

func (identityPIDResolver) ResolveUUID(pid string) (string, error) { return pid, nil }

func newPortalCollaborators(cfg *config.Config) (catalog.RecordStore, catalog.Indexer, app.PIDResolver, mailer.Mailer) {
	path := os.Getenv("COLD_RECORDS_FILE")
	if path == "" {
		path = defaultRecordsFile
	}
	return &recordsFileStore{path: path}, loggingIndexer{}, identityPIDResolver{}, mailer.NewConsoleMailer(GetLogger())
}

// registerRemoteBackends builds the extra-backend hook passed to
// app.New: it registers the s3object and azureblob verification
// backends when their environment configuration is present, leaving
// them unregistered (rather than failing) otherwise.
func registerRemoteBackends(cfg *config.Config) func(*backend.Registry) error {
	return func(registry *backend.Registry) error {
		if cfg.S3Region != "" {
			b, err := s3object.New(context.Background(), cfg.S3Region, cfg.S3Endpoint)
			if err != nil {
				return fmt.Errorf("s3object backend: %w", err)
			}
			registry.Register(b)
		}
		if cfg.AzureAccountURL != "" {
			b, err := azureblob.New(cfg.AzureAccountURL)
			if err != nil {
				return fmt.Errorf("azureblob backend: %w", err)
			}
			registry.Register(b)
		}
		return nil
	}
}

// locationFile is the on-disk representation of the location table,
// loaded and saved as YAML per spec.md's CLI surface (`cold location
// add`/`cold location list`).
type locationFile struct {
	Locations []storage.Location `yaml:"locations"`
}

func loadLocations(path string) (app.Locations, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lf locationFile
	if err := yaml.Unmarshal(raw, &lf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return app.Locations(lf.Locations), nil
}

func saveLocations(path string, locations []storage.Location) error {
	if path == "" {
		return fmt.Errorf("no location file configured (set %s)", "COLD_LOCATION_FILE")
	}
	raw, err := yaml.Marshal(locationFile{Locations: locations})
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
