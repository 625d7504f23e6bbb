// Package backup exports, imports and clears the whole store, and keeps
// dated backup files in blob storage.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/platform/blob"
	"github.com/printdesk/printdesk/internal/store"
)

const (
	// FormatVersion is written into every envelope.
	FormatVersion = "1.0"
	// AppName identifies the producer of a backup file.
	AppName = "PrintDesk"
	// KeyPrefix is where stored backups live in blob storage.
	KeyPrefix = "backups/"
	// CurrencyKey is the setting seeded by Clear.
	CurrencyKey = "currency"
	// DefaultCurrency is the seeded currency code.
	DefaultCurrency = "USD"
)

var (
	// ErrInvalidBackup indicates a file without version or data, or one that
	// is not JSON at all.
	ErrInvalidBackup = fmt.Errorf("%w: invalid backup file", model.ErrValidation)
	// ErrNotFound indicates no stored backup exists under the key.
	ErrNotFound = fmt.Errorf("backup: %w", store.ErrNotFound)
)

// DefaultServices seeds the service catalogue after Clear.
var DefaultServices = []model.Service{
	{Name: "Printing", SubServices: []model.SubServiceDef{{Name: "Color", Price: 0.5}, {Name: "Double sided", Price: 0.2}}},
	{Name: "Photocopy", SubServices: []model.SubServiceDef{{Name: "Double sided", Price: 0.1}}},
	{Name: "Lamination"},
	{Name: "Binding", SubServices: []model.SubServiceDef{{Name: "Hard cover", Price: 3}}},
	{Name: "Graphic design"},
	{Name: "Business cards"},
}

// Envelope wraps a snapshot with format information.
type Envelope struct {
	Version    string          `json:"version"`
	ExportDate time.Time       `json:"exportDate"`
	AppName    string          `json:"appName"`
	Data       *store.Snapshot `json:"data"`
}

// Service implements backup operations.
type Service struct {
	store     *store.Store
	blobs     blob.Store
	logger    *slog.Logger
	retention int
	now       func() time.Time
	newKey    func(time.Time) (string, error)
}

// NewService builds Service. blobs may be nil when stored backups are not
// needed. retention <= 0 keeps every stored backup.
func NewService(st *store.Store, blobs blob.Store, logger *slog.Logger, retention int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, blobs: blobs, logger: logger, retention: retention, now: time.Now, newKey: backupKey}
}

// backupKey uses a time-ordered UUID so keys sort by creation time.
func backupKey(t time.Time) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return KeyPrefix + t.UTC().Format("2006/01/02") + "/" + id.String() + ".json", nil
}

// Export returns the whole store wrapped in an envelope.
func (s *Service) Export(ctx context.Context) (Envelope, error) {
	snap, err := s.store.ExportAll(ctx)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Version: FormatVersion, ExportDate: s.now().UTC(), AppName: AppName, Data: &snap}, nil
}

// Parse reads an envelope and checks that it carries a version and data.
func Parse(r io.Reader) (Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if err := env.check(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func (e Envelope) check() error {
	if strings.TrimSpace(e.Version) == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidBackup)
	}
	if e.Data == nil {
		return fmt.Errorf("%w: missing data", ErrInvalidBackup)
	}
	return nil
}

// Import replaces every collection present in the envelope. Collections
// absent from the file are left untouched.
func (s *Service) Import(ctx context.Context, env Envelope) error {
	if err := env.check(); err != nil {
		return err
	}
	if err := s.store.ImportAll(ctx, *env.Data); err != nil {
		return err
	}
	s.logger.Info("backup imported",
		slog.String("version", env.Version),
		slog.Time("export_date", env.ExportDate),
		slog.Int("collections", len(env.Data.Collections)))
	return nil
}

// Clear empties the store and seeds the defaults.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return err
	}
	if err := s.SeedDefaults(ctx); err != nil {
		return err
	}
	s.logger.Warn("store cleared")
	return nil
}

// SeedDefaults adds the default services when the catalogue is empty and the
// currency setting when it is missing.
func (s *Service) SeedDefaults(ctx context.Context) error {
	return s.store.WithTx(ctx, func(_ context.Context, tx *store.Tx) error {
		services, err := tx.GetAll(store.Services)
		if err != nil {
			return err
		}
		if len(services) == 0 {
			for _, svc := range DefaultServices {
				rec, err := store.Encode(svc)
				if err != nil {
					return err
				}
				if _, err := tx.Add(store.Services, rec); err != nil {
					return err
				}
			}
		}
		if _, ok := tx.GetSetting(CurrencyKey); !ok {
			return tx.SaveSetting(CurrencyKey, DefaultCurrency)
		}
		return nil
	})
}

// Snapshot writes the current store to blob storage and prunes old files.
func (s *Service) Snapshot(ctx context.Context) (blob.Info, error) {
	if s.blobs == nil {
		return blob.Info{}, errors.New("backup: blob storage not configured")
	}
	env, err := s.Export(ctx)
	if err != nil {
		return blob.Info{}, err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return blob.Info{}, fmt.Errorf("backup: encode: %w", err)
	}
	key, err := s.newKey(env.ExportDate)
	if err != nil {
		return blob.Info{}, fmt.Errorf("backup: key: %w", err)
	}
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"version":     env.Version,
			"export-date": env.ExportDate.Format(time.RFC3339),
		},
	})
	if err != nil {
		return blob.Info{}, err
	}
	s.logger.Info("backup stored", slog.String("key", info.Key), slog.Int64("size", info.Size))
	if _, err := s.Prune(ctx); err != nil {
		s.logger.Warn("backup prune failed", slog.Any("error", err))
	}
	return info, nil
}

// List returns stored backups, newest first.
func (s *Service) List(ctx context.Context) ([]blob.Info, error) {
	if s.blobs == nil {
		return []blob.Info{}, nil
	}
	infos, err := s.blobs.List(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].Key > infos[j].Key })
	return infos, nil
}

// Restore imports the stored backup under key.
func (s *Service) Restore(ctx context.Context, key string) error {
	if s.blobs == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if !strings.HasPrefix(key, KeyPrefix) {
		return fmt.Errorf("%w: key outside %s", ErrInvalidBackup, KeyPrefix)
	}
	_, body, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return err
	}
	defer body.Close()
	env, err := Parse(body)
	if err != nil {
		return err
	}
	if err := s.Import(ctx, env); err != nil {
		return err
	}
	s.logger.Info("backup restored", slog.String("key", key))
	return nil
}

// Prune deletes stored backups beyond the newest retention files and reports
// how many were removed.
func (s *Service) Prune(ctx context.Context) (int, error) {
	if s.blobs == nil || s.retention <= 0 {
		return 0, nil
	}
	infos, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(infos) <= s.retention {
		return 0, nil
	}
	removed := 0
	for _, info := range infos[s.retention:] {
		ok, err := s.blobs.Delete(ctx, info.Key)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	s.logger.Info("backups pruned", slog.Int("removed", removed), slog.Int("kept", s.retention))
	return removed, nil
}
