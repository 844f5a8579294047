package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mindwell/internal/domain/account"
	"mindwell/internal/domain/checkin"
	"mindwell/internal/domain/consent"
	"mindwell/internal/domain/survey"
	"mindwell/internal/platform/crypto"
)

type Service struct {
	store    *Store
	files    *crypto.Service
	dir      string
	accounts *account.Store
	consents *consent.Store
	checkins *checkin.Store
	surveys  *survey.Store
}

func NewService(store *Store, files *crypto.Service, dir string, accounts *account.Store, consents *consent.Store, checkins *checkin.Store, surveys *survey.Store) *Service {
	return &Service{
		store:    store,
		files:    files,
		dir:      dir,
		accounts: accounts,
		consents: consents,
		checkins: checkins,
		surveys:  surveys,
	}
}

// Request queues a new export. Building happens in the background worker.
func (s *Service) Request(ctx context.Context, userID, kind string) (Export, error) {
	if !ValidKind(kind) {
		return Export{}, ErrUnknownKind
	}
	return s.store.Create(ctx, userID, kind)
}

func (s *Service) List(ctx context.Context, userID string) ([]Export, error) {
	return s.store.ListByUser(ctx, userID)
}

// Download returns the decrypted archive for a ready export owned by userID.
func (s *Service) Download(ctx context.Context, userID, exportID string) (Export, []byte, error) {
	e, err := s.store.FindForUser(ctx, exportID, userID)
	if err != nil {
		return Export{}, nil, err
	}
	if e.Status != StatusReady {
		return Export{}, nil, ErrNotReady
	}

	sealed, err := os.ReadFile(e.FilePath)
	if err != nil {
		return Export{}, nil, fmt.Errorf("read archive: %w", err)
	}
	plain, err := s.files.Decrypt(sealed)
	if err != nil {
		return Export{}, nil, fmt.Errorf("decrypt archive: %w", err)
	}
	return e, plain, nil
}

// BuildNext claims one pending export and builds it. It reports whether an
// export was claimed so the caller can drain the queue.
func (s *Service) BuildNext(ctx context.Context) (bool, error) {
	e, found, err := s.store.ClaimNextPending(ctx)
	if err != nil || !found {
		return false, err
	}

	archive, err := s.buildArchive(ctx, e)
	if err != nil {
		if markErr := s.store.MarkFailed(ctx, e.ID, err.Error()); markErr != nil {
			return true, markErr
		}
		return true, fmt.Errorf("build export %s: %w", e.ID, err)
	}

	sealed, err := s.files.Encrypt(archive)
	if err != nil {
		_ = s.store.MarkFailed(ctx, e.ID, "encryption failed")
		return true, fmt.Errorf("encrypt export %s: %w", e.ID, err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		_ = s.store.MarkFailed(ctx, e.ID, "storage unavailable")
		return true, fmt.Errorf("export dir: %w", err)
	}
	path := filepath.Join(s.dir, e.ID+".zip.enc")
	if err := os.WriteFile(path, sealed, 0o640); err != nil {
		_ = s.store.MarkFailed(ctx, e.ID, "storage unavailable")
		return true, fmt.Errorf("write export %s: %w", e.ID, err)
	}

	return true, s.store.MarkReady(ctx, e.ID, path)
}
