package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	catalogsyncapp "github.com/storesync/backend/internal/application/catalogsync"
)

// StubReportArchive keeps reports in memory. It is used in development when
// no object storage is configured; its links are not downloadable.
type StubReportArchive struct {
	// BaseURL prefixes generated download links
	BaseURL string

	mu      sync.RWMutex
	objects map[string]stubObject
}

type stubObject struct {
	data        []byte
	contentType string
}

// Ensure StubReportArchive implements the archive ports
var (
	_ catalogsyncapp.ReportArchive = (*StubReportArchive)(nil)
	_ catalogsyncapp.ReportLinker  = (*StubReportArchive)(nil)
)

// NewStubReportArchive creates a new StubReportArchive
func NewStubReportArchive() *StubReportArchive {
	return &StubReportArchive{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]stubObject),
	}
}

// Upload stores a copy of data
func (s *StubReportArchive) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = stubObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Download returns the stored report
func (s *StubReportArchive) Download(_ context.Context, storageKey string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, storageKey)
	}
	return append([]byte(nil), obj.data...), nil
}

// ObjectExists reports whether storageKey was uploaded
func (s *StubReportArchive) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// GenerateDownloadURL builds a fake link
func (s *StubReportArchive) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}
