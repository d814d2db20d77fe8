package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/storesync/backend/internal/infrastructure/config"
)

func TestNewS3ReportArchive_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "configuration is required"},
		{name: "missing bucket", cfg: &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, wantErr: "bucket is required"},
		{name: "missing access key", cfg: &config.StorageConfig{Bucket: "b", SecretKey: "s"}, wantErr: "access key is required"},
		{name: "missing secret key", cfg: &config.StorageConfig{Bucket: "b", AccessKey: "k"}, wantErr: "secret key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ReportArchive(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewS3ReportArchive_Defaults(t *testing.T) {
	archive, err := NewS3ReportArchive(&config.StorageConfig{
		Endpoint:     "minio:9000",
		Bucket:       "reports",
		AccessKey:    "k",
		SecretKey:    "s",
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "reports", archive.Bucket())
	assert.Equal(t, 15*time.Minute, archive.presignExpiration)

	archive, err = NewS3ReportArchive(&config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s"}, WithPresignExpiration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, archive.presignExpiration)
}

func TestNormalizeEndpoint(t *testing.T) {
	ep, err := normalizeEndpoint("", false)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", ep)

	ep, err = normalizeEndpoint("s3.example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com", ep)

	_, err = normalizeEndpoint("http://", false)
	assert.Error(t, err)
}

func TestS3ReportArchive_GenerateDownloadURL(t *testing.T) {
	archive, err := NewS3ReportArchive(&config.StorageConfig{
		Endpoint:     "http://localhost:9000",
		Bucket:       "reports",
		AccessKey:    "k",
		SecretKey:    "s",
		UsePathStyle: true,
	})
	require.NoError(t, err)

	before := time.Now()
	link, expiresAt, err := archive.GenerateDownloadURL(context.Background(), "sync-reports/u/s.json", 0)
	require.NoError(t, err)
	assert.Contains(t, link, "localhost:9000/reports/sync-reports/u/s.json")
	assert.Contains(t, link, "X-Amz-Signature=")
	assert.Contains(t, link, "X-Amz-Expires=900")
	assert.True(t, expiresAt.After(before.Add(14*time.Minute)))

	_, _, err = archive.GenerateDownloadURL(context.Background(), "", time.Minute)
	assert.Error(t, err)
}

// fakeS3 answers the path-style PUT and HEAD object calls
type fakeS3 struct {
	mu           sync.Mutex
	objects      map[string]string
	contentTypes map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = string(body)
		f.contentTypes[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3ReportArchive_UploadAndExists(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}, contentTypes: map[string]string{}}
	server := httptest.NewServer(fake)
	defer server.Close()

	archive, err := NewS3ReportArchive(&config.StorageConfig{
		Endpoint:     server.URL,
		Bucket:       "reports",
		AccessKey:    "k",
		SecretKey:    "s",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := archive.ObjectExists(ctx, "sync-reports/a.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, archive.Upload(ctx, "sync-reports/a.json", []byte(`{"summary":{}}`), "application/json"))

	fake.mu.Lock()
	assert.Equal(t, "application/json", fake.contentTypes["/reports/sync-reports/a.json"])
	assert.True(t, strings.Contains(fake.objects["/reports/sync-reports/a.json"], `{"summary":{}}`))
	fake.mu.Unlock()

	exists, err = archive.ObjectExists(ctx, "sync-reports/a.json")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Error(t, archive.Upload(ctx, "", nil, "application/json"))
}
