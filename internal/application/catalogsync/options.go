package catalogsync

import (
	"context"
	"time"
)

const (
	// DefaultChunkThresholdBytes is the serialized size one audit write may not exceed (80 MiB)
	DefaultChunkThresholdBytes int64 = 80 << 20
	// DefaultMaxRecords bounds the size of one preview request
	DefaultMaxRecords = 50000
	// DefaultIdempotencyTTL is how long an applied preview id stays claimed
	DefaultIdempotencyTTL = 24 * time.Hour
)

// Options tunes the sync engine. Zero values fall back to the defaults.
type Options struct {
	MaxRecords          int
	ErrorSampleSize     int
	ChunkThresholdBytes int64
	IdempotencyTTL      time.Duration
}

// DefaultOptions returns the default engine options
func DefaultOptions() Options {
	return Options{
		MaxRecords:          DefaultMaxRecords,
		ErrorSampleSize:     5,
		ChunkThresholdBytes: DefaultChunkThresholdBytes,
		IdempotencyTTL:      DefaultIdempotencyTTL,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxRecords <= 0 {
		o.MaxRecords = d.MaxRecords
	}
	if o.ErrorSampleSize <= 0 {
		o.ErrorSampleSize = d.ErrorSampleSize
	}
	if o.ChunkThresholdBytes <= 0 {
		o.ChunkThresholdBytes = d.ChunkThresholdBytes
	}
	if o.IdempotencyTTL <= 0 {
		o.IdempotencyTTL = d.IdempotencyTTL
	}
	return o
}

// ReportArchive stores complete serialized audit reports outside the database
type ReportArchive interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// ReportLinker hands out time-limited download links for archived reports
type ReportLinker interface {
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}
