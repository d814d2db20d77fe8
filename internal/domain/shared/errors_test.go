package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	base := NewDomainError("REMOTE_DOWN", "remote is down")

	t.Run("matches same code", func(t *testing.T) {
		other := NewDomainError("REMOTE_DOWN", "a different message")
		assert.True(t, errors.Is(other, base))
	})

	t.Run("does not match other codes", func(t *testing.T) {
		assert.False(t, errors.Is(ErrNotFound, base))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("context: %w", base)
		assert.True(t, errors.Is(wrapped, base))
	})
}

func TestWrapDomainError(t *testing.T) {
	base := NewDomainError("REMOTE_DOWN", "remote is down")
	cause := errors.New("connection refused")

	err := WrapDomainError(base, cause)

	assert.Equal(t, "REMOTE_DOWN", err.Code)
	assert.Equal(t, "remote is down: connection refused", err.Error())
	assert.True(t, errors.Is(err, base))
	assert.True(t, errors.Is(err, cause))

	assert.Same(t, base, WrapDomainError(base, nil))
}

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name   string
		in     Filter
		want   Filter
		offset int
	}{
		{"zero values", Filter{}, Filter{Page: 1, PageSize: 20}, 0},
		{"keeps valid", Filter{Page: 3, PageSize: 50}, Filter{Page: 3, PageSize: 50}, 100},
		{"caps page size", Filter{Page: 1, PageSize: 10000}, Filter{Page: 1, PageSize: 500}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.offset, got.Offset())
		})
	}
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 45, 2, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(45), p.Total)
}
