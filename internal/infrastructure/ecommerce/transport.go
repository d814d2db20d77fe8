package ecommerce

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/catalogsync"
)

// maxResponseSize is the maximum response body read from a platform (10MB)
const maxResponseSize = 10 * 1024 * 1024

// statusError is a non-2xx platform response. It unwraps to the platform
// sentinel matching its status code.
type statusError struct {
	platform catalogsync.PlatformCode
	status   int
	body     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.platform, e.status, e.body)
}

func (e *statusError) Unwrap() error {
	switch {
	case e.status == http.StatusUnauthorized || e.status == http.StatusForbidden:
		return catalogsync.ErrPlatformAuthFailed
	case e.status == http.StatusTooManyRequests:
		return catalogsync.ErrPlatformRateLimited
	case e.status >= http.StatusInternalServerError:
		return catalogsync.ErrPlatformUnavailable
	default:
		return catalogsync.ErrPlatformRequestFailed
	}
}

// send executes req and returns the body of a 2xx response
func send(client *http.Client, platform catalogsync.PlatformCode, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		// a cancelled caller is not a platform outage
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", catalogsync.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", catalogsync.ErrPlatformUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		return nil, &statusError{platform: platform, status: resp.StatusCode, body: truncate(string(body), 300)}
	}
	return body, nil
}

func invalidResponse(platform catalogsync.PlatformCode, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", catalogsync.ErrPlatformInvalidResponse, platform, fmt.Sprintf(format, args...))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// parseMoney parses a platform price string. Empty means unset.
func parseMoney(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// formatMoney renders a price the way both platforms accept it
func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// chunkStrings splits s into consecutive runs of at most size elements
func chunkStrings(s []string, size int) [][]string {
	if size <= 0 {
		size = len(s)
	}
	var out [][]string
	for len(s) > 0 {
		n := min(size, len(s))
		out = append(out, s[:n])
		s = s[n:]
	}
	return out
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
