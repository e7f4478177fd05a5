package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okra-platform/gisgen/internal/schema"
)

// ErrUnsupportedSchemaSource is returned for schema sources that are not
// absolute http(s) URLs. Local paths are never resolved for API callers.
var ErrUnsupportedSchemaSource = errors.New("schema_source must be an absolute http or https URL")

var httpClient = &http.Client{Timeout: 30 * time.Second}

// LoadSchema downloads a schema document from an http(s):// URL
func LoadSchema(ctx context.Context, source string) (*schema.Schema, error) {
	sourceURL, err := parseSchemaSource(source)
	if err != nil {
		return nil, err
	}

	data, err := download(ctx, sourceURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to download schema: %w", err)
	}

	s, err := schema.ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema from %s: %w", source, err)
	}
	return s, nil
}

func parseSchemaSource(source string) (*url.URL, error) {
	sourceURL, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSchemaSource, err)
	}
	switch sourceURL.Scheme {
	case "http", "https":
		if sourceURL.Host == "" {
			return nil, fmt.Errorf("%w: missing host", ErrUnsupportedSchemaSource)
		}
		return sourceURL, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSchemaSource, sourceURL.Scheme)
	}
}

func download(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
