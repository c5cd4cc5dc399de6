// Package catalog loads the list of mapping definitions a service offers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	apperrors "mapexec/internal/errors"
	"mapexec/internal/logging"
	"mapexec/internal/util"
)

// AdministrationPath is the catalog endpoint relative to the base URL.
const AdministrationPath = "api/v1/mappingAdministration/"

// maxCatalogBytes bounds the catalog body we are willing to parse.
var maxCatalogBytes int64 = 16 << 20

// ErrTooLarge is wrapped when the catalog body exceeds the size limit.
var ErrTooLarge = errors.New("catalog response is too large")

// MappingDescriptor is one selectable mapping. Values are immutable and only
// valid for the fetch that produced them.
type MappingDescriptor struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Loader fetches catalogs. It holds no state besides its collaborators.
type Loader struct {
	client    *http.Client
	log       *logging.Logger
	userAgent string
}

func NewLoader(client *http.Client, log *logging.Logger, userAgent string) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{client: client, log: log, userAgent: userAgent}
}

// URL returns the catalog endpoint for baseURL.
func URL(baseURL *url.URL) *url.URL {
	return util.JoinURL(baseURL, AdministrationPath)
}

// Load fetches and parses the catalog. Errors are *errors.CatalogFetchError.
func (l *Loader) Load(ctx context.Context, baseURL *url.URL) ([]MappingDescriptor, error) {
	if baseURL == nil {
		return nil, &apperrors.CatalogFetchError{Err: errors.New("no base URL configured")}
	}
	endpoint := URL(baseURL).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &apperrors.CatalogFetchError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	l.log.Debugf("catalog: GET %s", logging.SanitizeURL(endpoint))
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &apperrors.CatalogFetchError{URL: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.CatalogFetchError{URL: endpoint, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes+1))
	if err != nil {
		return nil, &apperrors.CatalogFetchError{URL: endpoint, Err: err}
	}
	if int64(len(body)) > maxCatalogBytes {
		return nil, &apperrors.CatalogFetchError{URL: endpoint,
			Err: fmt.Errorf("%w (limit %s)", ErrTooLarge, humanize.IBytes(uint64(maxCatalogBytes)))}
	}
	items, err := l.Parse(body)
	if err != nil {
		return nil, &apperrors.CatalogFetchError{URL: endpoint, Err: err}
	}
	l.log.Infof("catalog: %d mappings from %s", len(items), logging.SanitizeURL(endpoint))
	return items, nil
}

// Parse maps a catalog body to descriptors. Records without an id are skipped,
// and later records with an id already seen are dropped.
func (l *Loader) Parse(body []byte) ([]MappingDescriptor, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("response is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected a JSON array, got %s", root.Type)
	}
	records := root.Array()
	out := make([]MappingDescriptor, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		if !rec.IsObject() {
			l.log.Warnf("catalog: record %d is not an object, skipped", i)
			continue
		}
		id := rec.Get("mappingId").String()
		if id == "" {
			l.log.Warnf("catalog: record %d has no mappingId, skipped", i)
			continue
		}
		if seen[id] {
			l.log.Warnf("catalog: duplicate mappingId %q, keeping the first", id)
			continue
		}
		seen[id] = true
		out = append(out, MappingDescriptor{
			ID:          id,
			Title:       rec.Get("title").String(),
			Description: rec.Get("description").String(),
			Type:        rec.Get("mappingType").String(),
		})
	}
	return out, nil
}
