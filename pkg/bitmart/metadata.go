package bitmart

import (
	"context"
	"fmt"
	"sync"

	"github.com/veiloq/bitmart-connector/pkg/rest"
)

// metadata lazily fetches and caches the symbol→display-name and
// symbol→price-precision tables. Each table is populated at most once per
// client instance and never refreshed; a failed fetch leaves the cache empty
// so the next call tries again.
type metadata struct {
	http               rest.Client
	mappingsEndpoint   string
	precisionsEndpoint string

	mu         sync.Mutex
	names      map[string]string
	precisions map[string]int
}

// mappingsResponse is the shape of the trade-mappings endpoint.
type mappingsResponse struct {
	Data struct {
		Result []struct {
			MappingList []struct {
				Symbol string `json:"symbol"`
				Name   string `json:"name"`
			} `json:"mappingList"`
		} `json:"result"`
	} `json:"data"`
}

// symbolDetail is one entry of the symbols-details endpoint.
type symbolDetail struct {
	ID                string `json:"id"`
	PriceMaxPrecision int    `json:"price_max_precision"`
}

func newMetadata(http rest.Client, mappingsEndpoint, precisionsEndpoint string) *metadata {
	return &metadata{
		http:               http,
		mappingsEndpoint:   mappingsEndpoint,
		precisionsEndpoint: precisionsEndpoint,
	}
}

// symbolNames returns the cached symbol→name map, fetching it on first use.
func (m *metadata) symbolNames(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.names) > 0 {
		return m.names, nil
	}

	var resp mappingsResponse
	if err := m.http.GetJSON(ctx, m.mappingsEndpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetching symbol mappings: %w", err)
	}

	names := make(map[string]string)
	for _, group := range resp.Data.Result {
		for _, mapping := range group.MappingList {
			names[mapping.Symbol] = mapping.Name
		}
	}
	m.names = names
	return m.names, nil
}

// precisionMap returns the cached symbol→precision map, fetching it on first use.
func (m *metadata) precisionMap(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.precisions) > 0 {
		return m.precisions, nil
	}

	var details []symbolDetail
	if err := m.http.GetJSON(ctx, m.precisionsEndpoint, &details); err != nil {
		return nil, fmt.Errorf("fetching symbol precisions: %w", err)
	}

	precisions := make(map[string]int, len(details))
	for _, detail := range details {
		precisions[detail.ID] = detail.PriceMaxPrecision
	}
	m.precisions = precisions
	return m.precisions, nil
}

// displayName resolves the display pair name for an exchange symbol, echoing
// the raw symbol when unmapped. Lookup never fails.
func (m *metadata) displayName(symbol string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name, ok := m.names[symbol]; ok {
		return name
	}
	return symbol
}

// precisionFor returns the price precision for a symbol, or nil when unknown
// so the field can be omitted from the subscription frame.
func (m *metadata) precisionFor(symbol string) *int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if precision, ok := m.precisions[symbol]; ok {
		return &precision
	}
	return nil
}
