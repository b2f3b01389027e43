// Package search fronts the optional ledger-name index. When the index is not
// configured the ledger handler falls back to its LIKE tier against the
// accounting source.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/parse"
)

var ErrSearchFailed = errors.New("SEARCH_QUERY_FAILED")

type Client struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewClient(es *elasticsearch.Client, index string, log logger.Logger) *Client {
	return &Client{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "ledger-search"}),
	}
}

// SearchLedgers fuzzy-matches ledger names for a tenant. Balances indexed as
// currency strings are normalized on the way out.
func (c *Client) SearchLedgers(ctx context.Context, tenantID, term string, size int) ([]models.LedgerRecord, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":     term,
							"fields":    []string{"name^3", "parent_group"},
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"tenant_id": tenantID},
					},
				},
			},
		},
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrSearchFailed, err)
	}

	out := make([]models.LedgerRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		name, _ := hit.Source["name"].(string)
		group, _ := hit.Source["parent_group"].(string)
		out = append(out, models.LedgerRecord{
			Name:           name,
			ParentGroup:    group,
			ClosingBalance: parse.Amount(hit.Source["closing_balance"]),
		})
	}
	return out, nil
}
