// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"equireal-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// DealIndexMapping is the mapping of the deal search index. Text fields are
// searchable; enums are keywords so they can be filtered exactly.
const DealIndexMapping = `{
  "mappings": {
    "properties": {
      "id":            {"type": "keyword"},
      "proposal_id":   {"type": "keyword"},
      "business_name": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "business_type": {"type": "keyword"},
      "industry":      {"type": "keyword"},
      "location":      {"type": "keyword"},
      "mission":       {"type": "text"},
      "status":        {"type": "keyword"},
      "strategy":      {"type": "keyword"},
      "risk_category": {"type": "keyword"},
      "overall_risk":  {"type": "float"},
      "equity_percent":        {"type": "float"},
      "upfront_rent_percent":  {"type": "float"},
      "revenue_share_percent": {"type": "float"},
      "monthly_rent":  {"type": "float"},
      "created_at":    {"type": "date"},
      "updated_at":    {"type": "date"}
    }
  }
}`

// ElasticsearchClient wraps the Elasticsearch client
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	esCfg := elasticsearch.Config{
		Addresses: addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// EnsureIndex creates index with DealIndexMapping unless it already exists.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, index string) error {
	return EnsureIndex(ctx, c.Client, index)
}

// EnsureIndex creates index on es with DealIndexMapping unless it exists.
func EnsureIndex(ctx context.Context, es *elasticsearch.Client, index string) error {
	res, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = es.Indices.Create(index,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(strings.NewReader(DealIndexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	// A concurrent creator may win the race; that is fine.
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
