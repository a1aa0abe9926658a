// internal/workers/deals/search-deals/queries/builders.go
package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrMissingIndex  = errors.New("index name is required")
	ErrInvalidFilter = errors.New("invalid filter")
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Filters narrow a deal search. Empty fields are ignored.
type Filters struct {
	Status       string   `json:"status,omitempty"`
	BusinessType string   `json:"businessType,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	RiskCategory string   `json:"riskCategory,omitempty"`
	MinRisk      *float64 `json:"minRisk,omitempty"`
	MaxRisk      *float64 `json:"maxRisk,omitempty"`
}

// DealQuery describes one page of a deal search.
type DealQuery struct {
	Index   string
	Text    string
	Filters Filters
	SortBy  string
	From    int
	Size    int
}

// Normalize clamps pagination and checks the risk range.
func (q *DealQuery) Normalize() error {
	if q.Index == "" {
		return ErrMissingIndex
	}
	if q.From < 0 {
		q.From = 0
	}
	if q.Size < 1 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}

	f := q.Filters
	for _, v := range []*float64{f.MinRisk, f.MaxRisk} {
		if v != nil && (*v < 0 || *v > 100) {
			return fmt.Errorf("%w: risk bounds must be within 0-100", ErrInvalidFilter)
		}
	}
	if f.MinRisk != nil && f.MaxRisk != nil && *f.MinRisk > *f.MaxRisk {
		return fmt.Errorf("%w: minRisk %.1f exceeds maxRisk %.1f", ErrInvalidFilter, *f.MinRisk, *f.MaxRisk)
	}
	switch f.Status {
	case "", "pending", "approved", "rejected":
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	return nil
}

// BuildQuery turns q into a search request. Call Normalize first.
func BuildQuery(q DealQuery) (*esapi.SearchRequest, error) {
	if q.Index == "" {
		return nil, ErrMissingIndex
	}

	body, err := json.Marshal(buildDealSearchQuery(q))
	if err != nil {
		return nil, err
	}

	from, size := q.From, q.Size
	return &esapi.SearchRequest{
		Index:          []string{q.Index},
		Body:           bytes.NewReader(body),
		From:           &from,
		Size:           &size,
		TrackTotalHits: true,
	}, nil
}

func buildDealSearchQuery(q DealQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Text != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"business_name^3", "mission", "industry", "business_type"},
				"type":   "best_fields",
			},
		})
	}

	for field, value := range map[string]string{
		"status":        q.Filters.Status,
		"business_type": q.Filters.BusinessType,
		"industry":      q.Filters.Industry,
		"risk_category": q.Filters.RiskCategory,
	} {
		if value != "" {
			filterClauses = append(filterClauses, map[string]interface{}{
				"term": map[string]interface{}{field: value},
			})
		}
	}

	if q.Filters.MinRisk != nil || q.Filters.MaxRisk != nil {
		bounds := map[string]interface{}{}
		if q.Filters.MinRisk != nil {
			bounds["gte"] = *q.Filters.MinRisk
		}
		if q.Filters.MaxRisk != nil {
			bounds["lte"] = *q.Filters.MaxRisk
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"overall_risk": bounds},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": mustClauses}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}

	switch q.SortBy {
	case "risk":
		query["sort"] = []map[string]interface{}{{"overall_risk": "asc"}}
	case "name":
		query["sort"] = []map[string]interface{}{{"business_name.raw": "asc"}}
	case "newest":
		query["sort"] = []map[string]interface{}{{"created_at": "desc"}}
	default:
		if q.Text == "" {
			query["sort"] = []map[string]interface{}{{"updated_at": "desc"}}
		}
	}

	return query
}
