// internal/workers/deals/search-deals/queries/builders_test.go
package queries

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestDealQuery_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		query    DealQuery
		wantSize int
		wantErr  error
	}{
		{"default size", DealQuery{Index: "lease-deals"}, DefaultSize, nil},
		{"size capped", DealQuery{Index: "lease-deals", Size: 500}, MaxSize, nil},
		{"missing index", DealQuery{}, 0, ErrMissingIndex},
		{"inverted range", DealQuery{Index: "lease-deals", Filters: Filters{MinRisk: ptr(70), MaxRisk: ptr(30)}}, 0, ErrInvalidFilter},
		{"range out of bounds", DealQuery{Index: "lease-deals", Filters: Filters{MaxRisk: ptr(140)}}, 0, ErrInvalidFilter},
		{"unknown status", DealQuery{Index: "lease-deals", Filters: Filters{Status: "archived"}}, 0, ErrInvalidFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			err := q.Normalize()
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, q.Size)
		})
	}
}

func TestBuildDealSearchQuery_FiltersAndText(t *testing.T) {
	q := DealQuery{
		Index: "lease-deals",
		Text:  "analytics",
		Filters: Filters{
			Status:       "pending",
			RiskCategory: "Medium",
			MinRisk:      ptr(30),
		},
	}

	body := buildDealSearchQuery(q)
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})

	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	assert.Contains(t, must[0], "multi_match")

	filters := boolQuery["filter"].([]interface{})
	assert.Len(t, filters, 3)
	assert.Contains(t, filters, map[string]interface{}{
		"range": map[string]interface{}{"overall_risk": map[string]interface{}{"gte": 30.0}},
	})
	assert.NotContains(t, body, "sort", "relevance order when searching text")
}

func TestBuildDealSearchQuery_MatchAllSortsByUpdate(t *testing.T) {
	body := buildDealSearchQuery(DealQuery{Index: "lease-deals"})
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})

	assert.Equal(t, []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}}, boolQuery["must"])
	assert.NotContains(t, boolQuery, "filter")
	assert.Equal(t, []map[string]interface{}{{"updated_at": "desc"}}, body["sort"])
}
