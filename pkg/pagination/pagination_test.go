package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"defaults", "", 1, 20, 0},
		{"custom", "?page=3&per_page=50", 3, 50, 100},
		{"negative page", "?page=-1", 1, 20, 0},
		{"zero per page", "?per_page=0", 1, 20, 0},
		{"garbage", "?page=abc&per_page=xyz", 1, 20, 0},
		{"clamped per page", "?page=2&per_page=500", 2, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/history"+tt.query, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestNewResult_Navigation(t *testing.T) {
	r := NewResult([]int{1, 2}, 45, Params{Page: 2, PerPage: 20, Offset: 20})
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)

	last := NewResult([]int{1}, 41, Params{Page: 3, PerPage: 20, Offset: 40})
	assert.False(t, last.HasNext)

	exact := NewResult([]int{}, 40, Params{Page: 1, PerPage: 20})
	assert.Equal(t, 2, exact.TotalPages)
}

func TestNewResult_NilItemsEncodeAsEmptyArray(t *testing.T) {
	r := NewResult[string](nil, 0, DefaultParams())

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"total_count":0,"page":1,"per_page":20,"total_pages":0,"has_next":false,"has_prev":false}`, string(raw))
}
