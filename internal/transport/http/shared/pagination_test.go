package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		limit  int
		offset int
	}{
		{"defaults", "/x", 50, 0},
		{"explicit", "/x?limit=20&offset=40", 20, 40},
		{"clamped", "/x?limit=500", 200, 0},
		{"page", "/x?page=3&limit=25", 25, 50},
		{"first page", "/x?page=1", 50, 0},
		{"offset wins over page", "/x?offset=10&page=5", 50, 10},
		{"garbage ignored", "/x?limit=abc&offset=-2", 50, 0},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", tc.url, nil)
		got := ParsePagination(r, 50, 200)
		if got.Limit != tc.limit || got.Offset != tc.offset {
			t.Fatalf("%s: expected limit=%d offset=%d, got %+v", tc.name, tc.limit, tc.offset, got)
		}
	}
}
