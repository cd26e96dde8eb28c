package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatches(t *testing.T) {
	metadata := map[string]string{
		"content_id": "42",
		"category":   "technology",
		"language":   "en",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{
			name:   "nil filter matches everything",
			filter: nil,
			want:   true,
		},
		{
			name:   "empty filter matches everything",
			filter: Filter{},
			want:   true,
		},
		{
			name:   "equality match",
			filter: Filter{}.Eq("category", "technology"),
			want:   true,
		},
		{
			name:   "equality mismatch",
			filter: Filter{}.Eq("category", "sports"),
			want:   false,
		},
		{
			name:   "membership match",
			filter: Filter{}.In("content_id", []string{"7", "42", "99"}),
			want:   true,
		},
		{
			name:   "membership mismatch",
			filter: Filter{}.In("content_id", []string{"7", "99"}),
			want:   false,
		},
		{
			name:   "empty membership set matches nothing",
			filter: Filter{}.In("content_id", []string{}),
			want:   false,
		},
		{
			name:   "missing key",
			filter: Filter{}.Eq("author", "alice"),
			want:   false,
		},
		{
			name:   "conditions combine with AND",
			filter: Filter{}.Eq("language", "en").In("category", []string{"technology", "science"}),
			want:   true,
		},
		{
			name:   "AND fails when one condition fails",
			filter: Filter{}.Eq("language", "de").In("category", []string{"technology"}),
			want:   false,
		},
		{
			name:   "unsupported value type matches nothing",
			filter: Filter{"content_id": 42},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(metadata))
		})
	}
}

func TestFilterEqualityOnly(t *testing.T) {
	assert.True(t, Filter{}.equalityOnly())
	assert.True(t, Filter{}.Eq("a", "1").Eq("b", "2").equalityOnly())
	assert.False(t, Filter{}.Eq("a", "1").In("b", []string{"2"}).equalityOnly())

	m := Filter{}.Eq("a", "1").Eq("b", "2").equalityMap()
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)
	assert.Nil(t, Filter{}.equalityMap())
}
