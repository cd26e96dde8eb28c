package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from ProcessingStatus
		to   ProcessingStatus
		want bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, false},
		{StatusFailed, StatusPending, true},
		{StatusFailed, StatusCompleted, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestVectorID(t *testing.T) {
	assert.Equal(t, "42_0", VectorID(42, 0))
	assert.Equal(t, "42_17", VectorID(42, 17))

	// Same inputs always produce the same id.
	assert.Equal(t, VectorID(7, 3), VectorID(7, 3))
}

func TestParseVectorID(t *testing.T) {
	contentID, ordinal, err := ParseVectorID("42_17")
	require.NoError(t, err)
	assert.Equal(t, int64(42), contentID)
	assert.Equal(t, 17, ordinal)

	t.Run("round trip", func(t *testing.T) {
		id, ord, err := ParseVectorID(VectorID(123456, 9))
		require.NoError(t, err)
		assert.Equal(t, int64(123456), id)
		assert.Equal(t, 9, ord)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, bad := range []string{"", "abc", "42", "_", "x_y"} {
			_, _, err := ParseVectorID(bad)
			assert.Error(t, err, bad)
		}
	})
}

func TestRecordText(t *testing.T) {
	rec := Record{RawText: "raw", CleanedText: "cleaned"}
	assert.Equal(t, "cleaned", rec.Text())

	rec.CleanedText = ""
	assert.Equal(t, "raw", rec.Text())
}
