package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocurate/autocurate/internal/digest"
)

func TestPrintDigest(t *testing.T) {
	d := &digest.Digest{
		Title:           "Daily Digest - June 15, 2025",
		Content:         "the body",
		ArticleCount:    3,
		WordCount:       500,
		ReadTimeMinutes: 2,
		GeneratedAt:     time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC),
	}

	var out bytes.Buffer
	require.NoError(t, printDigest(&out, d, nil))
	assert.Contains(t, out.String(), "Daily Digest - June 15, 2025")
	assert.Contains(t, out.String(), "3 articles, 500 words, 2 min read")
}

func TestPrintDigestNoContentIsNotAFailure(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printDigest(&out, nil, digest.ErrNoContent))
	assert.Contains(t, out.String(), "nothing new to digest")
}

func TestPrintDigestOtherErrorsPropagate(t *testing.T) {
	var out bytes.Buffer
	err := printDigest(&out, nil, errors.New("summarizer down"))
	assert.Error(t, err)
	assert.Empty(t, out.String())
}
