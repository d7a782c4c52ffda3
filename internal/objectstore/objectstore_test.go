package objectstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	got := Key("2021001234", "abc123", "pdf")
	require.Equal(t, "certificates/2021001234/abc123.pdf", got)
}

func TestContentType(t *testing.T) {
	for _, testCase := range []struct {
		extension string
		want      string
	}{
		{"pdf", "application/pdf"},
		{"png", "image/png"},
		{"jpg", "image/jpeg"},
		{"jpeg", "image/jpeg"},
		{"tiff", "image/tiff"},
		{"bmp", "image/bmp"},
		{"unknown", "application/octet-stream"},
	} {
		require.Equal(t, testCase.want, ContentType(testCase.extension), testCase.extension)
	}
}
