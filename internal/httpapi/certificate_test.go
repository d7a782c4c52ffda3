package httpapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtensionAllowed(t *testing.T) {
	for _, testCase := range []struct {
		filename string
		allowed  bool
	}{
		{"certificate.pdf", true},
		{"certificate.PDF", true},
		{"photo.JPG", true},
		{"scan.tiff", true},
		{"archive.zip", false},
		{"noextension", false},
		{"trailing.", false},
		{"", false},
	} {
		require.Equal(t, testCase.allowed, extensionAllowed(testCase.filename), testCase.filename)
	}
}
