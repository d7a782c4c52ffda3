package intake

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eduflow/certflow/internal/domain"
)

func TestChecksumOfIsStableSHA256(t *testing.T) {
	a := checksumOf([]byte("hello certificate"))
	b := checksumOf([]byte("hello certificate"))
	c := checksumOf([]byte("different content"))

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 64)
}

func TestExtensionOf(t *testing.T) {
	for _, testCase := range []struct {
		filename string
		want     string
	}{
		{"certificate.PDF", "pdf"},
		{"scan.Jpeg", "jpeg"},
		{"no_extension", "pdf"},
		{"trailing.", "pdf"},
		{"archive.tar.gz", "gz"},
	} {
		require.Equal(t, testCase.want, extensionOf(testCase.filename), testCase.filename)
	}
}

func TestDuplicateErrorUnwrapsToSentinel(t *testing.T) {
	err := &DuplicateError{ExistingSubmissionID: 42}
	require.True(t, errors.Is(err, domain.ErrDuplicateFile))
	require.Contains(t, err.Error(), "42")
}
