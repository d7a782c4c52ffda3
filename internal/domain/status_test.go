package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCanTransition(t *testing.T) {
	for _, testCase := range []struct {
		from, to Status
		allowed  bool
	}{
		{StatusUploaded, StatusQueued, true},
		{StatusUploaded, StatusOcrProcessing, false},
		{StatusQueued, StatusOcrProcessing, true},
		{StatusOcrProcessing, StatusMetadataProcessing, true},
		{StatusMetadataProcessing, StatusCategorizationProcessing, true},
		{StatusCategorizationProcessing, StatusPendingReview, true},
		{StatusPendingReview, StatusApproved, true},
		{StatusPendingReview, StatusRejected, true},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		// failed is reachable from every non-terminal status
		{StatusUploaded, StatusFailed, true},
		{StatusQueued, StatusFailed, true},
		{StatusOcrProcessing, StatusFailed, true},
		{StatusMetadataProcessing, StatusFailed, true},
		{StatusCategorizationProcessing, StatusFailed, true},
		{StatusPendingReview, StatusFailed, true},
		// terminal statuses permit no further transitions, including to failed
		{StatusApproved, StatusFailed, false},
		{StatusRejected, StatusFailed, false},
		{StatusFailed, StatusFailed, false},
	} {
		require.Equal(t, testCase.allowed, testCase.from.CanTransition(testCase.to),
			"%s -> %s", testCase.from, testCase.to)
	}
}

func TestStatusValidate(t *testing.T) {
	require.NoError(t, StatusUploaded.Validate(StatusQueued))

	err := StatusApproved.Validate(StatusRejected)
	require.Error(t, err)
	var invalid *ErrInvalidTransition
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, StatusApproved, invalid.From)
	require.Equal(t, StatusRejected, invalid.To)
}

func TestStatusRequiresCompletedAt(t *testing.T) {
	for _, s := range []Status{StatusFailed, StatusPendingReview, StatusApproved, StatusRejected} {
		require.True(t, s.RequiresCompletedAt(), "%s should require completed_at", s)
	}
	for _, s := range []Status{StatusUploaded, StatusQueued, StatusOcrProcessing, StatusMetadataProcessing, StatusCategorizationProcessing} {
		require.False(t, s.RequiresCompletedAt(), "%s should not require completed_at", s)
	}
}
