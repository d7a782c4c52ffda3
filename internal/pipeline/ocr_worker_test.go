package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestParticipantMatches(t *testing.T) {
	for _, testCase := range []struct {
		name      string
		extracted *string
		student   string
		matches   bool
	}{
		{"exact match", strp("Maria da Silva"), "Maria da Silva", true},
		{"case and punctuation differences", strp("MARIA DA SILVA!"), "maria da silva", true},
		{"two shared tokens", strp("Maria Santos"), "Maria Santos Oliveira", true},
		{"one shared short token only", strp("Ana Li"), "Ana Costa", false},
		{"one shared long token", strp("Bartholomeu"), "Bartholomeu Junior", true},
		{"no shared tokens", strp("Joao Pereira"), "Carlos Mendes", false},
		{"nil extracted name", nil, "Maria da Silva", false},
		{"empty extracted name after normalize", strp("!!!"), "Maria da Silva", false},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.matches, participantMatches(testCase.extracted, testCase.student))
		})
	}
}

func TestParseNumericHours(t *testing.T) {
	for _, testCase := range []struct {
		input    *string
		expected *int64
	}{
		{strp("40 horas"), int64p(40)},
		{strp("40h"), int64p(40)},
		{strp("40hr"), int64p(40)},
		{strp(""), nil},
		{strp("nd"), nil},
		{nil, nil},
	} {
		got := parseNumericHours(testCase.input)
		if testCase.expected == nil {
			require.Nil(t, got)
		} else {
			require.NotNil(t, got)
			require.Equal(t, *testCase.expected, *got)
		}
	}
}

func int64p(v int64) *int64 { return &v }
