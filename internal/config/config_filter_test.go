package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFilter(t *testing.T) {
	testCases := []struct {
		name           string
		condition      string
		env            FilterNoteEnv
		expectedResult bool
	}{
		{
			name:           "empty env",
			condition:      "title != ''",
			env:            FilterNoteEnv{},
			expectedResult: false,
		},
		{
			name:           "title",
			condition:      "title contains 'Sync'",
			env:            FilterNoteEnv{Title: "Weekly Sync"},
			expectedResult: true,
		},
		{
			name:           "open tasks",
			condition:      "open_tasks > 0 && 'Actions' in headings",
			env:            FilterNoteEnv{OpenTasks: 2, Headings: []string{"Summary", "Actions"}},
			expectedResult: true,
		},
		{
			name:           "updated after",
			condition:      "updated_at > date('2024-01-01')",
			env:            FilterNoteEnv{UpdatedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
			expectedResult: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filter := Filter{Condition: tc.condition}

			result, err := filter.Evaluate(tc.env)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedResult, result)
		})
	}
}

func TestConfigFilterInvalid(t *testing.T) {
	filter := Filter{Condition: "blocks + 1"}
	_, err := filter.Evaluate(FilterNoteEnv{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile filter program")
}

func TestMatch(t *testing.T) {
	filters := []*Filter{
		{Condition: "blocks > 1"},
		{Condition: "owner == 'ada'"},
	}

	ok, err := Match(filters, FilterNoteEnv{Blocks: 3, Owner: "ada"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Match(filters, FilterNoteEnv{Blocks: 3, Owner: "bob"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Match(nil, FilterNoteEnv{})
	require.NoError(t, err)
	assert.True(t, ok)
}
