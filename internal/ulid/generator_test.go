package ulid

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidID(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{GenerateID(), true},
		{"0", false},
		{"invalidulid", false},
		{"01B4E6BXY0PRJ5G420D25MWQY!", false},
		{"01b4e6bxy0prj5g420d25mwqyz", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidID(tt.id))
		})
	}
}

func TestTime(t *testing.T) {
	before := time.Now().Truncate(time.Millisecond)
	ts, ok := Time(GenerateID())
	require.True(t, ok)
	assert.False(t, ts.Before(before))
	assert.WithinDuration(t, time.Now(), ts, time.Second)

	_, ok = Time("nope")
	assert.False(t, ok)
}

func TestGenerateIDSortsByCreation(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = GenerateID()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestGenerateIDConcurrentUniqueness(t *testing.T) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{})
	)

	const numIDs = 10000
	wg.Add(numIDs)
	for i := 0; i < numIDs; i++ {
		go func() {
			defer wg.Done()
			id := GenerateID()
			mu.Lock()
			defer mu.Unlock()
			ids[id] = struct{}{}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, numIDs)
}

func TestMockGenerator(t *testing.T) {
	MockGenerator("a", "b")
	defer ResetGenerator()

	assert.Equal(t, "a", GenerateID())
	assert.Equal(t, "b", GenerateID())
	assert.Equal(t, "b", GenerateID())
}
