package ulid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidID(t *testing.T) {
	validULID := GenerateID()

	tests := []struct {
		id       string
		expected bool
	}{
		{validULID, true},
		{"0", false},
		{"invalidulid", false},
		{"01B4E6BXY0PRJ5G420D25MWQY!", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidID(tt.id))
		})
	}
}

func TestGenerateUniqueID(t *testing.T) {
	t.Run("uniqueness", func(t *testing.T) {
		assert.NotEqual(t, GenerateID(), GenerateID())
	})

	t.Run("concurrent uniqueness", func(t *testing.T) {
		var wg sync.WaitGroup
		ids := make(map[string]struct{})
		mu := sync.Mutex{}

		numIDs := 10000
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

		assert.Equal(t, numIDs, len(ids))
	})
}

func TestSequenceGenerator(t *testing.T) {
	SequenceGenerator("blk")
	defer ResetGenerator()

	assert.Equal(t, "blk-1", GenerateID())
	assert.Equal(t, "blk-2", GenerateID())
	assert.Equal(t, "blk-12", func() string {
		for i := 0; i < 9; i++ {
			GenerateID()
		}
		return GenerateID()
	}())
}
