package utils

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	// Buckets tile the index range exactly once, for any degree
	{
		for _, maxIndex := range []int{1, 2, 7, 64, 1000} {
			for _, degree := range []int{1, 2, 3, 32} {
				pm := NewPartitionMap(degree, maxIndex)
				covered := make([]int, maxIndex)
				for np := 0; np < pm.ParallelDegree; np++ {
					min, max := pm.GetBucketRange(np)
					for i := min; i < max; i++ {
						covered[i]++
					}
				}
				for i, c := range covered {
					assert.Equal(t, 1, c, "index %d, maxIndex %d, degree %d", i, maxIndex, degree)
				}
			}
		}
	}
	// Degree never exceeds the index count
	{
		pm := NewPartitionMap(16, 3)
		assert.Equal(t, 3, pm.ParallelDegree)
	}
	// RunParallel visits every index and surfaces worker errors
	{
		pm := NewPartitionMap(4, 100)
		var (
			mtx sync.Mutex
			sum int
		)
		err := pm.RunParallel(func(np, min, max int) error {
			s := 0
			for i := min; i < max; i++ {
				s += i
			}
			mtx.Lock()
			sum += s
			mtx.Unlock()
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 99*100/2, sum)

		err = pm.RunParallel(func(np, min, max int) error {
			if np == 1 {
				return fmt.Errorf("boom")
			}
			return nil
		})
		assert.Error(t, err)
	}
}

func TestOffsets(t *testing.T) {
	O := NewOffsets(Index{3, 0, 2})
	assert.Equal(t, 0, O.Start(0))
	assert.Equal(t, 3, O.Start(1))
	assert.Equal(t, 3, O.Start(2))
	assert.Equal(t, 0, O.Count(1))
	assert.Equal(t, 2, O.Count(2))
	assert.Equal(t, 5, O.Total())
}
