package utils

import (
	"runtime"
	"sync"
)

// PartitionMap splits [0,MaxIndex) into ParallelDegree contiguous partitions
// for goroutine fan-out over elements or faces.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree <= 0 {
		ParallelDegree = runtime.NumCPU()
	}
	if ParallelDegree > maxIndex {
		ParallelDegree = maxIndex
	}
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	var (
		Npart    = pm.MaxIndex / pm.ParallelDegree
		leftover = pm.MaxIndex % pm.ParallelDegree
	)
	bucket[0] = threadNum * Npart
	bucket[1] = bucket[0] + Npart
	if threadNum == pm.ParallelDegree-1 {
		bucket[1] += leftover
	}
	return
}

func (pm *PartitionMap) GetBucketRange(np int) (min, max int) {
	min, max = pm.Partitions[np][0], pm.Partitions[np][1]
	return
}

// RunParallel invokes work(np, min, max) on every partition concurrently and
// waits for completion. The first non-nil error across partitions is
// returned; partitions must not write outside their own index range.
func (pm *PartitionMap) RunParallel(work func(np, min, max int) error) (err error) {
	var (
		NP   = pm.ParallelDegree
		wg   = sync.WaitGroup{}
		errs = make([]error, NP)
	)
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			min, max := pm.GetBucketRange(np)
			errs[np] = work(np, min, max)
			wg.Done()
		}(np)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			err = e
			return
		}
	}
	return
}
