package utils

import (
	"runtime"
	"sync"
)

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	if ParallelDegree > maxIndex {
		ParallelDegree = maxIndex
	}
	if ParallelDegree < 1 { // maxIndex == 0
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

// Split1D returns the half open range [min,max) of bucket n. Buckets differ
// in size by at most one, with the remainder spread over the low buckets.
func (pm *PartitionMap) Split1D(n int) (bucket [2]int) {
	var (
		size = pm.MaxIndex / pm.ParallelDegree
		rem  = pm.MaxIndex % pm.ParallelDegree
	)
	bucket[0] = n * size
	if n < rem {
		bucket[0] += n
	} else {
		bucket[0] += rem
	}
	bucket[1] = bucket[0] + size
	if n < rem {
		bucket[1]++
	}
	return
}

func (pm *PartitionMap) GetBucketRange(n int) (imin, imax int) {
	imin, imax = pm.Partitions[n][0], pm.Partitions[n][1]
	return
}

// ParallelFor runs work over [0,maxIndex) split across NumCPU workers. The
// work units must be independent - there is no synchronization beyond the
// final join.
func ParallelFor(maxIndex int, work func(imin, imax int)) {
	if maxIndex <= 0 {
		return
	}
	var (
		pm = NewPartitionMap(runtime.NumCPU(), maxIndex)
		wg sync.WaitGroup
	)
	for n := 0; n < pm.ParallelDegree; n++ {
		imin, imax := pm.GetBucketRange(n)
		wg.Add(1)
		go func(imin, imax int) {
			defer wg.Done()
			work(imin, imax)
		}(imin, imax)
	}
	wg.Wait()
}
