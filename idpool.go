package uthreads

import "container/heap"

// idHeap is a min-heap of free thread ids, guaranteeing spawn always
// hands out the smallest free id in [0, MaxThreads). Grounded on the
// original's std::priority_queue<int, vector<int>, greater<int>>.
type idHeap []int

func (h idHeap) Len() int            { return len(h) }
func (h idHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)         { *h = append(*h, x.(int)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// idPool allocates the smallest free id and reclaims ids on release.
type idPool struct {
	free idHeap
}

// newIDPool seeds the pool with every spawnable id in (MainThreadID,
// maxThreads); MainThreadID is permanently occupied by the main thread
// and never enters the free pool.
func newIDPool(maxThreads int) *idPool {
	p := &idPool{free: make(idHeap, 0, maxThreads-1)}
	for i := MainThreadID + 1; i < maxThreads; i++ {
		p.free = append(p.free, i)
	}
	heap.Init(&p.free)
	return p
}

// allocate pops and returns the smallest free id. ok is false if the pool
// is exhausted.
func (p *idPool) allocate() (id int, ok bool) {
	if p.free.Len() == 0 {
		return 0, false
	}
	return heap.Pop(&p.free).(int), true
}

// release returns id to the pool.
func (p *idPool) release(id int) {
	heap.Push(&p.free, id)
}
