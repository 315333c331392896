package coordinator

import (
	"runtime"
	"sync"
)

// run executes fn(i) for i in [0,n) across a bounded pool of
// goroutines, blocking until every call completes. The Symbol Graph
// each fn closes over is read-only (spec.md §5), so concurrent calls
// need no synchronization of their own.
func run(n int, fn func(i int)) {
	if n == 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()
}
