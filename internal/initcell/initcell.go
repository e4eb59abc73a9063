// Package initcell provides a one-shot, concurrency-safe initialization
// cell: the first caller runs the initializer while concurrent first callers
// wait for that single in-flight run instead of racing to initialize twice.
// The outcome, success or failure, is memoized for the life of the cell.
package initcell

import "sync"

// Cell memoizes the result of a single initialization function.
// The zero value is ready to use.
type Cell[T any] struct {
	mu   sync.Mutex
	wg   sync.WaitGroup
	done bool
	busy bool
	val  T
	err  error
}

// Get returns the memoized value, running fn exactly once across all
// callers. Callers arriving while fn is in flight block until it finishes
// and then receive the same result, including a failure.
func (c *Cell[T]) Get(fn func() (T, error)) (T, error) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return c.val, c.err
	}
	if c.busy {
		c.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err
	}
	c.busy = true
	c.wg.Add(1)
	c.mu.Unlock()

	val, err := fn()

	c.mu.Lock()
	c.val, c.err = val, err
	c.done = true
	c.mu.Unlock()
	c.wg.Done()

	return val, err
}

// Done reports whether the cell has been initialized.
func (c *Cell[T]) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
