package client

import "fmt"

// Pool is a fixed-size set of Clients shared by concurrent callers,
// handed out one at a time via a buffered-channel semaphore — the same
// shape pkg/registry's workerPool uses to bound concurrent index
// operations, applied here to bound concurrent connections instead of
// CPU work.
type Pool struct {
	clients chan *Client
}

// NewPool dials size connections using dial and returns a Pool ready for
// concurrent use. If dial fails partway through, every connection opened
// so far is closed before the error is returned.
func NewPool(size int, dial func() (*Client, error)) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	clients := make(chan *Client, size)
	for i := 0; i < size; i++ {
		cl, err := dial()
		if err != nil {
			close(clients)
			for leftover := range clients {
				leftover.Close()
			}
			return nil, fmt.Errorf("client: pool: dial connection %d: %w", i, err)
		}
		clients <- cl
	}
	return &Pool{clients: clients}, nil
}

// Use borrows a Client, runs fn against it, and returns it to the pool.
// It blocks until a Client is available.
func (p *Pool) Use(fn func(cl *Client) error) error {
	cl := <-p.clients
	defer func() { p.clients <- cl }()
	return fn(cl)
}

// Close closes every connection in the pool. Use must not be called
// concurrently with Close.
func (p *Pool) Close() error {
	close(p.clients)
	var firstErr error
	for cl := range p.clients {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
