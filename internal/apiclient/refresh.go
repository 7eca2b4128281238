package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

var errRefreshAborted = fmt.Errorf("the session refresh was aborted")

type refreshResult struct {
	token string
	err   error
}

// RefreshCoordinator makes sure a single session refresh runs at a time. Callers that find a
// refresh in flight are queued and released in arrival order once it settles.
type RefreshCoordinator struct {
	lock       *sync.Mutex
	refreshing bool
	queue      []chan refreshResult
	credential string
}

// Refreshing reports whether a refresh is currently in flight.
func (c *RefreshCoordinator) Refreshing() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.refreshing
}

// Pending returns the number of callers waiting for the current refresh.
func (c *RefreshCoordinator) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.queue)
}

// Credential returns the default access token used when the session store has none.
func (c *RefreshCoordinator) Credential() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.credential
}

func (c *RefreshCoordinator) SetCredential(token string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.credential = token
}

// join either makes the caller the leader of a new refresh or queues it behind the one in flight.
func (c *RefreshCoordinator) join() (bool, <-chan refreshResult) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.refreshing {
		wait := make(chan refreshResult, 1)
		c.queue = append(c.queue, wait)
		return false, wait
	}
	c.refreshing = true
	return true, nil
}

// settle releases every queued caller in order and resets the coordinator.
func (c *RefreshCoordinator) settle(token string, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err == nil {
		c.credential = token
	}
	queue := c.queue
	c.queue = nil
	for _, wait := range queue {
		// buffered with room for exactly one result
		wait <- refreshResult{token: token, err: err}
	}
	c.refreshing = false
	slog.Debug("REFRESH COORDINATOR", "message", "refresh settled", "released", len(queue), "failed", err != nil)
}

// Refresh runs refresh unless another refresh is in flight, in which case it waits for that one
// and returns its outcome. A caller whose context ends stops waiting but keeps its queue slot.
func (c *RefreshCoordinator) Refresh(ctx context.Context, refresh func(context.Context) (string, error)) (string, error) {
	leader, wait := c.join()
	if !leader {
		select {
		case res := <-wait:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	token := ""
	err := errRefreshAborted
	defer func() { c.settle(token, err) }()
	// the refresh settles the whole queue, so it outlives the cancellation of the caller that runs it
	token, err = refresh(context.WithoutCancel(ctx))
	if err == nil && token == "" {
		err = fmt.Errorf("the refresh did not return an access token")
	}
	return token, err
}

func NewRefreshCoordinator() *RefreshCoordinator {
	return &RefreshCoordinator{lock: &sync.Mutex{}}
}
