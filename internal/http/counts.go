package http

import "sync/atomic"

// runCounter tracks runs for the status endpoint.
type runCounter struct {
	inFlight  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

func (c *runCounter) start() {
	c.inFlight.Add(1)
}

func (c *runCounter) finish(err error) {
	c.inFlight.Add(-1)
	if err != nil {
		c.failed.Add(1)
		return
	}
	c.completed.Add(1)
}

func (c *runCounter) snapshot() RunCounts {
	return RunCounts{
		InFlight:  c.inFlight.Load(),
		Completed: c.completed.Load(),
		Failed:    c.failed.Load(),
	}
}
