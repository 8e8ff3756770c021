package correlate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pkt.systems/hconsole/schema"
	"pkt.systems/pslog"
)

// DefaultRecheck bounds how long a waiter sleeps without a wake signal.
const DefaultRecheck = time.Second

// Sender delivers a request to the remote side.
type Sender interface {
	Send(ctx context.Context, req schema.Request) error
}

// Options configures a Correlator.
type Options struct {
	Recheck time.Duration
	Logger  pslog.Logger
}

// Correlator matches inbound responses to outstanding requests by id.
type Correlator struct {
	sender  Sender
	recheck time.Duration
	log     pslog.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	results   map[uuid.UUID]schema.Response
	abandoned map[uuid.UUID]struct{}
}

// New constructs a Correlator sending through sender.
func New(sender Sender, opts Options) *Correlator {
	if opts.Recheck <= 0 {
		opts.Recheck = DefaultRecheck
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	c := &Correlator{
		sender:    sender,
		recheck:   opts.Recheck,
		log:       opts.Logger,
		results:   make(map[uuid.UUID]schema.Response),
		abandoned: make(map[uuid.UUID]struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send stamps req with an id and timestamp when missing and hands it to the
// sender. The returned id is what Result must be called with.
func (c *Correlator) Send(ctx context.Context, req schema.Request) (uuid.UUID, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Timestamp == 0 {
		req.Timestamp = time.Now().UnixMilli()
	}
	c.log.Debug("correlator send", "request_id", req.ID, "kind", req.Kind)
	if err := c.sender.Send(ctx, req); err != nil {
		return req.ID, fmt.Errorf("send %s: %w", req.Kind, err)
	}
	return req.ID, nil
}

// Deliver records an inbound response and wakes every waiter. Responses for
// forgotten ids are dropped and reported as false.
func (c *Correlator) Deliver(resp schema.Response) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.abandoned[resp.ID]; ok {
		delete(c.abandoned, resp.ID)
		c.log.Debug("correlator late response discarded", "request_id", resp.ID)
		return false
	}
	c.results[resp.ID] = resp
	c.cond.Broadcast()
	return true
}

// Result blocks until a response for id is recorded, then removes and returns
// it. Each id is consumed at most once; asking again blocks until ctx is done.
func (c *Correlator) Result(ctx context.Context, id uuid.UUID) (schema.Response, error) {
	stop := context.AfterFunc(ctx, c.wake)
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if resp, ok := c.results[id]; ok {
			delete(c.results, id)
			return resp, nil
		}
		if err := ctx.Err(); err != nil {
			return schema.Response{}, err
		}
		timer := time.AfterFunc(c.recheck, c.wake)
		c.cond.Wait()
		timer.Stop()
	}
}

// Forget abandons id: a stored response is dropped now and a late one will be
// discarded on arrival.
func (c *Correlator) Forget(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.results[id]; ok {
		delete(c.results, id)
		return
	}
	c.abandoned[id] = struct{}{}
}

// Pending reports how many responses are stored but not yet consumed.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func (c *Correlator) wake() {
	c.mu.Lock()
	c.cond.Broadcast()
	c.mu.Unlock()
}
