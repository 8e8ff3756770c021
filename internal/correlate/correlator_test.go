package correlate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"pkt.systems/hconsole/schema"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []schema.Request
	err  error
}

func (r *recordingSender) Send(_ context.Context, req schema.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, req)
	return nil
}

func newTestCorrelator() (*Correlator, *recordingSender) {
	sender := &recordingSender{}
	return New(sender, Options{Recheck: 10 * time.Millisecond}), sender
}

func TestSendStampsRequest(t *testing.T) {
	c, sender := newTestCorrelator()
	id, err := c.Send(context.Background(), schema.Request{Kind: schema.KindExecute, Command: "ping"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id == uuid.Nil {
		t.Fatalf("expected generated id")
	}
	if len(sender.sent) != 1 || sender.sent[0].ID != id || sender.sent[0].Timestamp == 0 {
		t.Fatalf("unexpected sent requests %#v", sender.sent)
	}
}

func TestSendWrapsTransportError(t *testing.T) {
	c, sender := newTestCorrelator()
	sender.err = schema.ErrNotConnected
	if _, err := c.Send(context.Background(), schema.Request{Kind: schema.KindExecute}); !errors.Is(err, schema.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestResultReturnsDeliveredResponseOnce(t *testing.T) {
	c, _ := newTestCorrelator()
	id := uuid.New()
	done := make(chan schema.Response, 1)
	go func() {
		resp, err := c.Result(context.Background(), id)
		if err != nil {
			t.Errorf("result: %v", err)
		}
		done <- resp
	}()
	time.Sleep(20 * time.Millisecond)
	c.Deliver(schema.Response{ID: id, Value: json.RawMessage(`"pong"`)})
	select {
	case resp := <-done:
		if string(resp.Value) != `"pong"` {
			t.Fatalf("unexpected value %s", resp.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("result never returned")
	}
	if c.Pending() != 0 {
		t.Fatalf("expected table to be empty, got %d", c.Pending())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Result(ctx, id); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second result to block until deadline, got %v", err)
	}
}

func TestResultMatchesByIDNotOrder(t *testing.T) {
	c, _ := newTestCorrelator()
	first, second := uuid.New(), uuid.New()
	c.Deliver(schema.Response{ID: second, Value: json.RawMessage(`2`)})
	c.Deliver(schema.Response{ID: first, Value: json.RawMessage(`1`)})

	resp, err := c.Result(context.Background(), first)
	if err != nil || string(resp.Value) != "1" {
		t.Fatalf("expected first response, got %s (%v)", resp.Value, err)
	}
	resp, err = c.Result(context.Background(), second)
	if err != nil || string(resp.Value) != "2" {
		t.Fatalf("expected second response, got %s (%v)", resp.Value, err)
	}
}

func TestResultUnblocksOnCancel(t *testing.T) {
	c := New(&recordingSender{}, Options{Recheck: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Result(ctx, uuid.New())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancel did not unblock the waiter")
	}
}

func TestForgetDiscardsLateResponse(t *testing.T) {
	c, _ := newTestCorrelator()
	id := uuid.New()
	c.Forget(id)
	if c.Deliver(schema.Response{ID: id}) {
		t.Fatalf("expected late response to be discarded")
	}
	if c.Pending() != 0 {
		t.Fatalf("expected nothing stored, got %d", c.Pending())
	}
	if !c.Deliver(schema.Response{ID: id}) {
		t.Fatalf("expected abandonment to apply only once")
	}
	c.Forget(id)
	if c.Pending() != 0 {
		t.Fatalf("expected forget to drop stored response")
	}
}

func TestConcurrentWaiters(t *testing.T) {
	c, _ := newTestCorrelator()
	ids := make([]uuid.UUID, 20)
	for i := range ids {
		ids[i] = uuid.New()
	}
	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			resp, err := c.Result(ctx, id)
			if err == nil && resp.ID != id {
				err = errors.New("mismatched response")
			}
			errs <- err
		}(id)
	}
	for i := len(ids) - 1; i >= 0; i-- {
		c.Deliver(schema.Response{ID: ids[i]})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("waiter failed: %v", err)
		}
	}
}
