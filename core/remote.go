package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"pkt.systems/hconsole/internal/correlate"
	"pkt.systems/hconsole/internal/logx"
	"pkt.systems/hconsole/internal/progress"
	"pkt.systems/hconsole/internal/theme"
	"pkt.systems/hconsole/schema"
)

const (
	labelEvaluate = "Evaluating query..."
	labelExecute  = "Executing %s..."
	labelLogin    = "Signing in..."
)

// Remote performs request/response round trips through a Correlator while a
// spinner reports progress. It implements shell.Remote.
type Remote struct {
	corr    *correlate.Correlator
	session *Session
	out     io.Writer
	theme   *theme.Theme
	tick    time.Duration
}

// NewRemote binds a Remote to corr, drawing progress on out.
func NewRemote(corr *correlate.Correlator, session *Session, out io.Writer, th *theme.Theme) *Remote {
	return &Remote{corr: corr, session: session, out: out, theme: th}
}

// Evaluate sends q for evaluation and returns the decoded result.
func (r *Remote) Evaluate(ctx context.Context, q *schema.Queryable, timeout time.Duration) (any, error) {
	req := schema.Request{Kind: schema.KindEvaluate, Query: q}
	return r.roundTrip(ctx, labelEvaluate, req, timeout, func(v any) string {
		if rows, ok := v.([]any); ok {
			return fmt.Sprintf("Result set size: %d", len(rows))
		}
		return "Result set size: 1"
	})
}

// Execute runs the named remote command and returns its decoded value.
func (r *Remote) Execute(ctx context.Context, name string, params []any, timeout time.Duration) (any, error) {
	req := schema.Request{Kind: schema.KindExecute, Command: name, Parameters: params}
	return r.roundTrip(ctx, fmt.Sprintf(labelExecute, name), req, timeout, nil)
}

// Login submits the login fields and records the session on success.
func (r *Remote) Login(ctx context.Context, fields map[string]string, timeout time.Duration) (schema.SessionMetadata, error) {
	req := schema.Request{Kind: schema.KindLogin, Login: fields}
	var info schema.SessionMetadata
	_, err := r.roundTripRaw(ctx, labelLogin, req, timeout, func(resp schema.Response) (any, string, error) {
		if err := resp.DecodeValue(&info); err != nil {
			return nil, "", fmt.Errorf("decode session: %w", err)
		}
		return info, "Welcome " + info.SessionName, nil
	})
	if err != nil {
		return schema.SessionMetadata{}, err
	}
	if r.session != nil {
		r.session.SetLogin(info)
	}
	return info, nil
}

// Metadata fetches the server description without drawing progress; the
// caller is expected to be inside a spinner already.
func (r *Remote) Metadata(ctx context.Context) (schema.ServerMetadata, error) {
	resp, err := r.call(ctx, schema.Request{ID: uuid.New(), Kind: schema.KindGetMetadata})
	if err != nil {
		return schema.ServerMetadata{}, err
	}
	var meta schema.ServerMetadata
	if err := resp.DecodeValue(&meta); err != nil {
		return schema.ServerMetadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	if r.session != nil {
		r.session.SetServer(meta)
	}
	return meta, nil
}

func (r *Remote) roundTrip(ctx context.Context, label string, req schema.Request, timeout time.Duration, summarize func(any) string) (any, error) {
	return r.roundTripRaw(ctx, label, req, timeout, func(resp schema.Response) (any, string, error) {
		var value any
		if err := resp.DecodeValue(&value); err != nil {
			return nil, "", fmt.Errorf("decode result: %w", err)
		}
		msg := ""
		if summarize != nil {
			msg = summarize(value)
		}
		return value, msg, nil
	})
}

func (r *Remote) roundTripRaw(ctx context.Context, label string, req schema.Request, timeout time.Duration, decode func(schema.Response) (any, string, error)) (any, error) {
	req.ID = uuid.New()
	log := logx.WithRequest(logx.Ctx(ctx), req.ID)
	values := make(chan any, 1)
	spinner := progress.New(r.out, label, timeout, progress.Options{Theme: r.theme, Tick: r.tick})
	res := spinner.Run(ctx, func(ctx context.Context) (string, error) {
		resp, err := r.call(ctx, req)
		if err != nil {
			return "", err
		}
		value, msg, err := decode(resp)
		if err != nil {
			return "", err
		}
		values <- value
		return msg, nil
	})
	switch res.Outcome {
	case progress.Done:
		log.Debug("remote round trip done", "kind", req.Kind, "elapsed_ms", res.Elapsed.Milliseconds())
		return <-values, nil
	case progress.Timeout:
		log.Info("remote round trip timed out", "kind", req.Kind, "timeout_ms", timeout.Milliseconds())
		return nil, fmt.Errorf("%s: %w", req.Kind, schema.ErrTimeout)
	default:
		log.Debug("remote round trip failed", "kind", req.Kind, "err", res.Err)
		return nil, res.Err
	}
}

// call sends req and waits for its response. A wait that ends without a
// response abandons the id so a late reply is discarded.
func (r *Remote) call(ctx context.Context, req schema.Request) (schema.Response, error) {
	if r.session != nil && req.SessionID == "" {
		req.SessionID = r.session.ID()
	}
	id, err := r.corr.Send(ctx, req)
	if err != nil {
		return schema.Response{}, err
	}
	resp, err := r.corr.Result(ctx, id)
	if err != nil {
		r.corr.Forget(id)
		return schema.Response{}, err
	}
	if err := resp.Err(); err != nil {
		return schema.Response{}, err
	}
	return resp, nil
}

// IsRemoteFailure reports whether err came from a failure response.
func IsRemoteFailure(err error) bool {
	var remote *schema.RemoteError
	return errors.As(err, &remote)
}
