package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"pkt.systems/hconsole/internal/logx"
	"pkt.systems/hconsole/schema"
	"pkt.systems/pslog"
)

// DefaultPath is the websocket endpoint served by console servers.
const DefaultPath = "/console"

// DefaultReadLimit caps the size of a single inbound message.
const DefaultReadLimit int64 = 4 * 1024 * 1024

// Options configures Dial.
type Options struct {
	Path      string
	TLS       bool
	ReadLimit int64
	Logger    pslog.Logger
}

// Client is a websocket connection carrying one JSON message per frame.
type Client struct {
	conn      *websocket.Conn
	url       string
	log       pslog.Logger
	connected atomic.Bool
}

// URL builds the websocket address for host and port.
func URL(host string, port int, opts Options) string {
	scheme := "ws"
	if opts.TLS {
		scheme = "wss"
	}
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}
	u := url.URL{Scheme: scheme, Host: net.JoinHostPort(host, strconv.Itoa(port)), Path: path}
	return u.String()
}

// Dial connects to the console endpoint at host:port.
func Dial(ctx context.Context, host string, port int, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logx.WithTarget(ctx, host, port)
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}
	target := URL(host, port, opts)
	log.Debug("transport dial start", "url", target)
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		log.Debug("transport dial failed", "url", target, "err", err)
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	conn.SetReadLimit(opts.ReadLimit)
	c := &Client{conn: conn, url: target, log: log}
	c.connected.Store(true)
	log.Info("transport connected", "url", target)
	return c, nil
}

// Send writes req as a single JSON frame.
func (c *Client) Send(ctx context.Context, req schema.Request) error {
	if !c.Connected() {
		return schema.ErrNotConnected
	}
	if err := wsjson.Write(ctx, c.conn, req); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.connected.Store(false)
		return fmt.Errorf("%w: %v", schema.ErrConnectionLost, err)
	}
	logx.WithRequest(c.log, req.ID).Trace("transport sent", "kind", req.Kind)
	return nil
}

// Listen reads responses and hands each to deliver until ctx is done or the
// connection drops. A dropped connection returns schema.ErrConnectionLost.
func (c *Client) Listen(ctx context.Context, deliver func(schema.Response)) error {
	for {
		var resp schema.Response
		err := wsjson.Read(ctx, c.conn, &resp)
		if err != nil {
			c.connected.Store(false)
			if ctx.Err() != nil {
				return nil
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				c.log.Info("transport closed by server")
			} else {
				c.log.Warn("transport read failed", "err", err)
			}
			return fmt.Errorf("%w: %v", schema.ErrConnectionLost, err)
		}
		logx.WithRequest(c.log, resp.ID).Trace("transport received", "failed", resp.Failure != nil)
		deliver(resp)
	}
}

// Connected reports whether the connection is believed to be alive.
func (c *Client) Connected() bool {
	return c != nil && c.connected.Load()
}

// Close performs a normal websocket close.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.connected.Store(false)
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	if err != nil && !errors.Is(err, net.ErrClosed) {
		var ce websocket.CloseError
		if errors.As(err, &ce) {
			return nil
		}
		return err
	}
	return nil
}
