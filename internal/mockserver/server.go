// Package mockserver serves the console protocol over websocket with canned
// data. It backs the mock-server command and the transport tests.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pkt.systems/hconsole/internal/transport"
	"pkt.systems/hconsole/internal/version"
	"pkt.systems/hconsole/schema"
	"pkt.systems/pslog"
)

// DefaultRows is the number of synthetic rows an evaluate returns.
const DefaultRows = 12

// CommandDisconnect makes the server drop the connection, simulating a lost server.
const CommandDisconnect = "disconnect"

// Options configures a Server.
type Options struct {
	Metadata schema.ServerMetadata
	// Users enables login when non-empty; keys are user names, values passwords.
	Users  map[string]string
	Rows   int
	Path   string
	Logger pslog.Logger
}

// Server answers console requests.
type Server struct {
	meta  schema.ServerMetadata
	users map[string]string
	rows  int
	path  string
	log   pslog.Logger
}

// New constructs a Server.
func New(opts Options) *Server {
	if opts.Rows <= 0 {
		opts.Rows = DefaultRows
	}
	if opts.Path == "" {
		opts.Path = transport.DefaultPath
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	meta := opts.Metadata
	if meta.ServerName == "" {
		meta.ServerName = "hconsole-mock"
	}
	if meta.ServerVersion == "" {
		meta.ServerVersion = version.Current()
	}
	if meta.ClusterName == "" {
		meta.ClusterName = "local"
	}
	if meta.InstanceID == "" {
		meta.InstanceID = uuid.NewString()
	}
	if len(opts.Users) > 0 {
		meta.LoginRequired = true
		if len(meta.LoginFields) == 0 {
			meta.LoginFields = []string{"user"}
		}
		if len(meta.LoginSecretFields) == 0 {
			meta.LoginSecretFields = []string{"password"}
		}
	}
	return &Server{meta: meta, users: opts.Users, rows: opts.Rows, path: opts.Path, log: opts.Logger}
}

// Handler returns an http.Handler serving the console endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.serveConsole)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.log.Info("mock server listening", "addr", ln.Addr().String(), "path", s.path, "login", s.meta.LoginRequired)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) serveConsole(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("mock server accept failed", "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(transport.DefaultReadLimit)

	log := s.log.With("remote", r.RemoteAddr)
	log.Info("mock server client connected")
	g, ctx := errgroup.WithContext(r.Context())
	for {
		var req schema.Request
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				log.Debug("mock server read ended", "err", err)
			}
			break
		}
		if req.Kind == schema.KindExecute && req.Command == CommandDisconnect {
			log.Info("mock server disconnect requested")
			conn.Close(websocket.StatusGoingAway, "disconnect requested")
			_ = g.Wait()
			return
		}
		g.Go(func() error {
			resp := s.handle(ctx, req)
			if err := wsjson.Write(ctx, conn, resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Debug("mock server writer stopped", "err", err)
	}
	log.Info("mock server client disconnected")
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) handle(ctx context.Context, req schema.Request) schema.Response {
	s.log.Debug("mock server request", "request_id", req.ID, "kind", req.Kind, "command", req.Command)
	var (
		value any
		err   error
	)
	switch req.Kind {
	case schema.KindGetMetadata:
		value = s.meta
	case schema.KindLogin:
		value, err = s.login(req.Login)
	case schema.KindEvaluate:
		value, err = s.evaluate(req.Query)
	case schema.KindExecute:
		value, err = s.execute(ctx, req.Command, req.Parameters)
	default:
		err = &schema.RemoteError{Kind: "protocol", Message: fmt.Sprintf("unsupported message kind %q", req.Kind)}
	}
	return respond(req.ID, value, err)
}

func respond(id uuid.UUID, value any, err error) schema.Response {
	resp := schema.Response{ID: id}
	if err != nil {
		var remote *schema.RemoteError
		if errors.As(err, &remote) {
			resp.Failure = &schema.Failure{Kind: remote.Kind, Message: remote.Message}
		} else {
			resp.Failure = &schema.Failure{Kind: "internal", Message: err.Error()}
		}
		return resp
	}
	raw, err := json.Marshal(value)
	if err != nil {
		resp.Failure = &schema.Failure{Kind: "internal", Message: err.Error()}
		return resp
	}
	resp.Value = raw
	return resp
}

func (s *Server) login(fields map[string]string) (schema.SessionMetadata, error) {
	user := fields["user"]
	if len(s.users) > 0 {
		want, ok := s.users[user]
		if !ok || want != fields["password"] {
			return schema.SessionMetadata{}, &schema.RemoteError{Kind: "login", Message: "invalid credentials"}
		}
	}
	if user == "" {
		user = "guest"
	}
	return schema.SessionMetadata{ID: uuid.NewString(), SessionName: user}, nil
}

func (s *Server) evaluate(q *schema.Queryable) ([]map[string]any, error) {
	if q == nil || strings.TrimSpace(q.Query) == "" {
		return nil, &schema.RemoteError{Kind: "query", Message: "missing query"}
	}
	rows := make([]map[string]any, s.rows)
	for i := range rows {
		row := map[string]any{"id": i + 1, "name": fmt.Sprintf("row-%d", i+1)}
		if q.Parameterized {
			row["params"] = q.Parameters
		}
		rows[i] = row
	}
	return rows, nil
}

func (s *Server) execute(ctx context.Context, name string, params []any) (any, error) {
	switch name {
	case "fail":
		msg := "command failed"
		if len(params) > 0 {
			msg = fmt.Sprint(params...)
		}
		return nil, &schema.RemoteError{Kind: "execute", Message: msg}
	case "sleep":
		ms, ok := numberParam(params)
		if !ok || ms < 0 {
			return nil, &schema.RemoteError{Kind: "execute", Message: "sleep needs a duration in milliseconds"}
		}
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
			return fmt.Sprintf("slept %dms", ms), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	case "echo":
		return params, nil
	default:
		return map[string]any{"command": name, "parameters": params}, nil
	}
}

func numberParam(params []any) (int64, bool) {
	if len(params) != 1 {
		return 0, false
	}
	if f, ok := params[0].(float64); ok {
		return int64(f), true
	}
	return 0, false
}
