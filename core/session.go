package core

import (
	"fmt"
	"sync"

	"pkt.systems/hconsole/internal/version"
	"pkt.systems/hconsole/schema"
)

// GuestIdentity is shown in the prompt until a login succeeds.
const GuestIdentity = "guest"

// Session holds what the console learned about the server and the signed-in
// identity. It is shared between the handshake and the command loop.
type Session struct {
	mu       sync.RWMutex
	server   schema.ServerMetadata
	info     schema.SessionMetadata
	loggedIn bool
}

// SetServer records the server handshake.
func (s *Session) SetServer(meta schema.ServerMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.server = meta
}

// Server returns the recorded server metadata.
func (s *Session) Server() schema.ServerMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.server
}

// SetLogin records a successful login.
func (s *Session) SetLogin(info schema.SessionMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
	s.loggedIn = true
}

// ID returns the server session id, empty for guests.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.ID
}

// Identity is the name shown in the prompt.
func (s *Session) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loggedIn || s.info.SessionName == "" {
		return GuestIdentity
	}
	return s.info.SessionName
}

// Banner renders the head line describing the server.
func (s *Session) Banner() string {
	meta := s.Server()
	return fmt.Sprintf("Protocol Version: %s | Server: %s | Version: %s | Cluster: %s | Id: %s",
		version.ProtocolVersion, meta.ServerName, meta.ServerVersion, meta.ClusterName, meta.InstanceID)
}
