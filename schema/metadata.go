package schema

// ServerMetadata describes the server answering the handshake.
type ServerMetadata struct {
	ServerName        string   `json:"server_name"`
	ServerVersion     string   `json:"server_version"`
	ClusterName       string   `json:"cluster_name"`
	InstanceID        string   `json:"instance_id"`
	LoginRequired     bool     `json:"login_required"`
	LoginFields       []string `json:"login_fields,omitempty"`
	LoginSecretFields []string `json:"login_secret_fields,omitempty"`
}

// SessionMetadata identifies the session created by a successful login.
type SessionMetadata struct {
	ID          string `json:"id"`
	SessionName string `json:"session_name"`
}
