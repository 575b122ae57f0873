package potrol

import (
	"os"
	"os/user"
	"strings"

	"github.com/google/uuid"
)

// SessionIdentity names one process run for the reservation ledger: a random
// ID plus a human-readable owner label. Construct it once at startup and
// thread it into every ledger call.
type SessionIdentity struct {
	ID    string
	Owner string
}

// NewSessionIdentity generates a fresh session ID and derives the owner label
// from the current user and host.
func NewSessionIdentity() SessionIdentity {
	name := "user"
	if current, err := user.Current(); err == nil && current.Username != "" {
		name = current.Username
		// Strip a Windows DOMAIN\ prefix.
		if idx := strings.LastIndexByte(name, '\\'); idx >= 0 {
			name = name[idx+1:]
		}
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return SessionIdentity{
		ID:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		Owner: name + "@" + host,
	}
}
