//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/voice-assistant/internal/service/session"
)

// DetectActor gathers host and user information sent when opening a session.
func DetectActor() (session.Peer, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return session.Peer{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return session.Peer{}, fmt.Errorf("current user: %w", err)
	}

	return session.Peer{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
