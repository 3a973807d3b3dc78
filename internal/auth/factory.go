package auth

import (
	"fmt"
	"strings"
	"time"
)

// Provider modes.
const (
	ModeJWT    = "jwt"
	ModeRemote = "remote"
)

// Config selects and configures an IdentityProvider.
type Config struct {
	Mode    string
	Timeout time.Duration
	JWT     JWTConfig
	Remote  RemoteConfig
}

// NewIdentityProvider builds the provider named by cfg.Mode.
func NewIdentityProvider(cfg Config) (IdentityProvider, error) {
	switch strings.ToLower(cfg.Mode) {
	case ModeJWT, "":
		return NewJWTProvider(cfg.JWT)
	case ModeRemote:
		remote := cfg.Remote
		if remote.Timeout == 0 {
			remote.Timeout = cfg.Timeout
		}
		return NewRemoteProvider(remote)
	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.Mode)
	}
}
