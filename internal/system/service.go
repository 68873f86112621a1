// Package system provides liveness (Ping) and version introspection.
package system

import "log"

// Info holds the compiled-in version and build strings.
type Info struct {
	Version string `json:"version"`
	Build   string `json:"build"`
}

// Service answers ping and version queries.
type Service struct {
	info Info
}

// New creates a system service.
// version and build are typically injected at link time via -ldflags.
func New(version, build string) *Service {
	return &Service{info: Info{Version: version, Build: build}}
}

// Ping echoes the request message back to the caller.
// A missing message is treated as a plain liveness probe and echoes "pong".
func (s *Service) Ping(msg string) string {
	if msg == "" {
		msg = "pong"
	}
	log.Printf("[system] Ping: %q", msg)
	return msg
}

// Version returns the compiled-in version and build strings.
func (s *Service) Version() Info {
	return s.info
}
