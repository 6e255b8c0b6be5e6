package server

import "context"

// Server defines the common lifecycle contract for transport servers managed
// by this package.
type Server interface {
	// RunServer starts serving in the background. It returns an error when
	// the listening socket cannot be opened.
	RunServer() error

	// Shutdown gracefully stops the server within ctx and frees its
	// resources.
	Shutdown(ctx context.Context)
}
