// Package server runs the optional diagnostics transports of the client.
//
// Both servers are started in the background by the client application and
// stopped gracefully when it exits. Unlike a standalone service, the client
// owns signal handling, so this package only exposes start and stop.
package server
