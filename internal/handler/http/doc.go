// Package http serves the local diagnostics API of the client.
//
// The API is read-only and meant for scripts and monitoring running next to
// the terminal: it reports the build version, the status of every account
// and the backpressure counters of the event dispatcher. Requests are traced
// and access-logged to the client log file.
package http
