// Package workers runs the client's periodic background jobs.
//
// A [Worker] blocks until its context ends. [Workers] starts all of them
// together and waits for every one to return.
package workers

import (
	"context"
	"time"
)

// Worker is a background job bound to the lifetime of ctx.
type Worker interface {
	Run(ctx context.Context)
}

// Reaper is the part of the engine the verification reaper drives.
type Reaper interface {
	// ReapVerifications expires stale verifications and forgets reported
	// outcomes. It returns how many verifications were dropped.
	ReapVerifications(now time.Time) int
}
