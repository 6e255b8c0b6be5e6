// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package secret holds short-lived sensitive values (recovery keys,
// passwords, derived keys) outside the Go heap.
//
// A Buffer is an anonymous mmap region that is mlocked and excluded from
// core dumps. Close overwrites it with zeros before unmapping, so a secret
// never outlives the operation that needed it.
package secret

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	ErrEmptySecret = errors.New("secret: empty value")
	ErrClosed      = errors.New("secret: buffer closed")
)

// Buffer is a locked, zero-on-close byte region. It must not be copied.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// New maps size bytes of locked memory.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: size must be positive, got %d", size)
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}

	if err := unix.Mlock(data); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("secret: mlock: %w", err)
	}

	// MADV_DONTDUMP is unsupported on some kernels; the region stays locked either way.
	_ = unix.Madvise(data, unix.MADV_DONTDUMP)

	return &Buffer{data: data}, nil
}

// NewFromBytes moves source into a new Buffer and zeroes source.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, ErrEmptySecret
	}

	b, err := New(len(source))
	if err != nil {
		Zero(source)
		return nil, err
	}

	copy(b.data, source)
	Zero(source)

	return b, nil
}

// Use calls fn with the secret bytes while holding the buffer lock. fn must
// not retain the slice.
func (b *Buffer) Use(fn func(secret []byte) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	return fn(b.data)
}

// Len returns the secret length, zero once closed.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.data)
}

// Closed reports whether the buffer has been wiped.
func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}

// Close zeroes, unlocks and unmaps the region. It is idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	Zero(b.data)

	var err error
	if unlockErr := unix.Munlock(b.data); unlockErr != nil {
		err = fmt.Errorf("secret: munlock: %w", unlockErr)
	}
	if unmapErr := unix.Munmap(b.data); unmapErr != nil && err == nil {
		err = fmt.Errorf("secret: munmap: %w", unmapErr)
	}

	b.data = nil
	return err
}

// Zero overwrites p with zeros.
func Zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
