package qr

import (
	"context"
	"errors"
	"sync"
)

// Source is a stream of decoded-text events from a scanner device. The
// camera is an exclusive resource: Acquire must succeed before Payloads is
// read, and Release must be called on every exit path (close, successful
// scan, navigation away, error). Release is idempotent.
type Source interface {
	Acquire(ctx context.Context) error
	Payloads() <-chan string
	Release()
}

// ErrSourceBusy is returned when a second Acquire is attempted while the
// device is still held.
var ErrSourceBusy = errors.New("qr: scanner source already acquired")

// Session drives a Source and applies the decoder to each distinct payload.
// A video feed re-emits the same code on every frame; the session remembers
// the last raw payload it accepted and suppresses duplicates so a code is
// handled once until a different code (or a Reset) arrives.
type Session struct {
	mu       sync.Mutex
	lastRaw  string
	accepted int
	rejected int
}

func NewSession() *Session {
	return &Session{}
}

// Offer feeds one raw payload to the session. It returns the extracted
// identifier and true exactly when the payload is new and decodable.
// Undecodable payloads are counted but do not update the duplicate
// suppression state, so scanning continues uninterrupted.
func (s *Session) Offer(raw string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw == s.lastRaw {
		return "", false
	}
	id, ok := Extract(raw)
	if !ok {
		s.rejected++
		return "", false
	}
	s.lastRaw = raw
	s.accepted++
	return id, true
}

// Reset clears the duplicate-suppression state, e.g. when the scan dialog
// is reopened and the same code should be accepted again.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRaw = ""
}

// Stats reports how many payloads were accepted and rejected.
func (s *Session) Stats() (accepted, rejected int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted, s.rejected
}

// Run acquires the source, feeds every emitted payload through the session,
// and invokes onScan for each accepted identifier. It returns when the
// context is cancelled, the source closes its stream, or onScan returns
// false (scan accepted, dialog closes). The source is released on every
// return path.
func (s *Session) Run(ctx context.Context, src Source, onScan func(id string) bool) error {
	if err := src.Acquire(ctx); err != nil {
		return err
	}
	defer src.Release()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, open := <-src.Payloads():
			if !open {
				return nil
			}
			id, ok := s.Offer(raw)
			if !ok {
				continue
			}
			if !onScan(id) {
				return nil
			}
		}
	}
}
