package qr

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeSource implements Source over a buffered channel and records its
// acquire/release pairing.
type fakeSource struct {
	mu       sync.Mutex
	ch       chan string
	held     bool
	releases int
}

func newFakeSource(payloads ...string) *fakeSource {
	ch := make(chan string, len(payloads))
	for _, p := range payloads {
		ch <- p
	}
	close(ch)
	return &fakeSource{ch: ch}
}

func (f *fakeSource) Acquire(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held {
		return ErrSourceBusy
	}
	f.held = true
	return nil
}

func (f *fakeSource) Payloads() <-chan string { return f.ch }

func (f *fakeSource) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = false
	f.releases++
}

func TestSession_DuplicateSuppression(t *testing.T) {
	s := NewSession()

	id, ok := s.Offer(sampleUUID)
	if !ok || id != sampleUUID {
		t.Fatalf("first offer should accept, got %q ok=%v", id, ok)
	}
	if _, ok := s.Offer(sampleUUID); ok {
		t.Error("identical payload should be suppressed")
	}

	other := "00000000-0000-0000-0000-000000000001"
	if id, ok := s.Offer(other); !ok || id != other {
		t.Errorf("different payload should be accepted, got %q ok=%v", id, ok)
	}

	s.Reset()
	if _, ok := s.Offer(other); !ok {
		t.Error("after Reset the same payload should be accepted again")
	}
}

func TestSession_UndecodablePayloadDoesNotPoisonState(t *testing.T) {
	s := NewSession()
	if _, ok := s.Offer("garbage"); ok {
		t.Fatal("garbage should not decode")
	}
	// The next valid code must still get through.
	if _, ok := s.Offer(sampleUUID); !ok {
		t.Error("valid payload after garbage should be accepted")
	}
	accepted, rejected := s.Stats()
	if accepted != 1 || rejected != 1 {
		t.Errorf("stats = (%d,%d), want (1,1)", accepted, rejected)
	}
}

func TestSession_RunReleasesOnAcceptedScan(t *testing.T) {
	src := newFakeSource("noise", sampleUUID, sampleUUID)
	s := NewSession()

	var got string
	err := s.Run(context.Background(), src, func(id string) bool {
		got = id
		return false // dialog closes on first accepted scan
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sampleUUID {
		t.Errorf("scanned %q, want %q", got, sampleUUID)
	}
	if src.releases != 1 || src.held {
		t.Errorf("source must be released exactly once, releases=%d held=%v", src.releases, src.held)
	}
}

func TestSession_RunReleasesOnCancel(t *testing.T) {
	src := &fakeSource{ch: make(chan string)} // never emits
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- NewSession().Run(ctx, src, func(string) bool { return true })
	}()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if src.releases != 1 {
		t.Errorf("source released %d times, want 1", src.releases)
	}
}

func TestSession_RunReleasesOnStreamClose(t *testing.T) {
	src := newFakeSource() // empty, closed stream
	if err := NewSession().Run(context.Background(), src, func(string) bool { return true }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.releases != 1 {
		t.Errorf("source released %d times, want 1", src.releases)
	}
}

func TestSource_ExclusiveAcquire(t *testing.T) {
	src := newFakeSource()
	if err := src.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := src.Acquire(context.Background()); err != ErrSourceBusy {
		t.Errorf("second acquire = %v, want ErrSourceBusy", err)
	}
	src.Release()
	if err := src.Acquire(context.Background()); err != nil {
		t.Errorf("acquire after release = %v, want nil", err)
	}
}
