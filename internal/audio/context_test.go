package audio

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeSink struct{ writes int32 }

func (f *fakeSink) WritePCM(pcm []byte, sampleRate int) { atomic.AddInt32(&f.writes, 1) }

func TestContext_SuspendedUntilResume(t *testing.T) {
	sink := &fakeSink{}
	c, err := NewContext(24000, sink)
	if err != nil {
		t.Fatalf("new context: %v", err)
	}
	defer c.Close()

	// a full 20ms frame at 24kHz mono is 960 bytes
	c.Play(make([]byte, 2000))
	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&sink.writes) != 0 {
		t.Fatalf("sink written while suspended")
	}

	c.Resume()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) && atomic.LoadInt32(&sink.writes) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&sink.writes) == 0 {
		t.Fatalf("expected paced writes after resume")
	}
}

func TestContext_FlushTailPadsPartialFrame(t *testing.T) {
	sink := &fakeSink{}
	c, err := NewContext(24000, sink)
	if err != nil {
		t.Fatalf("new context: %v", err)
	}
	defer c.Close()
	c.Resume()

	// less than one frame; nothing flows until FlushTail pads it
	c.Play(make([]byte, 100))
	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&sink.writes) != 0 {
		t.Fatalf("partial frame written without flush")
	}
	c.FlushTail()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) && atomic.LoadInt32(&sink.writes) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&sink.writes) != 1 {
		t.Fatalf("expected exactly one padded frame, got %d", atomic.LoadInt32(&sink.writes))
	}
}

func TestContext_ResetDrainsQueue(t *testing.T) {
	sink := &fakeSink{}
	c, err := NewContext(24000, sink)
	if err != nil {
		t.Fatalf("new context: %v", err)
	}
	defer c.Close()

	c.Play(make([]byte, 10000))
	c.Reset()
	c.Resume()
	time.Sleep(80 * time.Millisecond)
	if atomic.LoadInt32(&sink.writes) != 0 {
		t.Fatalf("expected no writes after reset, got %d", atomic.LoadInt32(&sink.writes))
	}
}

func TestContext_InvalidSampleRate(t *testing.T) {
	if _, err := NewContext(0, nil); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}
