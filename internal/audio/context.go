package audio

import (
	"fmt"
	"sync"
	"time"
)

// Sink consumes paced PCM frames for delivery (e.g. WebSocket frames to the
// browser). Implementations should be fast; frames arrive on a pacer tick.
type Sink interface {
	WritePCM(pcm []byte, sampleRate int)
}

// Context is a playback context bound to a single sample rate, mirroring the
// one-context-at-a-time policy of browser audio playback: callers recreate it
// (closing the old one) whenever the required sample rate changes. It paces
// raw s16le PCM to its sink in 20ms frames.
type Context struct {
	sampleRate int
	sink       Sink

	bufMu     sync.Mutex
	pcmBuf    []byte
	frames    chan []byte
	stopCh    chan struct{}
	stopOnce  sync.Once
	suspended bool
	suspMu    sync.Mutex

	frameBytes int
}

// NewContext constructs a playback context for the given sample rate. The
// context starts suspended; Resume must be called before playback, matching
// the user-gesture requirement of the client runtime.
func NewContext(sampleRate int, sink Sink) (*Context, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d", sampleRate)
	}
	c := &Context{
		sampleRate: sampleRate,
		sink:       sink,
		frames:     make(chan []byte, 512),
		stopCh:     make(chan struct{}),
		suspended:  true,
		// 20ms of mono s16le
		frameBytes: sampleRate / 50 * 2,
	}
	go c.pacer()
	return c, nil
}

// SampleRate returns the rate this context was created for.
func (c *Context) SampleRate() int { return c.sampleRate }

// Suspended reports whether playback is currently suspended.
func (c *Context) Suspended() bool {
	c.suspMu.Lock()
	defer c.suspMu.Unlock()
	return c.suspended
}

// Resume lifts suspension so queued frames start flowing to the sink.
func (c *Context) Resume() {
	c.suspMu.Lock()
	c.suspended = false
	c.suspMu.Unlock()
}

// Play buffers PCM for paced delivery. Data must be s16le at the context's
// sample rate.
func (c *Context) Play(pcm []byte) {
	c.bufMu.Lock()
	c.pcmBuf = append(c.pcmBuf, pcm...)
	for len(c.pcmBuf) >= c.frameBytes {
		frame := make([]byte, c.frameBytes)
		copy(frame, c.pcmBuf[:c.frameBytes])
		c.pcmBuf = c.pcmBuf[c.frameBytes:]
		c.pushFrame(frame)
	}
	c.bufMu.Unlock()
}

// FlushTail pads any remaining PCM to a full frame so the clip tail is not
// dropped.
func (c *Context) FlushTail() {
	c.bufMu.Lock()
	if len(c.pcmBuf) > 0 {
		frame := make([]byte, c.frameBytes)
		copy(frame, c.pcmBuf)
		c.pcmBuf = c.pcmBuf[:0]
		c.pushFrame(frame)
	}
	c.bufMu.Unlock()
}

// Reset drops all queued audio immediately.
func (c *Context) Reset() {
	c.bufMu.Lock()
	c.pcmBuf = c.pcmBuf[:0]
	for {
		select {
		case <-c.frames:
		default:
			c.bufMu.Unlock()
			return
		}
	}
}

// Close stops the pacer. The context cannot be reused afterwards.
func (c *Context) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Context) pacer() {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if c.Suspended() {
				continue
			}
			select {
			case frame := <-c.frames:
				if c.sink != nil {
					c.sink.WritePCM(frame, c.sampleRate)
				}
			default:
			}
		}
	}
}

// pushFrame enqueues a frame, blocking until space is available or closed.
func (c *Context) pushFrame(frame []byte) {
	for {
		select {
		case <-c.stopCh:
			return
		case c.frames <- frame:
			return
		}
	}
}
