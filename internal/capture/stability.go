package capture

import (
	"log/slog"
	"sync"
	"time"
)

// FrameSource provides camera frames. Open acquires the camera; Close must
// release it. Preview returns a downscaled frame cheap enough to assess every
// tick; Snapshot returns a full-resolution frame for the final capture.
type FrameSource interface {
	Open() error
	Preview() (Frame, error)
	Snapshot() (Frame, error)
	Close() error
}

// Speaker voices short cues to the user.
type Speaker interface {
	Speak(text string)
}

// Haptics plays tactile cues.
type Haptics interface {
	Success()
	Error()
	Captured()
}

const (
	// DefaultTickInterval is how often the live preview is sampled.
	DefaultTickInterval = 600 * time.Millisecond

	// DefaultStabilityThreshold is the number of consecutive good previews
	// required for lock-on, roughly 4.8 seconds at the default interval.
	DefaultStabilityThreshold = 8

	// holdStillAfter is the counter value above which losing stability is
	// worth a spoken cue.
	holdStillAfter = 3
)

// Controller drives the lock-on state machine over quality verdicts. While
// running, it samples the preview on a fixed period; enough consecutive good
// frames trigger an automatic capture. A manual capture bypasses accumulation
// but not the final quality re-validation.
type Controller struct {
	source    FrameSource
	speaker   Speaker
	haptics   Haptics
	onCapture func(jpeg []byte)

	interval  time.Duration
	threshold int

	mu      sync.Mutex
	counter int

	stop chan struct{}
	done chan struct{}
}

// NewController creates a stopped controller. onCapture receives the JPEG
// payload of every validated capture.
func NewController(source FrameSource, speaker Speaker, haptics Haptics, onCapture func(jpeg []byte)) *Controller {
	return &Controller{
		source:    source,
		speaker:   speaker,
		haptics:   haptics,
		onCapture: onCapture,
		interval:  DefaultTickInterval,
		threshold: DefaultStabilityThreshold,
	}
}

// Start acquires the camera and begins sampling. It fails if the source
// cannot be opened, cueing the user before returning.
func (c *Controller) Start() error {
	if err := c.source.Open(); err != nil {
		c.haptics.Error()
		c.speaker.Speak("I can't see through your camera. Please check your settings.")
		return err
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run()
	return nil
}

// Stop halts sampling and releases the camera. Safe to call once per Start.
func (c *Controller) Stop() {
	close(c.stop)
	<-c.done
	if err := c.source.Close(); err != nil {
		slog.Warn("Failed to close frame source", "error", err)
	}
	c.mu.Lock()
	c.counter = 0
	c.mu.Unlock()
}

// run is the single sampling loop. Ticks never overlap: each assessment runs
// to completion before the next tick is taken, and missed ticks are dropped
// by the ticker.
func (c *Controller) run() {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick samples the preview and advances the stability counter.
func (c *Controller) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame, err := c.source.Preview()
	if err != nil {
		return
	}

	verdict := Assess(frame)
	if verdict.Quality == QualityGood {
		c.counter++
		if c.counter == 1 {
			c.haptics.Success()
			c.speaker.Speak("Document detected. Keep steady.")
		}
		if c.counter >= c.threshold {
			c.capture()
			c.counter = 0
		}
		return
	}

	if c.counter > holdStillAfter {
		c.speaker.Speak("Please hold still.")
	}
	c.counter = 0
}

// Capture triggers a manual capture, validated the same way as lock-on.
func (c *Controller) Capture() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capture()
	c.counter = 0
}

// capture grabs a full-resolution frame, re-validates it and emits the JPEG
// payload. Callers must hold c.mu.
func (c *Controller) capture() {
	frame, err := c.source.Snapshot()
	if err != nil {
		slog.Warn("Failed to take snapshot", "error", err)
		return
	}

	verdict := Assess(frame)
	if verdict.Quality != QualityGood {
		c.haptics.Error()
		c.speaker.Speak(RetryMessage(verdict.Issue))
		c.counter = 0
		return
	}

	data, err := frame.EncodeJPEG()
	if err != nil {
		slog.Error("Failed to encode capture", "error", err)
		return
	}

	c.haptics.Captured()
	c.onCapture(data)
}
