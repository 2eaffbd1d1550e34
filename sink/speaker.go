package sink

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// OutputSampleRate is the fixed output rate every audio decoder resamples to,
// so the speaker never has to handle source format variability.
const OutputSampleRate = 48000

// Speaker plays interleaved stereo float samples through the beep speaker.
// Volume uses an exponential base-2 gain mapping, with full silence at 0.
type Speaker struct {
	queue  *sampleQueue
	ctrl   *beep.Ctrl
	volume *effects.Volume
	level  float64
}

// NewSpeaker returns an uninitialized speaker sink at full volume.
func NewSpeaker() *Speaker {
	return &Speaker{level: 1.0}
}

// Init opens the audio device and wires the queue -> pause control -> volume chain.
func (s *Speaker) Init() error {
	sr := beep.SampleRate(OutputSampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	s.queue = &sampleQueue{}
	s.ctrl = &beep.Ctrl{Streamer: s.queue, Paused: true}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2, Volume: 0}
	speaker.Play(s.volume)
	return nil
}

// Write appends interleaved stereo samples to the playback queue.
func (s *Speaker) Write(samples []float32) error {
	if s.queue == nil {
		return fmt.Errorf("speaker not initialized")
	}
	buf := make([][2]float64, len(samples)/2)
	for i := range buf {
		buf[i][0] = float64(samples[2*i])
		buf[i][1] = float64(samples[2*i+1])
	}
	speaker.Lock()
	s.queue.buf = append(s.queue.buf, buf...)
	speaker.Unlock()
	return nil
}

// Play resumes sample consumption.
func (s *Speaker) Play() {
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

// Pause suspends sample consumption without dropping buffered samples.
func (s *Speaker) Pause() {
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

// Stop suspends consumption and drops all buffered samples.
func (s *Speaker) Stop() {
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	s.queue.buf = nil
	speaker.Unlock()
}

// ClearBuffer drops all buffered samples; required after a seek so stale audio
// from the pre-seek position never reaches the device.
func (s *Speaker) ClearBuffer() {
	if s.queue == nil {
		return
	}
	speaker.Lock()
	s.queue.buf = nil
	speaker.Unlock()
}

// SetVolume maps 0.0-1.0 onto an exponential base-2 gain; 0 is fully silent.
func (s *Speaker) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume %.2f out of range [0, 1]", v)
	}
	s.level = v
	if s.volume == nil {
		return nil
	}
	speaker.Lock()
	s.volume.Silent = v == 0
	if v > 0 {
		s.volume.Volume = math.Log2(v)
	}
	speaker.Unlock()
	return nil
}

// Volume returns the current 0.0-1.0 volume level.
func (s *Speaker) Volume() float64 {
	return s.level
}

// Close tears down the audio device.
func (s *Speaker) Close() {
	speaker.Clear()
	speaker.Close()
}

// sampleQueue is a live beep.Streamer fed by Write. It never reports drain:
// when the queue underruns it emits silence so the stream stays open.
type sampleQueue struct {
	buf [][2]float64
}

func (q *sampleQueue) Stream(samples [][2]float64) (int, bool) {
	n := copy(samples, q.buf)
	q.buf = q.buf[n:]
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (q *sampleQueue) Err() error {
	return nil
}
