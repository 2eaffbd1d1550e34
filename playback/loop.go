package playback

import (
	"runtime"
	"time"

	"github.com/kinoray-player/kinoray/demux"
	"github.com/kinoray-player/kinoray/log"
	"github.com/kinoray-player/kinoray/sink"
	"github.com/kinoray-player/kinoray/state"
)

// Frames later than this behind the clock are dropped instead of rendered.
const lateFrameThreshold = -0.1

// loop is the decode/render worker. It runs on its own goroutine while the
// engine is Playing and exits when stop closes or the stream ends. It reads
// engine fields that are only mutated while it is not running; the A-B window
// and the mute flag have their own synchronization.
func (e *Engine) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		if win, ok := e.abWindow().Get(); ok && e.clk.Current() >= win.B {
			e.seekPending.Store(true)
			e.applySeek(win.A, e.opts.SeekDiscardWindow)
			e.seekPending.Store(false)
			continue
		}

		pkt, ok := e.src.ReadPacket()
		if !ok {
			e.clk.Pause()
			e.sm.TryTransition(state.Ended)
			e.emitPosition(true)
			return
		}

		switch pkt.StreamIndex {
		case e.videoIdx:
			if !e.handleVideoPacket(stop, pkt) {
				return
			}
		case e.audioIdx:
			e.handleAudioPacket(pkt)
			// Without video there is no frame pacing; hold decode roughly a
			// second ahead of the clock so the sample queue stays bounded.
			if e.vdec == nil && e.adec != nil && e.adec.PTS()-e.clk.Current() > 1 {
				if !e.sleepFor(stop, 100*time.Millisecond) {
					return
				}
			}
		}

		e.emitPosition(false)
	}
}

// handleVideoPacket decodes and renders every frame the packet yields, pacing
// each one against the clock. Returns false when the worker was told to stop
// mid-sleep.
func (e *Engine) handleVideoPacket(stop <-chan struct{}, pkt demux.Packet) bool {
	if err := e.vdec.SendPacket(pkt); err != nil {
		log.Debugf("playback: video packet rejected: %v", err)
		return true
	}
	for {
		f, err := e.vdec.ReceiveFrame()
		if err != nil {
			log.Warnf("playback: video decode: %v", err)
			e.emitError(newError(KindDecoding, e.src.Media().Path, err))
			return true
		}
		if f == nil {
			return true
		}

		delay := f.PTS - e.clk.Current()
		if delay < lateFrameThreshold {
			continue // too late, resynchronize by skipping
		}
		if delay > 0 && delay < 1 {
			wait := time.Duration(delay / e.clk.Speed() * float64(time.Second))
			if !e.sleepFor(stop, wait) {
				return false
			}
		}
		e.render(f)
	}
}

// handleAudioPacket decodes and pushes samples to the audio sink. Audio is
// never paced here; the sink's own clock governs its timing.
func (e *Engine) handleAudioPacket(pkt demux.Packet) {
	if e.adec == nil {
		return
	}
	if err := e.adec.SendPacket(pkt); err != nil {
		log.Debugf("playback: audio packet rejected: %v", err)
		return
	}
	for {
		samples, err := e.adec.ReceiveSamples()
		if err != nil {
			log.Warnf("playback: audio decode: %v", err)
			return
		}
		if samples == nil {
			return
		}
		if e.muteAudio.Load() {
			continue
		}
		if err := e.opts.Audio.Write(samples); err != nil {
			log.Warnf("playback: audio sink: %v", err)
			return
		}
	}
}

func (e *Engine) render(f *sink.Frame) {
	if err := e.opts.Video.Render(f); err != nil {
		log.Warnf("playback: render: %v", err)
		e.emitError(newError(KindRendering, e.src.Media().Path, err))
	}
}

// sleepFor pauses the worker for d: a coarse timer wait followed by a fine
// spin for the last moments, both responsive to the stop channel. Returns
// false when stopped mid-wait.
func (e *Engine) sleepFor(stop <-chan struct{}, d time.Duration) bool {
	deadline := time.Now().Add(d)

	if coarse := d - 2*time.Millisecond; coarse > 0 {
		select {
		case <-stop:
			return false
		case <-time.After(coarse):
		}
	}

	for time.Now().Before(deadline) {
		select {
		case <-stop:
			return false
		default:
			runtime.Gosched()
		}
	}
	return true
}
