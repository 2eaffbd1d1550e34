package playback

import (
	"math"
	"time"

	"github.com/kinoray-player/kinoray/log"
	"github.com/kinoray-player/kinoray/state"
	"github.com/kinoray-player/kinoray/util"
	"github.com/samber/mo"
)

// Seek jumps to an absolute timeline position. It is safe to call from the
// control goroutine at any time, including while playing; the target is
// clamped to [0, duration]. Requests are dropped, not queued: a seek already
// in flight, a request within the throttle interval of the previous one, or a
// target within the coalesce distance of the last applied seek are ignored.
func (e *Engine) Seek(target float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekLocked(target)
}

// SeekRelative jumps by a signed offset from the current position.
func (e *Engine) SeekRelative(offset float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekLocked(e.clk.Current() + offset)
}

func (e *Engine) seekLocked(target float64) {
	if e.src == nil {
		return
	}
	if e.seekPending.Load() {
		return
	}

	target = util.Clamp(target, 0, e.src.Media().Duration)

	now := time.Now()
	if !e.lastSeekAt.IsZero() {
		if now.Sub(e.lastSeekAt) < e.opts.SeekThrottle {
			return
		}
		// Drag events hammer the same spot; a near-identical target right
		// after an applied seek is a duplicate, not a new intent.
		if now.Sub(e.lastSeekAt) < time.Second && math.Abs(target-e.lastSeekTarget) < e.opts.SeekCoalesce {
			return
		}
	}

	wasPlaying := e.sm.Is(state.Playing)
	if wasPlaying {
		e.stopWorkerLocked()
	}

	e.seekPending.Store(true)
	e.lastSeekAt = now
	e.lastSeekTarget = target
	e.applySeek(target, e.opts.SeekDiscardWindow)
	e.seekPending.Store(false)

	if wasPlaying {
		e.startWorkerLocked()
	}
}

// applySeek executes the blocking half of the seek protocol: a keyframe-biased
// container seek, a provisional clock seek, decoder flushes, then a bounded
// synchronous catch-up decode that renders the first frame inside the discard
// window and re-anchors the clock to that frame's actual presentation time.
// Callers either hold e.mu with the worker stopped, or are the worker itself.
func (e *Engine) applySeek(target, discardWindow float64) {
	if err := e.src.Seek(target); err != nil {
		log.Warnf("playback: container seek to %.2fs failed: %v", target, err)
	}

	e.clk.Seek(target)

	if e.vdec != nil {
		e.vdec.Flush()
	}
	if e.adec != nil {
		e.adec.Flush()
		e.opts.Audio.ClearBuffer()
	}

	if e.vdec != nil {
		e.catchUp(target, discardWindow)
	}
	e.emitPosition(true)
}

// catchUp decodes forward from the post-seek position until a frame at or
// after (target - discardWindow) appears, renders it, and re-anchors the
// clock. Container seeking is keyframe-granular; this is what makes a seek
// look frame-accurate. The packet budget bounds the blocking time.
func (e *Engine) catchUp(target, discardWindow float64) {
	for i := 0; i < e.opts.SeekPacketBudget; i++ {
		pkt, ok := e.src.ReadPacket()
		if !ok {
			return
		}
		if pkt.StreamIndex != e.videoIdx {
			continue
		}
		if err := e.vdec.SendPacket(pkt); err != nil {
			continue
		}
		for {
			f, err := e.vdec.ReceiveFrame()
			if err != nil || f == nil {
				break
			}
			if f.PTS < target-discardWindow {
				continue
			}
			e.render(f)
			e.clk.Seek(f.PTS)
			return
		}
	}
}

// StepFrame advances or rewinds by one frame while keeping the engine Paused.
// Forward decodes and renders exactly one frame; backward seeks to the
// previous frame's time with a tight discard window.
func (e *Engine) StepFrame(forward bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil || e.vdec == nil {
		return
	}
	if e.sm.Is(state.Playing) {
		e.pauseLocked()
	}

	dur := e.vdec.FrameDuration()
	if !forward {
		e.applySeek(math.Max(0, e.clk.Current()-dur), dur/2)
		return
	}

	for i := 0; i < e.opts.SeekPacketBudget; i++ {
		pkt, ok := e.src.ReadPacket()
		if !ok {
			return
		}
		if pkt.StreamIndex != e.videoIdx {
			continue
		}
		if err := e.vdec.SendPacket(pkt); err != nil {
			continue
		}
		f, err := e.vdec.ReceiveFrame()
		if err != nil || f == nil {
			continue
		}
		e.render(f)
		e.clk.Seek(f.PTS)
		e.emitPosition(true)
		return
	}
}

// ToggleABRepeat drives the A-B window lifecycle: the first toggle marks A at
// now, the second marks B (swapping when now precedes A), the third clears the
// window.
func (e *Engine) ToggleABRepeat(now float64) {
	e.abMu.Lock()
	defer e.abMu.Unlock()

	switch {
	case e.abA.IsAbsent():
		e.abA = mo.Some(now)
	case e.abB.IsAbsent():
		a := e.abA.MustGet()
		if now < a {
			a, now = now, a
		}
		e.abA = mo.Some(a)
		e.abB = mo.Some(now)
		e.window.Store(mo.Some(ABWindow{A: a, B: now}))
	default:
		e.abA = mo.None[float64]()
		e.abB = mo.None[float64]()
		e.window.Store(mo.None[ABWindow]())
	}
}

// ABWindow returns the active repeat window, present only once both points are set.
func (e *Engine) ABWindow() mo.Option[ABWindow] {
	return e.abWindow()
}

func (e *Engine) abWindow() mo.Option[ABWindow] {
	v, ok := e.window.Load().(mo.Option[ABWindow])
	if !ok {
		return mo.None[ABWindow]()
	}
	return v
}

func (e *Engine) clearABLocked() {
	e.abMu.Lock()
	defer e.abMu.Unlock()
	e.abA = mo.None[float64]()
	e.abB = mo.None[float64]()
	e.window.Store(mo.None[ABWindow]())
}
