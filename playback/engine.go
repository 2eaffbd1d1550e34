// Package playback implements the engine orchestrating the demux/decode/render
// pipeline: it owns the source, the decoders, the sinks, the virtual clock, and
// the mode state machine, runs the decode loop on a dedicated worker goroutine,
// and executes the two-phase seek protocol. Control operations run on the
// caller's goroutine and are safe to call while the worker is active. Host
// callbacks are delivered in order on a dedicated event goroutine.
package playback

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kinoray-player/kinoray/clock"
	"github.com/kinoray-player/kinoray/filesystem"
	"github.com/kinoray-player/kinoray/log"
	"github.com/kinoray-player/kinoray/mediainfo"
	"github.com/kinoray-player/kinoray/state"
	"github.com/kinoray-player/kinoray/util"
	"github.com/samber/mo"
)

// ABWindow is a bounded repeat region on the timeline, A <= B.
type ABWindow struct {
	A float64
	B float64
}

// Engine is the playback orchestrator. Construct with New, feed it a file with
// Open, drive it with Play/Pause/Seek/Stop.
type Engine struct {
	opts Options
	sm   *state.Machine
	clk  *clock.Clock

	// mu serializes control operations. The worker never takes it; everything
	// the worker reads is either immutable while it runs or separately guarded.
	mu   sync.Mutex
	src  Source
	vdec VideoDecoder
	adec AudioDecoder

	videoIdx int
	audioIdx int

	stop chan struct{}
	done chan struct{}

	seekPending    atomic.Bool
	muteAudio      atomic.Bool
	lastSeekAt     time.Time
	lastSeekTarget float64

	abMu   sync.Mutex
	abA    mo.Option[float64]
	abB    mo.Option[float64]
	window atomic.Value // holds mo.Option[ABWindow], read by the worker

	subtitlePath string

	events *eventQueue

	cbMu       sync.Mutex
	onPosition []func(float64)
	onError    []func(error)
	lastNotify time.Time
}

// New builds an engine around the given options. Nothing is opened yet.
func New(opts Options) *Engine {
	opts.normalize()
	e := &Engine{
		opts:     opts,
		sm:       state.NewMachine(),
		clk:      clock.New(),
		videoIdx: -1,
		audioIdx: -1,
		events:   newEventQueue(),
	}
	e.window.Store(mo.None[ABWindow]())
	return e
}

// OnStateChanged registers a callback fired once per applied state transition.
// Callbacks run on the engine's event goroutine, never under the control
// mutex, so they may call back into the engine freely.
func (e *Engine) OnStateChanged(f func(from, to state.State)) {
	e.sm.OnChange(func(from, to state.State) {
		e.events.post(func() { f(from, to) })
	})
}

// OnPositionChanged registers a callback for throttled position updates.
// Positions reflect the clock at emission time, not the latest rendered frame.
func (e *Engine) OnPositionChanged(f func(position float64)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onPosition = append(e.onPosition, f)
}

// OnError registers a callback receiving structured *Error values.
func (e *Engine) OnError(f func(err error)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onError = append(e.onError, f)
}

// State returns the live player mode.
func (e *Engine) State() state.State {
	return e.sm.Current()
}

// Position returns the current timeline position in seconds, clamped to the
// media duration.
func (e *Engine) Position() float64 {
	return util.Clamp(e.clk.Current(), 0, e.Duration())
}

// Duration returns the media duration in seconds, 0 when nothing is open.
func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return 0
	}
	return e.src.Media().Duration
}

// Media returns the open media's descriptor, nil when nothing is open.
func (e *Engine) Media() *mediainfo.Media {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return nil
	}
	return e.src.Media()
}

// SubtitlePath returns the autodetected companion subtitle file, empty when none.
func (e *Engine) SubtitlePath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subtitlePath
}

// Speed returns the clock's speed multiplier.
func (e *Engine) Speed() float64 {
	return e.clk.Speed()
}

// SetSpeed changes the clock speed without a timeline jump. Audio is muted
// while the speed is away from 1.0 when MuteScaledAudio is set, since the audio
// device plays at its own fixed rate and cannot follow the scaled clock.
func (e *Engine) SetSpeed(speed float64) error {
	if err := e.clk.SetSpeed(speed); err != nil {
		return err
	}
	e.muteAudio.Store(e.opts.MuteScaledAudio && speed != 1.0)
	return nil
}

// Open loads a media file, ending in Paused at the start (or a resumed
// position). Any prior playback is stopped first. Returns false and reports a
// structured error through OnError when the open fails; the engine is then in
// the Error state and Open may be called again.
func (e *Engine) Open(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.teardownLocked()
	e.sm.TryTransition(state.Loading)

	src, err := e.opts.OpenSource(path)
	if err != nil {
		return e.failLocked(classifyOpenError(path, err))
	}

	e.src = src
	e.videoIdx = src.VideoIndex()
	e.audioIdx = src.AudioIndex()

	if e.videoIdx >= 0 {
		vdec, err := src.OpenVideoDecoder(e.opts.PreferHWAccel)
		if err != nil {
			return e.failLocked(newError(KindCodecNotSupported, path, err))
		}
		e.vdec = vdec

		w, h := 1280, 720
		if vs, ok := src.Media().BestVideo().Get(); ok {
			w, h = vs.Width, vs.Height
		}
		if err := e.opts.Video.Init(w, h); err != nil {
			return e.failLocked(newError(KindRendering, path, err))
		}
	}

	if e.audioIdx >= 0 {
		e.openAudioLocked(path)
	}

	if e.vdec == nil && e.adec == nil {
		return e.failLocked(newError(KindInvalidFormat, path, nil))
	}

	if e.opts.SubtitleAutoload {
		e.subtitlePath = findSidecarSubtitle(path)
	}

	e.clk.Stop()
	if err := e.clk.SetSpeed(e.opts.Speed); err != nil {
		log.Warnf("playback: configured speed rejected: %v", err)
	}
	e.muteAudio.Store(e.opts.MuteScaledAudio && e.clk.Speed() != 1.0)
	e.lastSeekAt = time.Time{}
	e.lastSeekTarget = 0

	e.resumeLocked(path)

	e.sm.TryTransition(state.Paused)
	return true
}

// openAudioLocked initializes the audio decoder and sink. Any failure degrades
// to video-only playback instead of failing the open.
func (e *Engine) openAudioLocked(path string) {
	adec, err := e.src.OpenAudioDecoder()
	if err != nil {
		log.Warnf("playback: audio decoder unavailable, continuing video-only: %v", err)
		e.audioIdx = -1
		return
	}
	if err := e.opts.Audio.Init(); err != nil {
		log.Warnf("playback: audio sink unavailable, continuing video-only: %v", err)
		adec.Close()
		e.audioIdx = -1
		return
	}
	if err := e.opts.Audio.SetVolume(e.opts.Volume.OrElse(1.0)); err != nil {
		log.Warnf("playback: setting volume: %v", err)
	}
	e.adec = adec
}

// resumeLocked restores a saved position when it is far enough from both ends
// of the file for resuming to be worth it.
func (e *Engine) resumeLocked(path string) {
	if e.opts.Resume == nil {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	pos, ok := e.opts.Resume.LastPosition(abs).Get()
	if !ok {
		return
	}
	dur := e.src.Media().Duration
	if pos < e.opts.ResumeMinFromStart || dur-pos < e.opts.ResumeMinToEnd {
		return
	}
	e.applySeek(pos, e.opts.SeekDiscardWindow)
}

// Play starts or resumes playback. From Ended it restarts at position 0.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playLocked()
}

func (e *Engine) playLocked() {
	if e.src == nil || e.sm.Is(state.Playing) {
		return
	}

	if e.sm.Is(state.Ended) {
		e.applySeek(0, e.opts.SeekDiscardWindow)
	}

	if !e.sm.TryTransition(state.Playing) {
		return
	}

	e.clk.Start()
	if e.adec != nil {
		e.opts.Audio.Play()
	}
	e.startWorkerLocked()
}

// Pause freezes playback, keeping everything loaded, and writes the position
// back to the resume store.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked()
}

func (e *Engine) pauseLocked() {
	if !e.sm.Is(state.Playing) && !e.sm.Is(state.Buffering) {
		return
	}
	e.stopWorkerLocked()
	if e.sm.TryTransition(state.Paused) {
		e.clk.Pause()
		if e.adec != nil {
			e.opts.Audio.Pause()
		}
		e.persistPositionLocked()
	}
}

// TogglePlayPause flips between Playing and Paused.
func (e *Engine) TogglePlayPause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sm.Is(state.Playing) {
		e.pauseLocked()
	} else {
		e.playLocked()
	}
}

// Stop halts playback, persists the position, and disposes the pipeline.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.teardownLocked()
}

func (e *Engine) teardownLocked() {
	if e.src == nil {
		return
	}
	e.stopWorkerLocked()
	e.persistPositionLocked()
	e.sm.TryTransition(state.Stopped)
	e.clk.Stop()

	if e.adec != nil {
		e.opts.Audio.Stop()
		e.adec.Close()
		e.adec = nil
	}
	if e.vdec != nil {
		e.opts.Video.Clear()
		e.vdec.Close()
		e.vdec = nil
	}
	e.src.Close()
	e.src = nil
	e.videoIdx, e.audioIdx = -1, -1
	e.subtitlePath = ""
	e.clearABLocked()
}

// ResetToStart rewinds to position 0 without disposing any resources, ending
// in Paused. Used when a logically playing unit must visually rewind.
func (e *Engine) ResetToStart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return
	}
	e.stopWorkerLocked()
	e.clk.Pause()
	if e.adec != nil {
		e.opts.Audio.Pause()
	}
	e.applySeek(0, e.opts.SeekDiscardWindow)
	e.sm.ForceState(state.Paused)
}

// Close stops playback and releases the sinks. The engine is unusable after.
func (e *Engine) Close() {
	e.Stop()
	e.opts.Video.Close()
	e.opts.Audio.Close()
	e.events.close()
}

// persistPositionLocked writes the current position to the resume store.
func (e *Engine) persistPositionLocked() {
	if e.opts.Resume == nil || e.src == nil {
		return
	}
	media := e.src.Media()
	abs, err := filepath.Abs(media.Path)
	if err != nil {
		abs = media.Path
	}
	pos := util.Clamp(e.clk.Current(), 0, media.Duration)
	if err := e.opts.Resume.SavePosition(abs, pos, media.Duration); err != nil {
		log.Warnf("playback: persisting position: %v", err)
	}
}

// failLocked reports a structured error, disposes anything half-opened, and
// moves the engine to the Error state.
func (e *Engine) failLocked(err *Error) bool {
	log.Errorf("playback: %v", err)
	if e.adec != nil {
		e.adec.Close()
		e.adec = nil
	}
	if e.vdec != nil {
		e.vdec.Close()
		e.vdec = nil
	}
	if e.src != nil {
		e.src.Close()
		e.src = nil
	}
	e.videoIdx, e.audioIdx = -1, -1
	e.sm.TryTransition(state.Error)
	e.emitError(err)
	return false
}

func (e *Engine) emitError(err error) {
	e.cbMu.Lock()
	callbacks := make([]func(error), len(e.onError))
	copy(callbacks, e.onError)
	e.cbMu.Unlock()
	e.events.post(func() {
		for _, f := range callbacks {
			f(err)
		}
	})
}

// emitPosition notifies observers, throttled to the configured rate unless
// force is set (seeks and end-of-stream notify immediately).
func (e *Engine) emitPosition(force bool) {
	interval := time.Second / time.Duration(e.opts.PositionNotifyRate)

	e.cbMu.Lock()
	if !force && time.Since(e.lastNotify) < interval {
		e.cbMu.Unlock()
		return
	}
	e.lastNotify = time.Now()
	callbacks := make([]func(float64), len(e.onPosition))
	copy(callbacks, e.onPosition)
	e.cbMu.Unlock()

	pos := e.clk.Current()
	e.events.post(func() {
		for _, f := range callbacks {
			f(pos)
		}
	})
}

// startWorkerLocked launches the decode loop goroutine.
func (e *Engine) startWorkerLocked() {
	if e.stop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	e.stop = stop
	e.done = done
	go e.loop(stop, done)
}

// stopWorkerLocked signals the worker and waits for it to exit. The worker
// checks the channel every iteration, so this returns promptly.
func (e *Engine) stopWorkerLocked() {
	if e.stop == nil {
		return
	}
	close(e.stop)
	<-e.done
	e.stop = nil
	e.done = nil
}

// findSidecarSubtitle looks for a companion subtitle file sharing the media
// file's stem.
func findSidecarSubtitle(path string) string {
	stem := path[:len(path)-len(filepath.Ext(path))]
	for _, ext := range []string{".srt", ".ass", ".ssa", ".sub", ".vtt"} {
		candidate := stem + ext
		if exists, err := filesystem.API().Exists(candidate); err == nil && exists {
			return candidate
		}
	}
	return ""
}
