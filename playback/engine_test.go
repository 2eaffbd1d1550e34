package playback

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/kinoray-player/kinoray/demux"
	"github.com/kinoray-player/kinoray/mediainfo"
	"github.com/kinoray-player/kinoray/sink"
	"github.com/kinoray-player/kinoray/state"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeVideoDecoder turns each packet into one frame carrying the packet's pts.
type fakeVideoDecoder struct {
	mu      sync.Mutex
	frames  []*sink.Frame
	flushes int
}

func (d *fakeVideoDecoder) SendPacket(p demux.Packet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, &sink.Frame{Width: 640, Height: 360, PTS: p.Pts})
	return nil
}

func (d *fakeVideoDecoder) ReceiveFrame() (*sink.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.frames) == 0 {
		return nil, nil
	}
	f := d.frames[0]
	d.frames = d.frames[1:]
	return f, nil
}

func (d *fakeVideoDecoder) FrameDuration() float64 { return 0.04 }

func (d *fakeVideoDecoder) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = nil
	d.flushes++
}

func (d *fakeVideoDecoder) Close() {}

func (d *fakeVideoDecoder) flushCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

// fakeAudioDecoder yields a fixed-size sample block per packet.
type fakeAudioDecoder struct {
	mu      sync.Mutex
	pending [][]float32
	pts     float64
}

func (d *fakeAudioDecoder) SendPacket(p demux.Packet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, make([]float32, 192))
	d.pts = p.Pts
	return nil
}

func (d *fakeAudioDecoder) ReceiveSamples() ([]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return nil, nil
	}
	s := d.pending[0]
	d.pending = d.pending[1:]
	return s, nil
}

func (d *fakeAudioDecoder) PTS() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pts
}

func (d *fakeAudioDecoder) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = nil
}

func (d *fakeAudioDecoder) Close() {}

// fakeSource emits interleaved audio/video packets at 25fps and honors seeks
// with one-second keyframe granularity, like a real container does.
type fakeSource struct {
	mu        sync.Mutex
	media     *mediainfo.Media
	pos       float64
	audioNext bool
	seeks     []float64
	vdec      *fakeVideoDecoder
	adec      *fakeAudioDecoder

	openErr      error
	audioOpenErr error
	seekErr      error
}

func newFakeSource(duration float64) *fakeSource {
	return &fakeSource{
		media: &mediainfo.Media{
			Path:     "/media/sample.mkv",
			Format:   "mkv",
			Duration: duration,
			Video: []mediainfo.VideoStream{
				{Index: 0, Width: 640, Height: 360, FrameRate: mediainfo.Ratio{Num: 25, Den: 1}, Default: true},
			},
			Audio: []mediainfo.AudioStream{
				{Index: 1, SampleRate: 48000, Channels: 2, Default: true},
			},
		},
		vdec: &fakeVideoDecoder{},
		adec: &fakeAudioDecoder{},
	}
}

func (s *fakeSource) Media() *mediainfo.Media { return s.media }
func (s *fakeSource) VideoIndex() int         { return 0 }
func (s *fakeSource) AudioIndex() int         { return 1 }

func (s *fakeSource) OpenVideoDecoder(bool) (VideoDecoder, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.vdec, nil
}

func (s *fakeSource) OpenAudioDecoder() (AudioDecoder, error) {
	if s.audioOpenErr != nil {
		return nil, s.audioOpenErr
	}
	return s.adec, nil
}

func (s *fakeSource) ReadPacket() (demux.Packet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= s.media.Duration {
		return demux.Packet{}, false
	}
	pts := s.pos
	if s.audioNext {
		s.audioNext = false
		return demux.Packet{StreamIndex: 1, Pts: pts}, true
	}
	s.audioNext = true
	s.pos += 0.04
	return demux.Packet{StreamIndex: 0, Pts: pts}, true
}

func (s *fakeSource) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seekErr != nil {
		return s.seekErr
	}
	s.seeks = append(s.seeks, seconds)
	s.pos = math.Floor(seconds)
	s.audioNext = false
	return nil
}

func (s *fakeSource) Close() {}

func (s *fakeSource) seekTargets() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.seeks))
	copy(out, s.seeks)
	return out
}

func newTestEngine(src *fakeSource) (*Engine, *sink.NullVideo, *sink.NullAudio) {
	video := &sink.NullVideo{}
	audio := &sink.NullAudio{}
	e := New(Options{
		Video:      video,
		Audio:      audio,
		OpenSource: func(string) (Source, error) { return src, nil },
	})
	return e, video, audio
}

func TestEngineOpen(t *testing.T) {
	Convey("Given an engine over a 60 second file", t, func() {
		src := newFakeSource(60)
		e, video, _ := newTestEngine(src)

		Convey("Open ends in Paused with media exposed", func() {
			So(e.Open("/media/sample.mkv"), ShouldBeTrue)
			So(e.State(), ShouldEqual, state.Paused)
			So(e.Duration(), ShouldEqual, 60.0)
			So(e.Media().Format, ShouldEqual, "mkv")
			So(video.Inited(), ShouldBeTrue)
			e.Stop()
		})

		Convey("Opening a missing path reports FileNotFound and lands in Error", func() {
			errs := newErrorCapture()
			bad := New(Options{OpenSource: func(path string) (Source, error) {
				return nil, fmt.Errorf("opening %s: %w", path, fs.ErrNotExist)
			}})
			bad.OnError(errs.capture)
			So(bad.Open("/media/nope.mkv"), ShouldBeFalse)
			So(bad.State(), ShouldEqual, state.Error)

			var perr *Error
			So(errors.As(errs.wait(time.Second), &perr), ShouldBeTrue)
			So(perr.Kind, ShouldEqual, KindFileNotFound)
		})

		Convey("A failing video decoder reports CodecNotSupported", func() {
			src.openErr = errors.New("no decoder")
			errs := newErrorCapture()
			e.OnError(errs.capture)
			So(e.Open("/media/sample.mkv"), ShouldBeFalse)
			So(e.State(), ShouldEqual, state.Error)

			var perr *Error
			So(errors.As(errs.wait(time.Second), &perr), ShouldBeTrue)
			So(perr.Kind, ShouldEqual, KindCodecNotSupported)
		})
	})
}

func TestEnginePlayPause(t *testing.T) {
	Convey("Given an opened engine", t, func() {
		src := newFakeSource(60)
		e, video, audio := newTestEngine(src)
		So(e.Open("/media/sample.mkv"), ShouldBeTrue)
		Reset(e.Stop)

		Convey("Play advances the position roughly in real time", func() {
			e.Play()
			So(e.State(), ShouldEqual, state.Playing)
			time.Sleep(300 * time.Millisecond)
			e.Pause()
			pos := e.Position()
			So(pos, ShouldBeGreaterThan, 0.1)
			So(pos, ShouldBeLessThan, 0.8)
			So(video.LastPTS(), ShouldBeGreaterThan, 0)
			So(audio.Written, ShouldBeGreaterThan, 0)
		})

		Convey("Pause then Play resumes without a position jump", func() {
			e.Play()
			time.Sleep(150 * time.Millisecond)
			e.Pause()
			So(e.State(), ShouldEqual, state.Paused)
			p1 := e.Position()
			time.Sleep(100 * time.Millisecond)
			So(e.Position(), ShouldAlmostEqual, p1, 0.001)
			e.Play()
			So(e.Position(), ShouldAlmostEqual, p1, 0.05)
		})

		Convey("TogglePlayPause flips the state both ways", func() {
			e.TogglePlayPause()
			So(e.State(), ShouldEqual, state.Playing)
			e.TogglePlayPause()
			So(e.State(), ShouldEqual, state.Paused)
		})
	})
}

func TestEngineSeek(t *testing.T) {
	Convey("Given an opened engine", t, func() {
		src := newFakeSource(60)
		e, video, _ := newTestEngine(src)
		So(e.Open("/media/sample.mkv"), ShouldBeTrue)
		Reset(e.Stop)

		Convey("Seek renders a frame inside the discard window and re-anchors the clock", func() {
			e.Seek(30)
			pts := video.LastPTS()
			So(pts, ShouldBeGreaterThanOrEqualTo, 29.5)
			So(pts, ShouldBeLessThanOrEqualTo, 30.5)
			So(e.Position(), ShouldAlmostEqual, pts, 0.01)
			So(src.vdec.flushCount(), ShouldBeGreaterThan, 0)
		})

		Convey("Out-of-range targets clamp to the duration", func() {
			e.Seek(999)
			targets := src.seekTargets()
			So(targets[len(targets)-1], ShouldEqual, 60.0)
		})

		Convey("Two seeks to the same target in quick succession apply once", func() {
			e.Seek(30)
			time.Sleep(120 * time.Millisecond)
			e.Seek(30.1)
			So(len(src.seekTargets()), ShouldEqual, 1)
		})

		Convey("Requests inside the throttle interval are dropped", func() {
			e.Seek(10)
			e.Seek(40)
			So(len(src.seekTargets()), ShouldEqual, 1)
		})

		Convey("Distinct targets past the throttle interval both apply", func() {
			e.Seek(10)
			time.Sleep(150 * time.Millisecond)
			e.Seek(40)
			So(len(src.seekTargets()), ShouldEqual, 2)
		})

		Convey("A failing container seek is non-fatal", func() {
			errs := newErrorCapture()
			e.OnError(errs.capture)
			src.seekErr = errors.New("stream not seekable")
			e.Seek(30)
			So(e.State(), ShouldEqual, state.Paused)
			So(e.Position(), ShouldAlmostEqual, 30, 0.5)
			So(errs.wait(200*time.Millisecond), ShouldBeNil)

			e.Play()
			So(e.State(), ShouldEqual, state.Playing)
		})
	})
}

func TestEngineEndOfStream(t *testing.T) {
	Convey("Given an engine over a very short file", t, func() {
		src := newFakeSource(0.3)
		e, _, _ := newTestEngine(src)
		So(e.Open("/media/sample.mkv"), ShouldBeTrue)
		Reset(e.Stop)

		Convey("Reaching end of stream transitions to Ended", func() {
			e.Play()
			So(waitForState(e, state.Ended, 2*time.Second), ShouldBeTrue)

			Convey("and Play from Ended restarts at position zero", func() {
				e.Play()
				So(e.State(), ShouldEqual, state.Playing)
				targets := src.seekTargets()
				So(targets[len(targets)-1], ShouldEqual, 0.0)
				So(e.Position(), ShouldBeLessThan, 0.3)
			})
		})
	})
}

func TestEngineABRepeat(t *testing.T) {
	Convey("Given an opened engine with an A-B window", t, func() {
		src := newFakeSource(60)
		e, _, _ := newTestEngine(src)
		So(e.Open("/media/sample.mkv"), ShouldBeTrue)
		Reset(e.Stop)

		Convey("Two toggles arm the window, a third clears it", func() {
			e.ToggleABRepeat(10)
			So(e.ABWindow().IsAbsent(), ShouldBeTrue)
			e.ToggleABRepeat(20)
			win, ok := e.ABWindow().Get()
			So(ok, ShouldBeTrue)
			So(win.A, ShouldEqual, 10.0)
			So(win.B, ShouldEqual, 20.0)
			e.ToggleABRepeat(25)
			So(e.ABWindow().IsAbsent(), ShouldBeTrue)
		})

		Convey("Points given out of order are swapped", func() {
			e.ToggleABRepeat(20)
			e.ToggleABRepeat(10)
			win, _ := e.ABWindow().Get()
			So(win.A, ShouldEqual, 10.0)
			So(win.B, ShouldEqual, 20.0)
		})

		Convey("Crossing point B triggers exactly one seek back to A per pass", func() {
			e.ToggleABRepeat(0)
			e.ToggleABRepeat(0.25)
			e.Play()
			time.Sleep(350 * time.Millisecond)
			e.Pause()

			backSeeks := 0
			for _, t := range src.seekTargets() {
				if t == 0 {
					backSeeks++
				}
			}
			So(backSeeks, ShouldEqual, 1)
			So(e.Position(), ShouldBeLessThan, 0.25)
		})
	})
}

func TestEngineStepFrame(t *testing.T) {
	Convey("Given an opened, paused engine", t, func() {
		src := newFakeSource(60)
		e, video, _ := newTestEngine(src)
		So(e.Open("/media/sample.mkv"), ShouldBeTrue)
		Reset(e.Stop)

		Convey("Forward step renders exactly one frame and anchors to its pts", func() {
			e.StepFrame(true)
			So(video.RenderCount(), ShouldEqual, 1)
			So(e.State(), ShouldEqual, state.Paused)
			So(e.Position(), ShouldAlmostEqual, video.LastPTS(), 0.001)
		})

		Convey("Backward step lands one frame duration earlier", func() {
			e.Seek(30)
			before := e.Position()
			time.Sleep(150 * time.Millisecond)
			e.StepFrame(false)
			So(e.Position(), ShouldBeLessThan, before)
			So(before-e.Position(), ShouldBeLessThan, 0.1)
		})
	})
}

func TestEngineSpeed(t *testing.T) {
	Convey("Given an opened engine with scaled-audio muting", t, func() {
		src := newFakeSource(60)
		video := &sink.NullVideo{}
		audio := &sink.NullAudio{}
		e := New(Options{
			Video:           video,
			Audio:           audio,
			MuteScaledAudio: true,
			OpenSource:      func(string) (Source, error) { return src, nil },
		})
		So(e.Open("/media/sample.mkv"), ShouldBeTrue)
		Reset(e.Stop)

		Convey("SetSpeed rejects out-of-range multipliers", func() {
			So(e.SetSpeed(0.1), ShouldNotBeNil)
			So(e.SetSpeed(5.0), ShouldNotBeNil)
			So(e.SetSpeed(2.0), ShouldBeNil)
			So(e.Speed(), ShouldEqual, 2.0)
		})

		Convey("Audio is muted away from 1.0x and restored at 1.0x", func() {
			So(e.SetSpeed(2.0), ShouldBeNil)
			So(e.muteAudio.Load(), ShouldBeTrue)
			So(e.SetSpeed(1.0), ShouldBeNil)
			So(e.muteAudio.Load(), ShouldBeFalse)
		})
	})
}

func TestEngineStop(t *testing.T) {
	Convey("Given a playing engine with a resume store", t, func() {
		src := newFakeSource(60)
		store := &memResumeStore{positions: map[string]float64{}}
		video := &sink.NullVideo{}
		e := New(Options{
			Video:      video,
			Audio:      &sink.NullAudio{},
			Resume:     store,
			OpenSource: func(string) (Source, error) { return src, nil },
		})
		So(e.Open("/media/sample.mkv"), ShouldBeTrue)

		Convey("Stop persists the position and disposes the pipeline", func() {
			e.Seek(30)
			e.Stop()
			So(e.State(), ShouldEqual, state.Stopped)
			So(e.Media(), ShouldBeNil)
			So(e.Position(), ShouldEqual, 0.0)
			So(store.saved["/media/sample.mkv"], ShouldBeGreaterThanOrEqualTo, 29.5)
		})

		Convey("ResetToStart rewinds to zero without disposing", func() {
			e.Play()
			time.Sleep(100 * time.Millisecond)
			e.ResetToStart()
			So(e.State(), ShouldEqual, state.Paused)
			So(e.Position(), ShouldBeLessThan, 0.5)
			So(e.Media(), ShouldNotBeNil)
			e.Stop()
		})
	})
}

func TestEngineResume(t *testing.T) {
	Convey("Given a resume store with a saved position", t, func() {
		Convey("Open restores a mid-file position", func() {
			src := newFakeSource(600)
			store := &memResumeStore{positions: map[string]float64{"/media/sample.mkv": 120}}
			e := New(Options{
				Video:      &sink.NullVideo{},
				Audio:      &sink.NullAudio{},
				Resume:     store,
				OpenSource: func(string) (Source, error) { return src, nil },
			})
			So(e.Open("/media/sample.mkv"), ShouldBeTrue)
			So(e.Position(), ShouldAlmostEqual, 120, 1)
			e.Stop()
		})

		Convey("Positions too close to an end are ignored", func() {
			src := newFakeSource(600)
			store := &memResumeStore{positions: map[string]float64{"/media/sample.mkv": 3}}
			e := New(Options{
				Video:      &sink.NullVideo{},
				Audio:      &sink.NullAudio{},
				Resume:     store,
				OpenSource: func(string) (Source, error) { return src, nil },
			})
			So(e.Open("/media/sample.mkv"), ShouldBeTrue)
			So(e.Position(), ShouldEqual, 0.0)
			e.Stop()
		})
	})
}

func TestEnginePositionNotifications(t *testing.T) {
	Convey("Given a playing engine", t, func() {
		src := newFakeSource(60)
		e, _, _ := newTestEngine(src)
		So(e.Open("/media/sample.mkv"), ShouldBeTrue)
		Reset(e.Stop)

		Convey("Position notifications arrive throttled, not per packet", func() {
			var mu sync.Mutex
			count := 0
			e.OnPositionChanged(func(float64) {
				mu.Lock()
				count++
				mu.Unlock()
			})
			e.Play()
			time.Sleep(500 * time.Millisecond)
			e.Pause()

			mu.Lock()
			defer mu.Unlock()
			So(count, ShouldBeGreaterThan, 0)
			So(count, ShouldBeLessThan, 15)
		})
	})
}

func TestEngineAudioDegrade(t *testing.T) {
	Convey("Given a file whose audio cannot be played", t, func() {
		Convey("A failing audio decoder degrades to video-only", func() {
			src := newFakeSource(60)
			src.audioOpenErr = errors.New("decoder unavailable")
			e, video, audio := newTestEngine(src)

			So(e.Open("/media/sample.mkv"), ShouldBeTrue)
			So(e.State(), ShouldEqual, state.Paused)
			So(e.audioIdx, ShouldEqual, -1)
			So(audio.Inited(), ShouldBeFalse)

			e.Play()
			time.Sleep(150 * time.Millisecond)
			e.Pause()
			So(video.RenderCount(), ShouldBeGreaterThan, 0)
			So(audio.Written, ShouldEqual, 0)
			e.Stop()
		})

		Convey("A failing audio sink degrades to video-only", func() {
			src := newFakeSource(60)
			e := New(Options{
				Video:      &sink.NullVideo{},
				Audio:      &brokenAudioSink{NullAudio: &sink.NullAudio{}},
				OpenSource: func(string) (Source, error) { return src, nil },
			})
			So(e.Open("/media/sample.mkv"), ShouldBeTrue)
			So(e.State(), ShouldEqual, state.Paused)
			So(e.audioIdx, ShouldEqual, -1)
			e.Stop()
		})
	})
}

func TestEngineLateFrameDrop(t *testing.T) {
	Convey("Given an opened engine whose clock ran ahead of the stream", t, func() {
		src := newFakeSource(60)
		e, video, _ := newTestEngine(src)
		So(e.Open("/media/sample.mkv"), ShouldBeTrue)
		Reset(e.Stop)

		e.clk.Seek(10)
		stop := make(chan struct{})

		Convey("Frames far behind the clock are dropped, not rendered", func() {
			So(e.handleVideoPacket(stop, demux.Packet{StreamIndex: 0, Pts: 5}), ShouldBeTrue)
			So(video.RenderCount(), ShouldEqual, 0)
		})

		Convey("Frames just inside the threshold still render", func() {
			So(e.handleVideoPacket(stop, demux.Packet{StreamIndex: 0, Pts: 9.95}), ShouldBeTrue)
			So(video.RenderCount(), ShouldEqual, 1)
		})
	})
}

func TestEngineVolume(t *testing.T) {
	Convey("Given hosts that pick an initial volume", t, func() {
		Convey("An explicit zero volume opens fully silent", func() {
			src := newFakeSource(60)
			audio := &sink.NullAudio{}
			e := New(Options{
				Video:      &sink.NullVideo{},
				Audio:      audio,
				Volume:     mo.Some(0.0),
				OpenSource: func(string) (Source, error) { return src, nil },
			})
			So(e.Open("/media/sample.mkv"), ShouldBeTrue)
			So(audio.Volume(), ShouldEqual, 0.0)
			e.Stop()
		})

		Convey("An unset volume defaults to full", func() {
			src := newFakeSource(60)
			e, _, audio := newTestEngine(src)
			So(e.Open("/media/sample.mkv"), ShouldBeTrue)
			So(audio.Volume(), ShouldEqual, 1.0)
			e.Stop()
		})
	})
}

func TestEngineCallbackReentrancy(t *testing.T) {
	Convey("Given callbacks that call back into the engine", t, func() {
		src := newFakeSource(60)
		e, _, _ := newTestEngine(src)

		var mu sync.Mutex
		transitions := 0
		e.OnStateChanged(func(_, _ state.State) {
			mu.Lock()
			transitions++
			mu.Unlock()
			_ = e.Position()
			_ = e.Duration()
		})
		e.OnPositionChanged(func(float64) {
			_ = e.State()
			_ = e.Duration()
		})

		Convey("Open, play, seek, and stop all run to completion", func() {
			completed := make(chan struct{})
			go func() {
				defer close(completed)
				e.Open("/media/sample.mkv")
				e.Play()
				time.Sleep(150 * time.Millisecond)
				e.Seek(30)
				e.Stop()
			}()

			finished := false
			select {
			case <-completed:
				finished = true
			case <-time.After(3 * time.Second):
			}
			So(finished, ShouldBeTrue)

			mu.Lock()
			defer mu.Unlock()
			So(transitions, ShouldBeGreaterThan, 0)
		})
	})
}

// brokenAudioSink refuses to initialize, as a missing audio device would.
type brokenAudioSink struct {
	*sink.NullAudio
}

func (b *brokenAudioSink) Init() error { return errors.New("no audio device") }

// errorCapture collects errors delivered on the engine's event goroutine.
type errorCapture struct {
	mu   sync.Mutex
	errs []error
}

func newErrorCapture() *errorCapture { return &errorCapture{} }

func (c *errorCapture) capture(err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

// wait returns the first captured error, or nil when none arrives in time.
func (c *errorCapture) wait(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.errs) > 0 {
			err := c.errs[0]
			c.mu.Unlock()
			return err
		}
		c.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

// memResumeStore is an in-memory ResumeStore for engine tests.
type memResumeStore struct {
	mu        sync.Mutex
	positions map[string]float64
	saved     map[string]float64
}

func (s *memResumeStore) LastPosition(path string) mo.Option[float64] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos, ok := s.positions[path]; ok {
		return mo.Some(pos)
	}
	return mo.None[float64]()
}

func (s *memResumeStore) SavePosition(path string, position, _ float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = map[string]float64{}
	}
	s.saved[path] = position
	return nil
}

func waitForState(e *Engine, target state.State, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e.State() == target {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
