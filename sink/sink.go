// Package sink defines the abstract consumers the playback engine pushes decoded
// media into: a video sink accepting renderer-ready pixel buffers and an audio
// sink accepting interleaved float samples. Concrete implementations are chosen
// by the host application; the engine never depends on a specific backend.
package sink

// Frame is one renderer-ready decoded video frame: packed RGBA pixels plus the
// presentation timestamp in timeline seconds.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
	PTS    float64
}

// Video accepts decoded frames and displays them.
type Video interface {
	Init(width, height int) error
	Render(f *Frame) error
	Clear()
	Close()
}

// Audio accepts interleaved stereo float32 samples at 48kHz and plays them
// through a device abstraction. Its own playback clock governs audio timing;
// the engine never paces audio explicitly.
type Audio interface {
	Init() error
	Write(samples []float32) error
	Play()
	Pause()
	Stop()
	ClearBuffer()
	// SetVolume accepts 0.0-1.0, independent of the device volume.
	SetVolume(v float64) error
	Volume() float64
	Close()
}
