package sink

import "sync"

// NullVideo is a headless video sink recording what it received. Used by tests
// and by audio-only invocations.
type NullVideo struct {
	mu       sync.Mutex
	inited   bool
	Width    int
	Height   int
	Rendered []float64 // PTS of every rendered frame, in order
	Cleared  int
}

func (v *NullVideo) Init(width, height int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inited = true
	v.Width, v.Height = width, height
	return nil
}

func (v *NullVideo) Render(f *Frame) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Rendered = append(v.Rendered, f.PTS)
	return nil
}

func (v *NullVideo) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Cleared++
}

func (v *NullVideo) Close() {}

// Inited reports whether Init was called.
func (v *NullVideo) Inited() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inited
}

// RenderCount returns how many frames were rendered.
func (v *NullVideo) RenderCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.Rendered)
}

// LastPTS returns the presentation time of the most recently rendered frame, or -1.
func (v *NullVideo) LastPTS() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.Rendered) == 0 {
		return -1
	}
	return v.Rendered[len(v.Rendered)-1]
}

// NullAudio is a headless audio sink recording what it received.
type NullAudio struct {
	mu      sync.Mutex
	inited  bool
	level   float64
	Written int  // total samples received
	Clears  int  // ClearBuffer calls
	Playing bool
}

func (a *NullAudio) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inited = true
	a.level = 1.0
	return nil
}

// Inited reports whether Init was called.
func (a *NullAudio) Inited() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inited
}

func (a *NullAudio) Write(samples []float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Written += len(samples)
	return nil
}

func (a *NullAudio) Play()  { a.mu.Lock(); a.Playing = true; a.mu.Unlock() }
func (a *NullAudio) Pause() { a.mu.Lock(); a.Playing = false; a.mu.Unlock() }
func (a *NullAudio) Stop()  { a.mu.Lock(); a.Playing = false; a.mu.Unlock() }

func (a *NullAudio) ClearBuffer() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Clears++
}

func (a *NullAudio) SetVolume(v float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.level = v
	return nil
}

func (a *NullAudio) Volume() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.level
}

func (a *NullAudio) Close() {}
