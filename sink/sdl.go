package sink

import (
	"fmt"
	"sync"

	"github.com/kinoray-player/kinoray/util"
	"github.com/veandco/go-sdl2/sdl"
)

// SDLVideo renders frames into an SDL2 window through a streaming texture,
// letterboxed to preserve the source aspect ratio. Brightness adjustment is
// applied through the texture color mod before display.
type SDLVideo struct {
	title string

	mu       sync.Mutex
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	width, height int
	brightness    float64 // 0.0-2.0, 1.0 = neutral
}

// NewSDLVideo returns an uninitialized SDL video sink with the given window title.
func NewSDLVideo(title string) *SDLVideo {
	return &SDLVideo{title: title, brightness: 1.0}
}

// Init creates the window, renderer, and streaming texture sized to the source.
func (v *SDLVideo) Init(width, height int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}

	var err error
	v.window, err = sdl.CreateWindow(
		v.title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}

	v.renderer, err = sdl.CreateRenderer(v.window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	v.texture, err = v.renderer.CreateTexture(
		uint32(sdl.PIXELFORMAT_RGBA32), sdl.TEXTUREACCESS_STREAMING,
		int32(width), int32(height),
	)
	if err != nil {
		return fmt.Errorf("create texture: %w", err)
	}

	v.width, v.height = width, height
	return nil
}

// Render uploads a frame into the streaming texture and presents it letterboxed.
func (v *SDLVideo) Render(f *Frame) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.texture == nil {
		return fmt.Errorf("sdl sink not initialized")
	}

	pixels, _, err := v.texture.Lock(nil)
	if err != nil {
		return fmt.Errorf("lock texture: %w", err)
	}
	copy(pixels, f.Pixels)
	v.texture.Unlock()

	mod := uint8(util.Clamp(v.brightness, 0, 2) * 127.5)
	_ = v.texture.SetColorMod(mod, mod, mod)

	winW, winH := v.window.GetSize()
	dst := letterbox(int32(v.width), int32(v.height), winW, winH)

	_ = v.renderer.SetDrawColor(0, 0, 0, 255)
	_ = v.renderer.Clear()
	if err := v.renderer.Copy(v.texture, nil, &dst); err != nil {
		return fmt.Errorf("render copy: %w", err)
	}
	v.renderer.Present()
	return nil
}

// Clear blanks the window.
func (v *SDLVideo) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.renderer == nil {
		return
	}
	_ = v.renderer.SetDrawColor(0, 0, 0, 255)
	_ = v.renderer.Clear()
	v.renderer.Present()
}

// SetBrightness adjusts display brightness; 1.0 is neutral.
func (v *SDLVideo) SetBrightness(b float64) {
	v.mu.Lock()
	v.brightness = util.Clamp(b, 0, 2)
	v.mu.Unlock()
}

// Close destroys the texture, renderer, and window.
func (v *SDLVideo) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.texture != nil {
		_ = v.texture.Destroy()
		v.texture = nil
	}
	if v.renderer != nil {
		_ = v.renderer.Destroy()
		v.renderer = nil
	}
	if v.window != nil {
		_ = v.window.Destroy()
		v.window = nil
	}
	sdl.Quit()
}

// letterbox computes the centered destination rectangle preserving aspect ratio.
func letterbox(srcW, srcH, dstW, dstH int32) sdl.Rect {
	scaleW := float64(dstW) / float64(srcW)
	scaleH := float64(dstH) / float64(srcH)
	scale := scaleW
	if scaleH < scaleW {
		scale = scaleH
	}

	w := int32(float64(srcW) * scale)
	h := int32(float64(srcH) * scale)
	return sdl.Rect{
		X: (dstW - w) / 2,
		Y: (dstH - h) / 2,
		W: w,
		H: h,
	}
}
