// Package decode wraps the external codec library per-stream: it feeds compressed
// packets in, pulls decoded frames out, and converts them to the fixed formats the
// sinks consume. Video decoding attempts hardware-acceleration device contexts from
// a preference-ordered chain before silently falling back to software.
package decode

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/kinoray-player/kinoray/demux"
	"github.com/kinoray-player/kinoray/log"
	"github.com/kinoray-player/kinoray/sink"
)

// VideoDecoder decodes one video stream into renderer-ready RGBA frames.
type VideoDecoder struct {
	cc     *astiav.CodecContext
	stream *astiav.Stream
	tb     astiav.Rational

	frame     *astiav.Frame // raw decoder output, possibly a hardware surface
	hostFrame *astiav.Frame // hardware-to-host transfer destination
	rgbaFrame *astiav.Frame

	ssc     *astiav.SoftwareScaleContext
	sscSrcW int
	sscSrcH int
	sscFmt  astiav.PixelFormat

	hw       *astiav.HardwareDeviceContext
	hwPixFmt astiav.PixelFormat
	usingHW  bool
}

// OpenVideo opens a decoder context sized to the stream's codec parameters with
// multi-threaded decoding. When preferHW is set it probes the hardware device
// chain first; any hardware failure degrades silently to software decoding.
func OpenVideo(stream *astiav.Stream, preferHW bool) (*VideoDecoder, error) {
	d := &VideoDecoder{stream: stream, tb: stream.TimeBase()}

	cp := stream.CodecParameters()
	codec := astiav.FindDecoder(cp.CodecID())
	if codec == nil {
		return nil, fmt.Errorf("no decoder for codec %s", cp.CodecID().Name())
	}

	open := func(withHW bool) error {
		d.cc = astiav.AllocCodecContext(codec)
		if d.cc == nil {
			return errors.New("allocating codec context failed")
		}
		if err := d.cc.FromCodecParameters(cp); err != nil {
			d.cc.Free()
			d.cc = nil
			return fmt.Errorf("applying codec parameters: %w", err)
		}
		d.cc.SetThreadCount(0)

		if withHW {
			d.initHardware(codec)
		}
		return d.cc.Open(codec, nil)
	}

	if err := open(preferHW); err != nil {
		if !d.usingHW {
			return nil, fmt.Errorf("opening video decoder: %w", err)
		}
		// Hardware context attached but the codec rejected the open; retry software.
		log.Warnf("decode: hardware open failed, falling back to software: %v", err)
		if d.cc != nil {
			d.cc.Free()
			d.cc = nil
		}
		d.dropHardware()
		if err := open(false); err != nil {
			return nil, fmt.Errorf("opening video decoder: %w", err)
		}
	}

	d.frame = astiav.AllocFrame()
	d.hostFrame = astiav.AllocFrame()
	d.rgbaFrame = astiav.AllocFrame()
	return d, nil
}

// SendPacket feeds one compressed packet into the decoder.
func (d *VideoDecoder) SendPacket(p demux.Packet) error {
	return d.cc.SendPacket(p.Raw)
}

// ReceiveFrame pulls the next decoded frame, converted to packed RGBA at the
// frame's dimensions. It returns (nil, nil) when the decoder needs more packets;
// this is not an error. Hardware frames are transferred to host memory first.
func (d *VideoDecoder) ReceiveFrame() (*sink.Frame, error) {
	d.frame.Unref()
	if err := d.cc.ReceiveFrame(d.frame); err != nil {
		if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
			return nil, nil
		}
		return nil, fmt.Errorf("receiving frame: %w", err)
	}

	src := d.frame
	if d.usingHW && d.frame.PixelFormat() == d.hwPixFmt {
		d.hostFrame.Unref()
		if err := d.frame.TransferHardwareData(d.hostFrame); err != nil {
			return nil, fmt.Errorf("transferring hardware frame: %w", err)
		}
		d.hostFrame.SetPts(d.frame.Pts())
		src = d.hostFrame
	}

	if err := d.ensureScaler(src); err != nil {
		return nil, err
	}

	d.rgbaFrame.Unref()
	if err := d.ssc.ScaleFrame(src, d.rgbaFrame); err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}

	pixels, err := d.rgbaFrame.Data().Bytes(1)
	if err != nil {
		return nil, fmt.Errorf("reading frame bytes: %w", err)
	}

	return &sink.Frame{
		Pixels: pixels,
		Width:  src.Width(),
		Height: src.Height(),
		PTS:    ptsToSeconds(src.Pts(), d.tb),
	}, nil
}

// ensureScaler (re)creates the conversion context when the source geometry or
// pixel format changes. A single Lanczos scale context handles both pixel-format
// conversion and resize.
func (d *VideoDecoder) ensureScaler(src *astiav.Frame) error {
	if d.ssc != nil && d.sscSrcW == src.Width() && d.sscSrcH == src.Height() && d.sscFmt == src.PixelFormat() {
		return nil
	}
	if d.ssc != nil {
		d.ssc.Free()
		d.ssc = nil
	}

	ssc, err := astiav.CreateSoftwareScaleContext(
		src.Width(), src.Height(), src.PixelFormat(),
		src.Width(), src.Height(), astiav.PixelFormatRgba,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagLanczos),
	)
	if err != nil {
		return fmt.Errorf("creating scale context: %w", err)
	}
	d.ssc = ssc
	d.sscSrcW, d.sscSrcH, d.sscFmt = src.Width(), src.Height(), src.PixelFormat()
	return nil
}

// FrameDuration returns the nominal duration of one frame in seconds.
func (d *VideoDecoder) FrameDuration() float64 {
	fr := d.stream.AvgFrameRate()
	if fr.Num() == 0 || fr.Den() == 0 {
		return 1.0 / 25.0
	}
	return float64(fr.Den()) / float64(fr.Num())
}

// Flush discards all internally buffered frames and packets without closing the
// decoder. Required after every seek so stale pre-seek frames never leak out.
func (d *VideoDecoder) Flush() {
	flushCodecBuffers(d.cc)
}

// Close releases the decoder context, frames, and any hardware device context.
func (d *VideoDecoder) Close() {
	if d.ssc != nil {
		d.ssc.Free()
		d.ssc = nil
	}
	for _, f := range []**astiav.Frame{&d.frame, &d.hostFrame, &d.rgbaFrame} {
		if *f != nil {
			(*f).Free()
			*f = nil
		}
	}
	if d.cc != nil {
		d.cc.Free()
		d.cc = nil
	}
	d.dropHardware()
}

func (d *VideoDecoder) dropHardware() {
	if d.hw != nil {
		d.hw.Free()
		d.hw = nil
	}
	d.usingHW = false
}

// HardwareAccelerated reports whether the active decoder path uses a hardware device.
func (d *VideoDecoder) HardwareAccelerated() bool {
	return d.usingHW
}

func ptsToSeconds(pts int64, tb astiav.Rational) float64 {
	if pts == astiav.NoPtsValue || tb.Den() == 0 {
		return 0
	}
	return float64(pts) * float64(tb.Num()) / float64(tb.Den())
}
