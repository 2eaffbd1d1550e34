package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/asticode/go-astiav"
	"github.com/kinoray-player/kinoray/demux"
	"github.com/kinoray-player/kinoray/sink"
)

// AudioDecoder decodes one audio stream and resamples every frame to the fixed
// output format the speaker consumes: stereo, packed float32, 48 kHz.
type AudioDecoder struct {
	cc *astiav.CodecContext
	tb astiav.Rational

	frame    *astiav.Frame
	outFrame *astiav.Frame
	src      *astiav.SoftwareResampleContext
}

// OpenAudio opens a software decoder for the given audio stream.
func OpenAudio(stream *astiav.Stream) (*AudioDecoder, error) {
	cp := stream.CodecParameters()
	codec := astiav.FindDecoder(cp.CodecID())
	if codec == nil {
		return nil, fmt.Errorf("no decoder for codec %s", cp.CodecID().Name())
	}

	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return nil, errors.New("allocating codec context failed")
	}
	if err := cc.FromCodecParameters(cp); err != nil {
		cc.Free()
		return nil, fmt.Errorf("applying codec parameters: %w", err)
	}
	if err := cc.Open(codec, nil); err != nil {
		cc.Free()
		return nil, fmt.Errorf("opening audio decoder: %w", err)
	}

	return &AudioDecoder{
		cc:       cc,
		tb:       stream.TimeBase(),
		frame:    astiav.AllocFrame(),
		outFrame: astiav.AllocFrame(),
		src:      astiav.AllocSoftwareResampleContext(),
	}, nil
}

// SendPacket feeds one compressed packet into the decoder.
func (d *AudioDecoder) SendPacket(p demux.Packet) error {
	return d.cc.SendPacket(p.Raw)
}

// ReceiveSamples pulls the next decoded frame as interleaved stereo float32
// samples at 48 kHz. It returns (nil, nil) when the decoder needs more packets.
func (d *AudioDecoder) ReceiveSamples() ([]float32, error) {
	d.frame.Unref()
	if err := d.cc.ReceiveFrame(d.frame); err != nil {
		if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
			return nil, nil
		}
		return nil, fmt.Errorf("receiving audio frame: %w", err)
	}

	d.outFrame.Unref()
	d.outFrame.SetChannelLayout(astiav.ChannelLayoutStereo)
	d.outFrame.SetSampleFormat(astiav.SampleFormatFlt)
	d.outFrame.SetSampleRate(sink.OutputSampleRate)
	if err := d.src.ConvertFrame(d.frame, d.outFrame); err != nil {
		return nil, fmt.Errorf("resampling audio frame: %w", err)
	}
	if d.outFrame.NbSamples() == 0 {
		return nil, nil
	}

	raw, err := d.outFrame.Data().Bytes(0)
	if err != nil {
		return nil, fmt.Errorf("reading audio bytes: %w", err)
	}

	n := d.outFrame.NbSamples() * 2
	if len(raw) < n*4 {
		n = len(raw) / 4
	}
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples, nil
}

// PTS returns the presentation time of the most recently received frame in seconds.
func (d *AudioDecoder) PTS() float64 {
	return ptsToSeconds(d.frame.Pts(), d.tb)
}

// Flush discards buffered frames after a seek.
func (d *AudioDecoder) Flush() {
	flushCodecBuffers(d.cc)
}

// Close releases the decoder and resample contexts.
func (d *AudioDecoder) Close() {
	if d.src != nil {
		d.src.Free()
		d.src = nil
	}
	for _, f := range []**astiav.Frame{&d.frame, &d.outFrame} {
		if *f != nil {
			(*f).Free()
			*f = nil
		}
	}
	if d.cc != nil {
		d.cc.Free()
		d.cc = nil
	}
}
