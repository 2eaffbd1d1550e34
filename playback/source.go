package playback

import (
	"github.com/kinoray-player/kinoray/decode"
	"github.com/kinoray-player/kinoray/demux"
	"github.com/kinoray-player/kinoray/log"
	"github.com/kinoray-player/kinoray/mediainfo"
	"github.com/kinoray-player/kinoray/sink"
)

// Source is the packet provider the engine consumes. The container-backed
// implementation lives below; tests substitute scripted fakes through
// Options.OpenSource.
type Source interface {
	Media() *mediainfo.Media
	VideoIndex() int // -1 when the container carries no video stream
	AudioIndex() int // -1 when no audio stream is selected
	OpenVideoDecoder(preferHW bool) (VideoDecoder, error)
	OpenAudioDecoder() (AudioDecoder, error)
	ReadPacket() (demux.Packet, bool)
	Seek(seconds float64) error
	Close()
}

// VideoDecoder is the engine's view of a per-stream video decoder.
// ReceiveFrame returns (nil, nil) when more packets are needed.
type VideoDecoder interface {
	SendPacket(p demux.Packet) error
	ReceiveFrame() (*sink.Frame, error)
	FrameDuration() float64
	Flush()
	Close()
}

// AudioDecoder is the engine's view of a per-stream audio decoder. Samples come
// out interleaved stereo float32 at the sink's fixed rate.
type AudioDecoder interface {
	SendPacket(p demux.Packet) error
	ReceiveSamples() ([]float32, error)
	PTS() float64
	Flush()
	Close()
}

// demuxSource adapts a container demuxer and the codec wrappers to the Source
// contract.
type demuxSource struct {
	d *demux.Demuxer
}

// OpenMediaSource opens a container file as an engine Source. A non-negative
// audioTrack selects an audio stream by index; otherwise a non-empty audioQuery
// selects one by fuzzy language/title match. Query misses keep the default
// stream rather than failing the open.
func OpenMediaSource(path string, audioTrack int, audioQuery string) (Source, error) {
	d, err := demux.Open(path)
	if err != nil {
		return nil, err
	}

	if audioTrack >= 0 {
		if err := d.SelectAudio(audioTrack); err != nil {
			d.Close()
			return nil, err
		}
	} else if audioQuery != "" {
		if err := d.SelectAudioByQuery(audioQuery); err != nil {
			log.Warnf("playback: audio query %q matched nothing, keeping default stream", audioQuery)
		}
	}

	return &demuxSource{d: d}, nil
}

func (s *demuxSource) Media() *mediainfo.Media {
	return s.d.Media()
}

func (s *demuxSource) VideoIndex() int {
	if st := s.d.VideoStream(); st != nil {
		return st.Index()
	}
	return -1
}

func (s *demuxSource) AudioIndex() int {
	if st := s.d.AudioStream(); st != nil {
		return st.Index()
	}
	return -1
}

func (s *demuxSource) OpenVideoDecoder(preferHW bool) (VideoDecoder, error) {
	return decode.OpenVideo(s.d.VideoStream(), preferHW)
}

func (s *demuxSource) OpenAudioDecoder() (AudioDecoder, error) {
	return decode.OpenAudio(s.d.AudioStream())
}

func (s *demuxSource) ReadPacket() (demux.Packet, bool) {
	return s.d.ReadPacket()
}

func (s *demuxSource) Seek(seconds float64) error {
	return s.d.Seek(seconds)
}

func (s *demuxSource) Close() {
	s.d.Close()
}
