// Package demux opens media containers and splits them into per-stream compressed
// packet sequences. It wraps the FFmpeg format layer through go-astiav and performs
// keyframe-biased seeking for the playback engine.
package demux

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/asticode/go-astiav"
	"github.com/kinoray-player/kinoray/key"
	"github.com/kinoray-player/kinoray/log"
	"github.com/kinoray-player/kinoray/mediainfo"
	"github.com/spf13/viper"
)

func init() {
	// Suppress FFmpeg log chatter; diagnostics go through our own log package.
	astiav.SetLogLevel(astiav.LogLevelQuiet)
}

// avTimeBase is the global FFmpeg time base (microseconds) used when no video
// stream exists to provide a stream time base.
const avTimeBase = 1_000_000

var (
	// ErrUnreadableContainer indicates the container could not be opened at all.
	ErrUnreadableContainer = errors.New("unreadable container")
	// ErrNoStreamInfo indicates the container opened but stream probing failed.
	ErrNoStreamInfo = errors.New("no stream info")
)

// Demuxer reads interleaved packets from one opened container.
// It is owned by the playback engine and is not safe for concurrent use.
type Demuxer struct {
	fc    *astiav.FormatContext
	pkt   *astiav.Packet
	media *mediainfo.Media

	video   *astiav.Stream
	audio   *astiav.Stream
	streams map[int]*astiav.Stream
}

// Open opens a container, probes stream info within the configured probe budget,
// selects the best video and audio streams, and builds the immutable MediaInfo.
func Open(path string) (*Demuxer, error) {
	d := &Demuxer{streams: make(map[int]*astiav.Stream)}

	d.fc = astiav.AllocFormatContext()
	if d.fc == nil {
		return nil, fmt.Errorf("%w: allocating format context failed", ErrUnreadableContainer)
	}

	// Bound the probe for large 4K/8K files.
	opts := astiav.NewDictionary()
	defer opts.Free()
	_ = opts.Set("probesize", strconv.Itoa(viper.GetInt(key.DemuxProbeSize)), astiav.NewDictionaryFlags())
	_ = opts.Set("analyzeduration", strconv.Itoa(viper.GetInt(key.DemuxAnalyzeDuration)), astiav.NewDictionaryFlags())

	if err := d.fc.OpenInput(path, nil, opts); err != nil {
		d.fc.Free()
		return nil, fmt.Errorf("%w: %s: %s", ErrUnreadableContainer, path, err)
	}

	if err := d.fc.FindStreamInfo(nil); err != nil {
		d.Close()
		return nil, fmt.Errorf("%w: %s: %s", ErrNoStreamInfo, path, err)
	}

	for _, s := range d.fc.Streams() {
		d.streams[s.Index()] = s
	}

	// Best-stream selection uses the library's built-in heuristic.
	if s, _, err := d.fc.FindBestStream(astiav.MediaTypeVideo, -1, -1); err == nil && s != nil {
		d.video = s
	}
	if s, _, err := d.fc.FindBestStream(astiav.MediaTypeAudio, -1, -1); err == nil && s != nil {
		d.audio = s
	}

	d.media = d.buildMedia(path)
	d.pkt = astiav.AllocPacket()
	return d, nil
}

// Media returns the immutable description of the opened container.
func (d *Demuxer) Media() *mediainfo.Media {
	return d.media
}

// VideoStream returns the selected video stream, or nil when the container has none.
func (d *Demuxer) VideoStream() *astiav.Stream {
	return d.video
}

// AudioStream returns the selected audio stream, or nil when the container has none.
func (d *Demuxer) AudioStream() *astiav.Stream {
	return d.audio
}

// SelectAudio overrides the audio stream selection by container stream index.
func (d *Demuxer) SelectAudio(index int) error {
	s, ok := d.streams[index]
	if !ok || s.CodecParameters().MediaType() != astiav.MediaTypeAudio {
		return fmt.Errorf("no audio stream at index %d", index)
	}
	d.audio = s
	return nil
}

// SelectAudioByQuery overrides the audio stream selection by fuzzy-matching the
// given query against each audio stream's language and title tags.
func (d *Demuxer) SelectAudioByQuery(query string) error {
	idx, ok := mediainfo.FindAudioByQuery(d.media.Audio, query).Get()
	if !ok {
		return fmt.Errorf("no audio stream matching %q", query)
	}
	return d.SelectAudio(idx)
}

// ReadPacket pulls the next demuxed packet. It returns false on end-of-stream or
// on an I/O error; both are treated identically by callers as end of playback.
// The returned packet's payload is only valid until the next ReadPacket call.
func (d *Demuxer) ReadPacket() (Packet, bool) {
	d.pkt.Unref()
	if err := d.fc.ReadFrame(d.pkt); err != nil {
		if !errors.Is(err, astiav.ErrEof) {
			log.Warnf("demux: read packet: %v", err)
		}
		return Packet{}, false
	}

	p := Packet{Raw: d.pkt, StreamIndex: d.pkt.StreamIndex()}
	if s, ok := d.streams[p.StreamIndex]; ok && d.pkt.Pts() != astiav.NoPtsValue {
		p.Pts = ptsToSeconds(d.pkt.Pts(), s.TimeBase())
	}
	return p, true
}

// Seek issues a keyframe-biased seek that lands at or before the target time.
// The target is converted to the selected video stream's time base, falling back
// to the global time base for audio-only containers. On failure it retries once
// allowing non-keyframe positions before reporting. Failures are non-fatal to
// playback; the stream position stays wherever the demuxer ended up.
func (d *Demuxer) Seek(seconds float64) error {
	idx := -1
	ts := int64(seconds * avTimeBase)
	if d.video != nil {
		idx = d.video.Index()
		ts = secondsToPts(seconds, d.video.TimeBase())
	}

	if err := d.fc.SeekFrame(idx, ts, astiav.NewSeekFlags(astiav.SeekFlagBackward)); err != nil {
		if retryErr := d.fc.SeekFrame(idx, ts, astiav.NewSeekFlags(astiav.SeekFlagBackward, astiav.SeekFlagAny)); retryErr != nil {
			return fmt.Errorf("seek to %.3fs: %w", seconds, retryErr)
		}
	}
	return nil
}

// Close releases the format context and any in-flight packet.
func (d *Demuxer) Close() {
	if d.pkt != nil {
		d.pkt.Free()
		d.pkt = nil
	}
	if d.fc != nil {
		d.fc.CloseInput()
		d.fc.Free()
		d.fc = nil
	}
}

func ptsToSeconds(pts int64, tb astiav.Rational) float64 {
	if tb.Den() == 0 {
		return 0
	}
	return float64(pts) * float64(tb.Num()) / float64(tb.Den())
}

func secondsToPts(seconds float64, tb astiav.Rational) int64 {
	if tb.Num() == 0 {
		return 0
	}
	return int64(seconds * float64(tb.Den()) / float64(tb.Num()))
}
