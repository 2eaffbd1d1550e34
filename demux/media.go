package demux

import (
	"path/filepath"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/kinoray-player/kinoray/filesystem"
	"github.com/kinoray-player/kinoray/mediainfo"
)

// buildMedia assembles the immutable MediaInfo from the probed format context.
func (d *Demuxer) buildMedia(path string) *mediainfo.Media {
	m := &mediainfo.Media{
		Path:     path,
		Format:   strings.TrimPrefix(filepath.Ext(path), "."),
		Video:    []mediainfo.VideoStream{},
		Audio:    []mediainfo.AudioStream{},
		Subtitle: []mediainfo.SubtitleStream{},
		Chapters: []mediainfo.Chapter{},
		Metadata: dictToMap(d.fc.Metadata()),
	}

	if dur := d.fc.Duration(); dur > 0 {
		m.Duration = float64(dur) / avTimeBase
	}
	m.BitRate = d.fc.BitRate()
	if info, err := filesystem.API().Stat(path); err == nil {
		m.Size = info.Size()
	}

	for _, s := range d.fc.Streams() {
		cp := s.CodecParameters()
		switch cp.MediaType() {
		case astiav.MediaTypeVideo:
			m.Video = append(m.Video, mediainfo.VideoStream{
				Index:     s.Index(),
				CodecID:   int(cp.CodecID()),
				CodecName: cp.CodecID().Name(),
				Width:     cp.Width(),
				Height:    cp.Height(),
				FrameRate: toRatio(s.AvgFrameRate()),
				PixelFmt:  cp.PixelFormat().Name(),
				BitRate:   cp.BitRate(),
				Language:  streamTag(s, "language"),
				Title:     streamTag(s, "title"),
				Default:   d.video != nil && d.video.Index() == s.Index(),
			})
		case astiav.MediaTypeAudio:
			m.Audio = append(m.Audio, mediainfo.AudioStream{
				Index:      s.Index(),
				CodecID:    int(cp.CodecID()),
				CodecName:  cp.CodecID().Name(),
				SampleRate: cp.SampleRate(),
				Channels:   cp.ChannelLayout().Channels(),
				Layout:     cp.ChannelLayout().String(),
				BitRate:    cp.BitRate(),
				Language:   streamTag(s, "language"),
				Title:      streamTag(s, "title"),
				Default:    d.audio != nil && d.audio.Index() == s.Index(),
			})
		case astiav.MediaTypeSubtitle:
			m.Subtitle = append(m.Subtitle, mediainfo.SubtitleStream{
				Index:     s.Index(),
				CodecID:   int(cp.CodecID()),
				CodecName: cp.CodecID().Name(),
				Language:  streamTag(s, "language"),
				Title:     streamTag(s, "title"),
			})
		}
	}

	return m
}

func toRatio(r astiav.Rational) mediainfo.Ratio {
	return mediainfo.Ratio{Num: r.Num(), Den: r.Den()}
}

func streamTag(s *astiav.Stream, name string) string {
	md := s.Metadata()
	if md == nil {
		return ""
	}
	e := md.Get(name, nil, astiav.NewDictionaryFlags())
	if e == nil {
		return ""
	}
	return e.Value()
}

func dictToMap(d *astiav.Dictionary) map[string]string {
	out := make(map[string]string)
	if d == nil {
		return out
	}
	var e *astiav.DictionaryEntry
	for {
		e = d.Get("", e, astiav.NewDictionaryFlags(astiav.DictionaryFlagIgnoreSuffix))
		if e == nil {
			break
		}
		out[e.Key()] = e.Value()
	}
	return out
}
