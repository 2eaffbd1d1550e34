// Package mediainfo defines the immutable description of an opened media container:
// its streams, chapters, and metadata. A Media value is built atomically when the
// container is opened and never mutated afterwards.
package mediainfo

import (
	"path/filepath"
	"strings"

	"github.com/samber/mo"
)

// Media describes an opened container file.
type Media struct {
	Path     string            `json:"path"`
	Format   string            `json:"format"`
	Duration float64           `json:"duration" jsonschema:"description=Container duration in seconds"`
	Size     int64             `json:"size"`
	BitRate  int64             `json:"bit_rate"`
	Video    []VideoStream     `json:"video_streams"`
	Audio    []AudioStream     `json:"audio_streams"`
	Subtitle []SubtitleStream  `json:"subtitle_streams"`
	Chapters []Chapter         `json:"chapters"`
	Metadata map[string]string `json:"metadata"`
}

// VideoStream describes a single video stream inside a container.
type VideoStream struct {
	Index     int    `json:"index"`
	CodecID   int    `json:"codec_id"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	FrameRate Ratio  `json:"frame_rate"`
	PixelFmt  string `json:"pixel_format"`
	BitRate   int64  `json:"bit_rate"`
	Language  string `json:"language,omitempty"`
	Title     string `json:"title,omitempty"`
	Default   bool   `json:"default"`
}

// AudioStream describes a single audio stream inside a container.
type AudioStream struct {
	Index      int    `json:"index"`
	CodecID    int    `json:"codec_id"`
	CodecName  string `json:"codec_name"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Layout     string `json:"channel_layout,omitempty"`
	BitRate    int64  `json:"bit_rate"`
	Language   string `json:"language,omitempty"`
	Title      string `json:"title,omitempty"`
	Default    bool   `json:"default"`
}

// SubtitleStream describes a single subtitle stream inside a container.
type SubtitleStream struct {
	Index     int    `json:"index"`
	CodecID   int    `json:"codec_id"`
	CodecName string `json:"codec_name"`
	Language  string `json:"language,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Chapter marks a named region of the timeline.
type Chapter struct {
	Title string  `json:"title"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Ratio is a rational number, used for exact frame rates like 24000/1001.
type Ratio struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// Float64 returns the ratio as a floating point value, or 0 for a zero denominator.
func (r Ratio) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// BestVideo returns the container's default video stream, falling back to the
// first one when no stream carries the default flag.
func (m *Media) BestVideo() mo.Option[VideoStream] {
	for _, s := range m.Video {
		if s.Default {
			return mo.Some(s)
		}
	}
	if len(m.Video) > 0 {
		return mo.Some(m.Video[0])
	}
	return mo.None[VideoStream]()
}

// BestAudio returns the container's default audio stream, falling back to the
// first one when no stream carries the default flag.
func (m *Media) BestAudio() mo.Option[AudioStream] {
	for _, s := range m.Audio {
		if s.Default {
			return mo.Some(s)
		}
	}
	if len(m.Audio) > 0 {
		return mo.Some(m.Audio[0])
	}
	return mo.None[AudioStream]()
}

// Title returns the container's title metadata, or the file stem when absent.
func (m *Media) Title() string {
	if t, ok := m.Metadata["title"]; ok && t != "" {
		return t
	}
	return strings.TrimSuffix(filepath.Base(m.Path), filepath.Ext(m.Path))
}
