package playback

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/kinoray-player/kinoray/filesystem"
	"github.com/kinoray-player/kinoray/key"
	"github.com/kinoray-player/kinoray/sink"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// ResumeStore persists last-known positions per file. The engine reads it at
// Open and writes it at Pause and Stop. A nil store disables resuming.
type ResumeStore interface {
	LastPosition(path string) mo.Option[float64]
	SavePosition(path string, position, duration float64) error
}

// Options wires sinks, collaborators, and tunables into an Engine. The zero
// value is usable: nil sinks become null sinks, a nil OpenSource opens real
// container files, and zero tunables take their defaults.
type Options struct {
	Video sink.Video
	Audio sink.Audio

	// OpenSource creates the packet source for a path. Defaults to opening the
	// container through the demuxer with the AudioTrack/AudioQuery overrides.
	OpenSource func(path string) (Source, error)

	Resume ResumeStore

	AudioTrack int // -1 keeps the container's default audio stream
	AudioQuery string

	PreferHWAccel    bool
	SubtitleAutoload bool
	MuteScaledAudio  bool

	Speed float64

	// Volume is the initial 0.0-1.0 sink volume. Absent means 1.0; Some(0)
	// opens fully silent.
	Volume mo.Option[float64]

	SeekThrottle      time.Duration
	SeekCoalesce      float64 // timeline seconds
	SeekDiscardWindow float64
	SeekPacketBudget  int

	ResumeMinFromStart float64
	ResumeMinToEnd     float64

	PositionNotifyRate int // notifications per second
}

func (o *Options) normalize() {
	if o.Video == nil {
		o.Video = &sink.NullVideo{}
	}
	if o.Audio == nil {
		o.Audio = &sink.NullAudio{}
	}
	if o.OpenSource == nil {
		o.OpenSource = func(path string) (Source, error) {
			if exists, err := filesystem.API().Exists(path); err == nil && !exists {
				return nil, fmt.Errorf("opening %s: %w", path, fs.ErrNotExist)
			}
			return OpenMediaSource(path, o.AudioTrack, o.AudioQuery)
		}
	}
	if o.Speed <= 0 {
		o.Speed = 1.0
	}
	if o.Volume.IsAbsent() {
		o.Volume = mo.Some(1.0)
	}
	if o.SeekThrottle <= 0 {
		o.SeekThrottle = 100 * time.Millisecond
	}
	if o.SeekCoalesce <= 0 {
		o.SeekCoalesce = 0.3
	}
	if o.SeekDiscardWindow <= 0 {
		o.SeekDiscardWindow = 0.5
	}
	if o.SeekPacketBudget <= 0 {
		o.SeekPacketBudget = 15
	}
	if o.ResumeMinFromStart <= 0 {
		o.ResumeMinFromStart = 10
	}
	if o.ResumeMinToEnd <= 0 {
		o.ResumeMinToEnd = 30
	}
	if o.PositionNotifyRate <= 0 {
		o.PositionNotifyRate = 10
	}
}

// OptionsFromConfig builds Options with every tunable taken from the live
// configuration. Sinks and the resume store are still the host's to set.
func OptionsFromConfig() Options {
	return Options{
		AudioTrack:         -1,
		PreferHWAccel:      viper.GetBool(key.HwaccelEnable),
		SubtitleAutoload:   viper.GetBool(key.SubtitlesAutoload),
		MuteScaledAudio:    viper.GetBool(key.PlaybackMuteScaledAudio),
		Speed:              viper.GetFloat64(key.PlaybackSpeed),
		Volume:             mo.Some(viper.GetFloat64(key.AudioVolume)),
		SeekThrottle:       time.Duration(viper.GetInt(key.SeekThrottleMs)) * time.Millisecond,
		SeekCoalesce:       viper.GetFloat64(key.SeekCoalesceWindow),
		SeekDiscardWindow:  viper.GetFloat64(key.SeekDiscardWindow),
		SeekPacketBudget:   viper.GetInt(key.SeekPacketBudget),
		ResumeMinFromStart: viper.GetFloat64(key.ResumeMinFromStart),
		ResumeMinToEnd:     viper.GetFloat64(key.ResumeMinToEnd),
		PositionNotifyRate: viper.GetInt(key.PlaybackPositionNotifyRate),
	}
}
