// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 22

// Playback Pacing - these keys govern the decode/render loop and the shared virtual clock.
const (
	PlaybackSpeed              = "playback.speed"
	PlaybackPositionNotifyRate = "playback.position_notify_rate"
	PlaybackMuteScaledAudio    = "playback.mute_scaled_audio"
)

// Seek Protocol Tuning - empirically tuned thresholds for the two-phase seek; validate against target hardware.
const (
	SeekThrottleMs     = "seek.throttle_ms"
	SeekCoalesceWindow = "seek.coalesce_window"
	SeekDiscardWindow  = "seek.discard_window"
	SeekPacketBudget   = "seek.packet_budget"
)

// Container Probing - these keys bound the demuxer's stream-info probe for large 4K/8K files.
const (
	DemuxProbeSize       = "demux.probe_size"
	DemuxAnalyzeDuration = "demux.analyze_duration"
)

// Hardware Acceleration - these keys control the video decoder's device-context probe chain.
const (
	HwaccelEnable = "hwaccel.enable"
	HwaccelOrder  = "hwaccel.order"
)

// Resume Store - these keys configure position persistence and restore at open time.
const (
	ResumeEnable       = "resume.enable"
	ResumeMinFromStart = "resume.min_from_start"
	ResumeMinToEnd     = "resume.min_to_end"
)

// Audio Output - these keys configure the audio sink.
const (
	AudioVolume = "audio.volume"
)

// Subtitles - companion track discovery at open time.
const (
	SubtitlesAutoload = "subtitles.autoload"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern command-line behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
