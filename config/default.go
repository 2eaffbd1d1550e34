// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/kinoray-player/kinoray/color"
	"github.com/kinoray-player/kinoray/constant"
	"github.com/kinoray-player/kinoray/key"
	"github.com/kinoray-player/kinoray/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Kinoray + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case float64:
		return "float"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlaybackSpeed, 1.0, "Initial playback speed multiplier.\nAccepted range is 0.2 to 4.0")
	register(key.PlaybackPositionNotifyRate, 10, "Maximum position-changed notifications emitted per second")
	register(key.PlaybackMuteScaledAudio, true, "Mute audio while playback speed differs from 1.0\nAvoids pitch distortion at scaled speeds")
	register(key.SeekThrottleMs, 100, "Minimum interval between applied seeks in milliseconds.\nRequests arriving sooner are dropped, not queued")
	register(key.SeekCoalesceWindow, 0.3, "Seconds within which a new seek target is coalesced with the previously applied one")
	register(key.SeekDiscardWindow, 0.5, "Seconds before the seek target within which decoded frames are accepted for display.\nEarlier frames are discarded during seek catch-up")
	register(key.SeekPacketBudget, 15, "Maximum packets decoded synchronously after a seek before giving up on frame-accurate catch-up")
	register(key.DemuxProbeSize, 50_000_000, "Container probe size budget in bytes.\nTuned for large 4K/8K files")
	register(key.DemuxAnalyzeDuration, 10_000_000, "Stream analysis budget in microseconds")
	register(key.HwaccelEnable, true, "Attempt hardware-accelerated video decoding before software fallback")
	register(key.HwaccelOrder, []string{}, "Hardware device types to probe in order (e.g. videotoolbox, vaapi, cuda, qsv, d3d11va).\nEmpty selects a platform-native default chain")
	register(key.ResumeEnable, true, "Resume playback from the last saved position when reopening a file")
	register(key.ResumeMinFromStart, 10, "Skip resuming when the saved position is within this many seconds of the start")
	register(key.ResumeMinToEnd, 30, "Skip resuming when the saved position is within this many seconds of the end")
	register(key.AudioVolume, 1.0, "Initial audio volume from 0.0 to 1.0, independent of device volume")
	register(key.SubtitlesAutoload, true, "Auto-detect a companion subtitle file next to the opened media")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, nerd, plain")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
