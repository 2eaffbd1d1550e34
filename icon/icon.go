// Package icon provides a flexible multi-variant rendering engine for UI symbols and feedback indicators.
//
// Icons can be displayed as emoji, nerd-font glyphs, or plain ASCII depending on user preference.
package icon

import (
	"github.com/kinoray-player/kinoray/key"
	"github.com/spf13/viper"
)

// Visual Variant Constants - these define the supported aesthetic styles for icon rendering.
const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// iconDef encapsulates the visual representations of a single UI symbol across all supported variants.
type iconDef struct {
	emoji string
	nerd  string
	plain string
}

// Get retrieves the visual representation for the receiver based on the global icons variant configuration.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}

// Icon identifies a registered UI symbol.
type Icon int

const (
	Play Icon = iota
	Pause
	Stop
	Fail
	Success
	Progress
	Video
	Audio
	Subtitle
)

var icons = map[Icon]*iconDef{
	Play:     {emoji: "▶️", nerd: "", plain: ">"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "||"},
	Stop:     {emoji: "⏹️", nerd: "", plain: "[]"},
	Fail:     {emoji: "❌", nerd: "", plain: "X"},
	Success:  {emoji: "✅", nerd: "", plain: "+"},
	Progress: {emoji: "⏳", nerd: "", plain: "..."},
	Video:    {emoji: "🎬", nerd: "", plain: "V"},
	Audio:    {emoji: "🔊", nerd: "", plain: "A"},
	Subtitle: {emoji: "💬", nerd: "", plain: "S"},
}

// Get returns the rendered string for a specified Icon identifier from the global registry.
func Get(i Icon) string {
	return icons[i].Get()
}
