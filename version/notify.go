package version

import (
	"fmt"

	"github.com/kinoray-player/kinoray/color"
	"github.com/kinoray-player/kinoray/constant"
	"github.com/kinoray-player/kinoray/icon"
	"github.com/kinoray-player/kinoray/key"
	"github.com/kinoray-player/kinoray/style"
	"github.com/kinoray-player/kinoray/util"
	"github.com/spf13/viper"
)

// Notify displays a terminal alert if a more recent stable release is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest()
	erase()
	if err == nil {
		comp, err := Compare(version, constant.Version)
		if err == nil && comp <= 0 {
			return
		}
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/kinoray-player/kinoray/releases/tag/v"+version),
	)
}
