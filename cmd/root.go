// Package cmd implements the command-line interface for kinoray.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/kinoray-player/kinoray/color"
	"github.com/kinoray-player/kinoray/constant"
	"github.com/kinoray-player/kinoray/history"
	"github.com/kinoray-player/kinoray/icon"
	"github.com/kinoray-player/kinoray/key"
	"github.com/kinoray-player/kinoray/log"
	"github.com/kinoray-player/kinoray/playback"
	"github.com/kinoray-player/kinoray/sink"
	"github.com/kinoray-player/kinoray/state"
	"github.com/kinoray-player/kinoray/style"
	"github.com/kinoray-player/kinoray/util"
	"github.com/kinoray-player/kinoray/version"
	"github.com/kinoray-player/kinoray/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().IntP("audio-track", "a", -1, "Select the audio stream by index")
	rootCmd.Flags().StringP("audio-lang", "l", "", "Select the audio stream by fuzzy language/title match")
	rootCmd.Flags().Float64P("speed", "s", 0, "Playback speed multiplier (0.2-4.0)")
	rootCmd.Flags().Float64("volume", -1, "Audio volume (0.0-1.0)")
	rootCmd.Flags().Bool("no-resume", false, "Start from the beginning even when a saved position exists")
	rootCmd.Flags().Bool("no-hwaccel", false, "Force software video decoding")

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Initialize cleanup of localized temporary files on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point: `kinoray <file>` plays a media file.
var rootCmd = &cobra.Command{
	Use:   constant.Kinoray + " [file]",
	Short: "A desktop media playback engine for the command line",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A desktop media playback engine for the command line"),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		handleErr(play(cmd, args[0]))
	},
}

// play builds a playback engine around the SDL window and the speaker and runs
// the file until end of stream or an interrupt.
func play(cmd *cobra.Command, path string) error {
	opts := playback.OptionsFromConfig()
	opts.Video = sink.NewSDLVideo(constant.Kinoray)
	opts.Audio = sink.NewSpeaker()
	opts.AudioTrack = lo.Must(cmd.Flags().GetInt("audio-track"))
	opts.AudioQuery = lo.Must(cmd.Flags().GetString("audio-lang"))

	if s := lo.Must(cmd.Flags().GetFloat64("speed")); s > 0 {
		opts.Speed = s
	}
	if v := lo.Must(cmd.Flags().GetFloat64("volume")); v >= 0 {
		opts.Volume = mo.Some(v)
	}
	if lo.Must(cmd.Flags().GetBool("no-hwaccel")) {
		opts.PreferHWAccel = false
	}
	if viper.GetBool(key.ResumeEnable) && !lo.Must(cmd.Flags().GetBool("no-resume")) {
		opts.Resume = history.NewStore()
	}

	engine := playback.New(opts)
	defer engine.Close()

	var once sync.Once
	done := make(chan struct{})
	engine.OnStateChanged(func(_, to state.State) {
		if to == state.Ended || to == state.Error {
			once.Do(func() { close(done) })
		}
	})

	if !engine.Open(path) {
		return fmt.Errorf("cannot play %s", path)
	}

	media := engine.Media()
	fmt.Printf("%s %s %s\n",
		icon.Get(icon.Video),
		style.Bold(media.Title()),
		style.Faint(util.FormatTimestamp(media.Duration)),
	)
	if sub := engine.SubtitlePath(); sub != "" {
		fmt.Printf("%s %s\n", icon.Get(icon.Subtitle), style.Faint(sub))
	}

	engine.Play()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-interrupt:
		engine.Stop()
	case <-done:
	}
	return nil
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
