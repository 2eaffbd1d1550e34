// Package cmd implements the command-line interface for kinoray.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kinoray-player/kinoray/color"
	"github.com/kinoray-player/kinoray/demux"
	"github.com/kinoray-player/kinoray/icon"
	"github.com/kinoray-player/kinoray/mediainfo"
	"github.com/kinoray-player/kinoray/style"
	"github.com/kinoray-player/kinoray/util"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	probeCmd.Flags().Bool("schema", false, "Generate the JSON schema for probe output objects")
	probeCmd.Flags().Bool("no-cache", false, "Bypass the on-disk probe cache")

	probeCmd.SetOut(os.Stdout)
}

// probeCmd inspects a media container and prints its streams and metadata.
var probeCmd = &cobra.Command{
	Use:   "probe [file]",
	Short: "Inspect a media file's container, streams, chapters, and metadata",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			reflector := new(jsonschema.Reflector)
			reflector.Anonymous = true
			schema := reflector.Reflect(&mediainfo.Media{})
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(schema))
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		var (
			media *mediainfo.Media
			err   error
		)
		if lo.Must(cmd.Flags().GetBool("no-cache")) {
			var d *demux.Demuxer
			d, err = demux.Open(args[0])
			if err == nil {
				media = d.Media()
				d.Close()
			}
		} else {
			media, err = demux.Probe(args[0])
		}
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(media))
			return
		}

		printMedia(cmd, media)
	},
}

func printMedia(cmd *cobra.Command, media *mediainfo.Media) {
	header := style.New().Bold(true).Foreground(color.HiPurple).Render
	faint := style.Faint

	cmd.Printf("%s %s\n", icon.Get(icon.Video), style.Bold(media.Title()))
	cmd.Printf("  %s %s  %s %s  %s %s\n",
		faint("container"), media.Format,
		faint("duration"), util.FormatTimestamp(media.Duration),
		faint("size"), fmt.Sprintf("%.1f MiB", float64(media.Size)/(1<<20)),
	)
	cmd.Println()

	if len(media.Video) > 0 {
		cmd.Println(header(util.Quantify(len(media.Video), "Video stream", "Video streams")))
		for _, v := range media.Video {
			def := ""
			if v.Default {
				def = faint(" (default)")
			}
			cmd.Printf("  #%d %s %dx%d @ %.3g fps %s%s\n",
				v.Index, v.CodecName, v.Width, v.Height, v.FrameRate.Float64(), faint(v.PixelFmt), def)
		}
		cmd.Println()
	}

	if len(media.Audio) > 0 {
		cmd.Println(header(util.Quantify(len(media.Audio), "Audio stream", "Audio streams")))
		for _, a := range media.Audio {
			def := ""
			if a.Default {
				def = faint(" (default)")
			}
			tags := streamLabel(a.Language, a.Title)
			cmd.Printf("  #%d %s %d Hz %s%s%s\n",
				a.Index, a.CodecName, a.SampleRate, a.Layout, tags, def)
		}
		cmd.Println()
	}

	if len(media.Subtitle) > 0 {
		cmd.Println(header(util.Quantify(len(media.Subtitle), "Subtitle stream", "Subtitle streams")))
		for _, s := range media.Subtitle {
			cmd.Printf("  #%d %s%s\n", s.Index, s.CodecName, streamLabel(s.Language, s.Title))
		}
		cmd.Println()
	}

	if len(media.Chapters) > 0 {
		cmd.Println(header(util.Quantify(len(media.Chapters), "Chapter", "Chapters")))
		for _, c := range media.Chapters {
			cmd.Printf("  %s %s\n", faint(util.FormatTimestamp(c.Start)), c.Title)
		}
		cmd.Println()
	}

	if len(media.Metadata) > 0 {
		width, _, err := util.TerminalSize()
		if err != nil || width <= 0 {
			width = 80
		}

		cmd.Println(header("Metadata"))
		keys := lo.Keys(media.Metadata)
		sort.Strings(keys)
		for _, k := range keys {
			line := fmt.Sprintf("  %s %s", faint(k), media.Metadata[k])
			cmd.Println(wrap.String(line, width))
		}
	}
}

func streamLabel(language, title string) string {
	parts := make([]string, 0, 2)
	if language != "" {
		parts = append(parts, language)
	}
	if title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return ""
	}
	return style.Faint(" [" + strings.Join(parts, ", ") + "]")
}
