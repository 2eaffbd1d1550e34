// Package cmd implements the command-line interface for kinoray.
package cmd

import (
	"os"

	"github.com/kinoray-player/kinoray/color"
	"github.com/kinoray-player/kinoray/history"
	"github.com/kinoray-player/kinoray/icon"
	"github.com/kinoray-player/kinoray/style"
	"github.com/kinoray-player/kinoray/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Bool("clear", false, "Drop every saved playback position")
	historyCmd.Flags().StringP("remove", "r", "", "Remove the saved position for a specific file")
	historyCmd.MarkFlagsMutuallyExclusive("clear", "remove")

	historyCmd.SetOut(os.Stdout)
}

// historyCmd lists and manages saved playback positions.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display and manage saved playback positions",
	Run: func(cmd *cobra.Command, args []string) {
		store := history.NewStore()

		if lo.Must(cmd.Flags().GetBool("clear")) {
			handleErr(store.Clear())
			cmd.Printf("%s cleared history\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}

		if path := lo.Must(cmd.Flags().GetString("remove")); path != "" {
			handleErr(store.Remove(path))
			cmd.Printf("%s removed %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
			return
		}

		entries, err := store.Entries()
		handleErr(err)

		if len(entries) == 0 {
			cmd.Println(style.Faint("history is empty"))
			return
		}

		for _, entry := range entries {
			cmd.Printf("%s %s %s\n",
				style.Faint(util.FormatTimestamp(entry.Position)+" / "+util.FormatTimestamp(entry.Duration)),
				entry.Path,
				style.Faint(entry.UpdatedAt.Format("2006-01-02 15:04")),
			)
		}
	},
}
