package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"shortsengine/internal/blueprint"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <project> <version>",
		Short: "Show per-shot stage completion for a project version",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Lockless read so status works while a render is running.
			bp, err := blueprint.Read(cfg.BlueprintPath(args[0], args[1]))
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.SetTitle("%s / %s", bp.ProjectName, bp.Version)
			t.AppendHeader(table.Row{"#", "Shot", "Duration", "Motion", "Captions", "Rendered"})
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 3, Align: text.AlignRight},
			})

			for i, shot := range bp.Scene.Shots {
				t.AppendRow(table.Row{
					i + 1,
					shot.ShotID,
					formatSeconds(shot.DurationSeconds),
					mark(shot.MotionApplied),
					mark(shot.CaptionsGenerated),
					mark(shot.FinalRendered),
				})
			}
			t.AppendFooter(table.Row{"", "", "audio", mark(bp.AudioGenerated), "assembled", mark(bp.Rendered)})
			t.Render()

			if bp.Rendered && bp.OutputPath != "" {
				fmt.Printf("deliverable: %s\n", bp.OutputPath)
			}
			return nil
		},
	}
}

func mark(done bool) string {
	if done {
		return "✓"
	}
	return "·"
}

func formatSeconds(s float64) string {
	if s <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fs", s)
}
