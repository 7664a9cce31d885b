package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"shortsengine/internal/endcard"
)

func newEndcardCmd() *cobra.Command {
	var (
		url     string
		caption string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "endcard <project>",
		Short: "Generate the QR call-to-action still for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dirs := cfg.Project(args[0])
			if err := dirs.Ensure(); err != nil {
				return err
			}
			path := output
			if path == "" {
				path = filepath.Join(dirs.Assets, "endcard.png")
			}
			card := endcard.Card{
				Width:   cfg.Width,
				Height:  cfg.Height,
				URL:     url,
				Caption: caption,
			}
			if err := card.Render(path); err != nil {
				return err
			}
			fmt.Printf("endcard written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "target URL encoded into the QR code")
	cmd.Flags().StringVar(&caption, "caption", "", "caption drawn under the QR code")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default <project>/assets/endcard.png)")
	cmd.MarkFlagRequired("url")
	return cmd
}
