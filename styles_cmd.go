package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var stylesCmd = &cobra.Command{
	Use:     "styles [VOICE_ID]",
	Short:   "List speaking styles",
	Long:    paragraph(fmt.Sprintf("\nList the speaking styles of one voice, or of %s. Voices without styles only speak %s.", keyword("every voice"), keyword("default"))),
	Example: paragraph("prosodify styles\nprosodify styles en-US-AriaNeural"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadVoices(cmd.Context(), false)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			if _, ok := store.Voice(args[0]); !ok {
				return fmt.Errorf("unknown voice %q", args[0])
			}
			for _, s := range store.VoiceStyles(args[0]) {
				fmt.Println(s)
			}
			return nil
		}

		all := store.AllStyles()
		for _, id := range slices.Sorted(maps.Keys(all)) {
			fmt.Printf("%s\t%s\n", id, strings.Join(all[id], ", "))
		}
		return nil
	},
}
