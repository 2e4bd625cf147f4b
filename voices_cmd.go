package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/prosodify/prosodify/internal/voicecache"
)

var (
	refresh bool
	asJSON  bool

	voicesCmd = &cobra.Command{
		Use:     "voices",
		Short:   "List available voices",
		Long:    paragraph(fmt.Sprintf("\nList the voices the API offers. The list is %s and reused until it expires.", keyword("saved locally"))),
		Example: paragraph("prosodify voices\nprosodify voices --locale de-\nprosodify voices --refresh --json"),
		Args:    cobra.NoArgs,
		RunE:    runVoices,
	}

	voiceShowCmd = &cobra.Command{
		Use:   "show VOICE_ID",
		Short: "Show a voice and its speaking styles",
		Args:  cobra.ExactArgs(1),
		RunE:  runVoiceShow,
	}
)

func init() {
	voicesCmd.PersistentFlags().BoolVarP(&refresh, "refresh", "r", false, "ignore the saved list and download again")
	voicesCmd.Flags().BoolVar(&asJSON, "json", false, "print voices as JSON")
	voicesCmd.AddCommand(voiceShowCmd)
}

// loadVoices makes sure the store has data, warning when it fell back to a
// saved list.
func loadVoices(ctx context.Context, force bool) (*voicecache.Store, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	if err := store.LoadData(ctx, force); err != nil {
		return nil, fmt.Errorf("unable to load voices: %w", err)
	}
	if err := store.Err(); err != nil {
		fmt.Fprintln(os.Stderr, warn("Voices API unavailable, using saved voices: "+err.Error()))
	}
	return store, nil
}

func filterLocale(voices []voicecache.Voice, prefix string) []voicecache.Voice {
	if prefix == "" {
		return voices
	}
	out := voices[:0]
	for _, v := range voices {
		if strings.HasPrefix(v.Locale, prefix) || strings.HasPrefix(v.Language, prefix) {
			out = append(out, v)
		}
	}
	return out
}

func runVoices(cmd *cobra.Command, _ []string) error {
	store, err := loadVoices(cmd.Context(), refresh)
	if err != nil {
		return err
	}
	voices := filterLocale(store.Voices(), locale)
	log.Debug("Listing voices", "count", len(voices), "locale", locale)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(voices) //nolint:wrapcheck
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		for _, v := range voices {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\n", v.ID, v.Label(), v.Locale, v.Gender,
				strings.Join(store.VoiceStyles(v.ID), ","))
		}
		return nil
	}

	rows := make([][]string, 0, len(voices))
	for _, v := range voices {
		rows = append(rows, []string{
			v.Label(),
			v.ID,
			v.Locale,
			v.Gender,
			fmt.Sprint(len(store.VoiceStyles(v.ID))),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("NAME", "ID", "LOCALE", "GENDER", "STYLES").
		Rows(rows...)

	fmt.Println(t)
	fmt.Println(faint(fmt.Sprintf("  %d voices", len(voices))))
	return nil
}

func runVoiceShow(cmd *cobra.Command, args []string) error {
	store, err := loadVoices(cmd.Context(), refresh)
	if err != nil {
		return err
	}

	v, ok := store.Voice(args[0])
	if !ok {
		return fmt.Errorf("unknown voice %q", args[0])
	}

	out, err := renderMarkdown(voiceMarkdown(v, store.VoiceStyles(v.ID)))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func voiceMarkdown(v voicecache.Voice, voiceStyles []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n`%s`\n\n", v.Label(), v.ID)
	b.WriteString("| | |\n|---|---|\n")
	for _, row := range [][2]string{
		{"Name", v.Name},
		{"Short name", v.ShortName},
		{"Locale", v.Locale},
		{"Language", v.Language},
		{"Gender", v.Gender},
	} {
		if row[1] != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", row[0], row[1])
		}
	}
	b.WriteString("\n## Styles\n\n")
	for _, s := range voiceStyles {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return b.String()
}

func renderMarkdown(md string) (string, error) {
	width := 80
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil {
			width = min(w, 120)
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(styles.AutoStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}
