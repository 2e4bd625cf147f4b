package azure

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filter selects which Azure voices make it into the catalog.
type Filter struct {
	LocalePrefix string // e.g. "en-"; empty keeps every locale
	VoiceType    string // e.g. "Neural"; empty keeps every type
}

// DefaultFilter keeps English neural voices.
var DefaultFilter = Filter{LocalePrefix: "en-", VoiceType: "Neural"}

// Voice is a catalog entry as served by the voices API.
type Voice struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ShortName       string   `json:"shortName"`
	Locale          string   `json:"locale"`
	LocaleName      string   `json:"localeName"`
	Gender          string   `json:"gender"`
	VoiceType       string   `json:"voiceType"`
	Styles          []string `json:"styles"`
	Roles           []string `json:"roles"`
	SampleRateHertz string   `json:"sampleRateHertz"`
	Status          string   `json:"status"`
	WordsPerMinute  int      `json:"wordsPerMinute"`
}

// LocaleGroup is the voices of one locale.
type LocaleGroup struct {
	Locale     string  `json:"locale"`
	LocaleName string  `json:"localeName"`
	Voices     []Voice `json:"voices"`
}

// Catalog is the voices API payload.
type Catalog struct {
	Success         bool                   `json:"success"`
	Voices          []Voice                `json:"voices"`
	GroupedByLocale map[string]LocaleGroup `json:"groupedByLocale"`
	TotalCount      int                    `json:"totalCount"`
	TotalStyles     int                    `json:"totalStyles"`
	LastUpdated     time.Time              `json:"lastUpdated"`
	LocaleCount     int                    `json:"localeCount"`
}

// Organize filters raw, sorts it by locale then name and groups it by locale.
func Organize(raw []RawVoice, f Filter, now time.Time) Catalog {
	voices := make([]Voice, 0, len(raw))
	for _, r := range raw {
		if !strings.HasPrefix(r.Locale, f.LocalePrefix) {
			continue
		}
		if f.VoiceType != "" && r.VoiceType != f.VoiceType {
			continue
		}
		voices = append(voices, Voice{
			ID:              r.ShortName,
			Name:            r.DisplayName,
			ShortName:       r.ShortName,
			Locale:          r.Locale,
			LocaleName:      r.LocaleName,
			Gender:          r.Gender,
			VoiceType:       r.VoiceType,
			Styles:          nonNil(r.StyleList),
			Roles:           nonNil(r.RolePlayList),
			SampleRateHertz: r.SampleRateHertz,
			Status:          r.Status,
			WordsPerMinute:  r.WordsPerMinute,
		})
	}

	col := collate.New(language.Und)
	slices.SortStableFunc(voices, func(a, b Voice) int {
		if a.Locale != b.Locale {
			return col.CompareString(a.Locale, b.Locale)
		}
		return col.CompareString(a.Name, b.Name)
	})

	groups := make(map[string]LocaleGroup)
	styles := make(map[string]struct{})
	for _, v := range voices {
		g, ok := groups[v.Locale]
		if !ok {
			g = LocaleGroup{Locale: v.Locale, LocaleName: v.LocaleName}
		}
		g.Voices = append(g.Voices, v)
		groups[v.Locale] = g

		for _, s := range v.Styles {
			styles[s] = struct{}{}
		}
	}

	return Catalog{
		Success:         true,
		Voices:          voices,
		GroupedByLocale: groups,
		TotalCount:      len(voices),
		TotalStyles:     len(styles),
		LastUpdated:     now.UTC(),
		LocaleCount:     len(groups),
	}
}

// StyleMap returns each voice's styles with "default" first.
func (c Catalog) StyleMap() map[string][]string {
	out := make(map[string][]string, len(c.Voices))
	for _, v := range c.Voices {
		styles := []string{"default"}
		for _, s := range v.Styles {
			if s != "default" {
				styles = append(styles, s)
			}
		}
		out[v.ID] = styles
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
