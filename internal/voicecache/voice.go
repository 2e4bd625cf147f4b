package voicecache

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// Voice is one synthesizable voice in canonical shape. Upstream payloads are
// normalized into it as soon as they are decoded; fields the upstream sends
// that have no canonical home are kept verbatim in Extra.
type Voice struct {
	ID          string
	Name        string
	ShortName   string
	DisplayName string
	Language    string
	Locale      string
	Gender      string
	Styles      []string
	Extra       map[string]json.RawMessage
}

// Field-name variants seen from the upstream provider over time.
var (
	idKeys          = []string{"id", "Id", "ID"}
	nameKeys        = []string{"name", "Name"}
	shortNameKeys   = []string{"shortName", "ShortName", "short_name"}
	displayNameKeys = []string{"displayName", "DisplayName", "display_name"}
	languageKeys    = []string{"language", "Language", "lang", "Lang"}
	localeKeys      = []string{"locale", "Locale"}
	genderKeys      = []string{"gender", "Gender", "sex", "Sex"}
	styleKeys       = []string{"styles", "Styles", "styleList", "StyleList"}

	knownKeys = func() map[string]struct{} {
		m := make(map[string]struct{})
		for _, group := range [][]string{
			idKeys, nameKeys, shortNameKeys, displayNameKeys,
			languageKeys, localeKeys, genderKeys, styleKeys,
		} {
			for _, k := range group {
				m[k] = struct{}{}
			}
		}
		return m
	}()
)

// UnmarshalJSON decodes any historical voice shape into the canonical one.
func (v *Voice) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("voicecache: invalid voice JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("voicecache: voice must be an object, got %s", res.Type)
	}

	out := Voice{
		ID:          probe(res, idKeys),
		Name:        probe(res, nameKeys),
		ShortName:   probe(res, shortNameKeys),
		DisplayName: probe(res, displayNameKeys),
		Language:    probe(res, languageKeys),
		Locale:      probe(res, localeKeys),
		Gender:      probe(res, genderKeys),
		Styles:      probeStyles(res),
	}
	if out.ID == "" {
		out.ID = out.ShortName
	}
	if out.Name == "" {
		out.Name = out.DisplayName
	}
	if out.Language == "" {
		out.Language = out.Locale
	}

	res.ForEach(func(key, value gjson.Result) bool {
		if _, ok := knownKeys[key.String()]; ok {
			return true
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[key.String()] = json.RawMessage(value.Raw)
		return true
	})

	*v = out
	return nil
}

// MarshalJSON writes the canonical field names alongside the preserved extras.
func (v Voice) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Extra)+8)
	for k, raw := range v.Extra {
		out[k] = raw
	}
	out["id"] = v.ID
	for k, val := range map[string]string{
		"name":        v.Name,
		"shortName":   v.ShortName,
		"displayName": v.DisplayName,
		"language":    v.Language,
		"locale":      v.Locale,
		"gender":      v.Gender,
	} {
		if val != "" {
			out[k] = val
		}
	}
	if len(v.Styles) > 0 {
		out["styles"] = v.Styles
	}
	return json.Marshal(out)
}

// Label returns the best human-readable name for the voice.
func (v Voice) Label() string {
	switch {
	case v.DisplayName != "":
		return v.DisplayName
	case v.Name != "":
		return v.Name
	default:
		return v.ID
	}
}

// EffectiveStyles returns the voice's own styles, or the implicit default.
func (v Voice) EffectiveStyles() []string {
	if len(v.Styles) == 0 {
		return []string{DefaultStyle}
	}
	return slices.Clone(v.Styles)
}

// ParseVoices decodes a JSON array of voices and normalizes the catalog.
func ParseVoices(data []byte) ([]Voice, error) {
	var voices []Voice
	if err := json.Unmarshal(data, &voices); err != nil {
		return nil, fmt.Errorf("voicecache: decode voices: %w", err)
	}
	return normalizeCatalog(voices), nil
}

// normalizeCatalog drops voices without an id and keeps the first occurrence
// of a duplicated id, preserving upstream order.
func normalizeCatalog(in []Voice) []Voice {
	out := make([]Voice, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if v.ID == "" {
			continue
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		v.Styles = uniqueStyles(v.Styles)
		out = append(out, v)
	}
	return out
}

func probe(res gjson.Result, keys []string) string {
	for _, k := range keys {
		r := res.Get(k)
		switch r.Type {
		case gjson.String:
			if s := strings.TrimSpace(r.Str); s != "" {
				return s
			}
		case gjson.Number:
			return r.Raw
		}
	}
	return ""
}

func probeStyles(res gjson.Result) []string {
	for _, k := range styleKeys {
		r := res.Get(k)
		if !r.IsArray() {
			continue
		}
		var styles []string
		r.ForEach(func(_, s gjson.Result) bool {
			if s.Type == gjson.String {
				styles = append(styles, s.Str)
			}
			return true
		})
		return uniqueStyles(styles)
	}
	return nil
}

// uniqueStyles trims, drops empties and removes repeats, keeping order.
func uniqueStyles(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func cloneVoices(in []Voice) []Voice {
	out := make([]Voice, len(in))
	for i, v := range in {
		v.Styles = slices.Clone(v.Styles)
		v.Extra = maps.Clone(v.Extra)
		out[i] = v
	}
	return out
}

func cloneStyles(in Styles) Styles {
	out := make(Styles, len(in))
	for id, styles := range in {
		out[id] = slices.Clone(styles)
	}
	return out
}

// defaultStyles synthesizes a style map from each voice's own styles.
func defaultStyles(voices []Voice) Styles {
	out := make(Styles, len(voices))
	for _, v := range voices {
		out[v.ID] = v.EffectiveStyles()
	}
	return out
}

func normalizeStyles(in Styles) Styles {
	out := make(Styles, len(in))
	for id, styles := range in {
		if id == "" {
			continue
		}
		if u := uniqueStyles(styles); len(u) > 0 {
			out[id] = u
		}
	}
	return out
}
