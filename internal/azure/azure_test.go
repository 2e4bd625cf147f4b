package azure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const voicesList = `[
	{"ShortName":"en-US-GuyNeural","DisplayName":"Guy","Locale":"en-US","LocaleName":"English (United States)","Gender":"Male","VoiceType":"Neural","StyleList":["newscast","angry"],"SampleRateHertz":"24000","Status":"GA","WordsPerMinute":"145"},
	{"ShortName":"en-US-AriaNeural","DisplayName":"Aria","Locale":"en-US","LocaleName":"English (United States)","Gender":"Female","VoiceType":"Neural","StyleList":["cheerful","angry"],"SampleRateHertz":"24000","Status":"GA"},
	{"ShortName":"en-AU-NatashaNeural","DisplayName":"Natasha","Locale":"en-AU","LocaleName":"English (Australia)","Gender":"Female","VoiceType":"Neural","SampleRateHertz":"48000","Status":"GA","WordsPerMinute":150},
	{"ShortName":"en-US-JessaRUS","DisplayName":"Jessa","Locale":"en-US","Gender":"Female","VoiceType":"Standard"},
	{"ShortName":"de-DE-KatjaNeural","DisplayName":"Katja","Locale":"de-DE","Gender":"Female","VoiceType":"Neural"}
]`

func TestListVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		io.WriteString(w, voicesList)
	}))
	defer srv.Close()

	c := NewClient("westus", "secret", WithEndpoint(srv.URL))
	raw, err := c.ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 5)
	assert.Equal(t, "en-US-GuyNeural", raw[0].ShortName)
	assert.Equal(t, []string{"newscast", "angry"}, raw[0].StyleList)
	assert.Equal(t, 145, raw[0].WordsPerMinute)
	assert.Equal(t, 150, raw[2].WordsPerMinute)
	assert.Nil(t, raw[2].StyleList)
}

func TestListVoicesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "Access denied\n")
	}))
	defer srv.Close()

	c := NewClient("westus", "wrong", WithEndpoint(srv.URL))
	_, err := c.ListVoices(context.Background())

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
	assert.Equal(t, "Access denied", ue.Body)
}

func TestListVoicesNotConfigured(t *testing.T) {
	for _, c := range []*Client{NewClient("", "key"), NewClient("westus", "")} {
		assert.False(t, c.Configured())
		_, err := c.ListVoices(context.Background())
		assert.True(t, errors.Is(err, ErrNotConfigured))
	}
	assert.Equal(t, "westus", NewClient("westus", "k").Region())
}

func TestOrganize(t *testing.T) {
	raw, err := parseVoices([]byte(voicesList))
	require.NoError(t, err)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	cat := Organize(raw, DefaultFilter, now)

	assert.True(t, cat.Success)
	require.Equal(t, 3, cat.TotalCount)
	var ids []string
	for _, v := range cat.Voices {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"en-AU-NatashaNeural", "en-US-AriaNeural", "en-US-GuyNeural"}, ids)

	assert.Equal(t, 2, cat.LocaleCount)
	assert.Len(t, cat.GroupedByLocale["en-US"].Voices, 2)
	assert.Equal(t, "English (Australia)", cat.GroupedByLocale["en-AU"].LocaleName)
	assert.Equal(t, 3, cat.TotalStyles, "newscast, angry, cheerful")
	assert.Equal(t, time.UTC, cat.LastUpdated.Location())
	assert.Equal(t, []string{}, cat.Voices[0].Styles)
}

func TestOrganizeWithoutFilter(t *testing.T) {
	raw, err := parseVoices([]byte(voicesList))
	require.NoError(t, err)

	cat := Organize(raw, Filter{}, time.Now())
	assert.Equal(t, 5, cat.TotalCount)
	assert.Equal(t, "de-DE", cat.Voices[0].Locale)
}

func TestStyleMap(t *testing.T) {
	cat := Catalog{Voices: []Voice{
		{ID: "a", Styles: []string{"cheerful", "default"}},
		{ID: "b", Styles: []string{}},
	}}
	m := cat.StyleMap()
	assert.Equal(t, []string{"default", "cheerful"}, m["a"])
	assert.Equal(t, []string{"default"}, m["b"])
}

func TestParseVoicesRejectsObject(t *testing.T) {
	_, err := parseVoices([]byte(`{"voices":[]}`))
	assert.Error(t, err)
}
