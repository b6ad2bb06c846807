package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindTrack(t *testing.T) {
	manualKo := Track{LanguageCode: "ko"}
	autoKo := Track{LanguageCode: "ko", IsGenerated: true}
	manualEn := Track{LanguageCode: "en"}
	autoEn := Track{LanguageCode: "en", IsGenerated: true}

	tests := []struct {
		name      string
		tracks    []Track
		languages []string
		want      Track
		wantFound bool
	}{
		{
			name:      "first language wins",
			tracks:    []Track{manualEn, manualKo},
			languages: []string{"ko", "en"},
			want:      manualKo,
			wantFound: true,
		},
		{
			name:      "manual preferred over generated",
			tracks:    []Track{autoKo, manualKo},
			languages: []string{"ko"},
			want:      manualKo,
			wantFound: true,
		},
		{
			name:      "plain code falls back to generated",
			tracks:    []Track{manualEn, autoKo},
			languages: []string{"ko", "en"},
			want:      autoKo,
			wantFound: true,
		},
		{
			name:      "generated code skips manual tracks",
			tracks:    []Track{manualKo, autoEn},
			languages: []string{"a.en", "ko"},
			want:      autoEn,
			wantFound: true,
		},
		{
			name:      "generated code without generated track",
			tracks:    []Track{manualKo},
			languages: []string{"a.ko"},
		},
		{
			name:      "nothing matches",
			tracks:    []Track{manualEn},
			languages: []string{"ko", "a.ko"},
		},
		{
			name:      "no tracks",
			languages: []string{"ko"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindTrack(tt.tracks, tt.languages)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranscriptText(t *testing.T) {
	tr := &Transcript{Snippets: []Snippet{
		{Text: "  hello "},
		{Text: "\n"},
		{Text: "world\n"},
	}}
	assert.Equal(t, "hello world", tr.Text())

	assert.Equal(t, "", (&Transcript{}).Text())
}

func TestTrackCode(t *testing.T) {
	assert.Equal(t, "ko", Track{LanguageCode: "ko"}.Code())
	assert.Equal(t, "a.ko", Track{LanguageCode: "ko", IsGenerated: true}.Code())
}

func TestParseTimedTextEmpty(t *testing.T) {
	snippets, err := parseTimedText([]byte(`<transcript></transcript>`))
	assert.NoError(t, err)
	assert.Empty(t, snippets)
}
