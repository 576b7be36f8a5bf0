package suno

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLyrics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trims lines and drops blanks",
			input: "  line1  \n\n  line2\n",
			want:  "line1\nline2",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "only blank lines",
			input: "\n   \n\t\n",
			want:  "",
		},
		{
			name:  "already normalized",
			input: "verse one\nverse two",
			want:  "verse one\nverse two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLyrics(tt.input))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusStreaming))
	assert.True(t, IsTerminal(StatusComplete))
	assert.False(t, IsTerminal(StatusSubmitted))
	assert.False(t, IsTerminal(StatusQueued))
	assert.False(t, IsTerminal(StatusError))
}

func TestAllTerminal(t *testing.T) {
	assert.False(t, allTerminal(nil), "empty list is not terminal")
	assert.False(t, allTerminal([]AudioInfo{
		{ID: "a", Status: StatusComplete},
		{ID: "b", Status: StatusQueued},
	}))
	assert.True(t, allTerminal([]AudioInfo{
		{ID: "a", Status: StatusComplete},
		{ID: "b", Status: StatusStreaming},
	}))
}

func TestAudioFromClip(t *testing.T) {
	duration := 42.5
	cl := clip{
		ID:        "track-1",
		Title:     "晚风",
		ImageURL:  "https://cdn.example.com/image/clip=track-1.jpeg",
		AudioURL:  "https://cdn.example.com/audio/clip=track-1.mp3",
		Status:    StatusComplete,
		ModelName: "chirp-v3-0",
		Metadata: clipMetadata{
			Prompt:   "  line1  \n\n  line2\n",
			Tags:     "lofi, chill",
			Type:     "gen",
			Duration: &duration,
		},
	}

	normalized := audioFromClip(cl, true)
	assert.Equal(t, "line1\nline2", normalized.Lyric)
	assert.Equal(t, "  line1  \n\n  line2\n", normalized.Prompt, "raw prompt kept as-is")
	assert.Equal(t, &duration, normalized.Duration)

	raw := audioFromClip(cl, false)
	assert.Equal(t, "  line1  \n\n  line2\n", raw.Lyric)
}
