package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileExtension(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"meeting.mp3", "mp3"},
		{"meeting.MP3", "mp3"},
		{"archive.tar.gz", "gz"},
		{"noextension", ""},
		{".hidden", "hidden"},
		{"  padded.wav  ", "wav"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FileExtension(tc.filename), tc.filename)
	}
}

func TestEstimateDurationSeconds(t *testing.T) {
	// one minute of ~128 kbps mp3
	assert.InDelta(t, 60, EstimateDurationSeconds("talk.mp3", 60*16000), 0.001)

	// PCM wav runs at 176400 bytes per second
	assert.InDelta(t, 10, EstimateDurationSeconds("talk.wav", 10*176400), 0.001)

	// unknown containers assume mp3-class compression
	assert.InDelta(t, 1, EstimateDurationSeconds("talk.xyz", 16000), 0.001)

	assert.Zero(t, EstimateDurationSeconds("talk.mp3", 0))
	assert.Zero(t, EstimateDurationSeconds("talk.mp3", -5))
}

func TestResultWordCount(t *testing.T) {
	assert.Equal(t, 0, Result{}.WordCount())
	assert.Equal(t, 1, Result{Text: "hello"}.WordCount())
	assert.Equal(t, 3, Result{Text: "  one\ttwo\nthree  "}.WordCount())
}
