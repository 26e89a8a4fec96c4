package domain

import (
	"path/filepath"
	"strings"
)

// FileExtension returns the lowercase extension without the leading dot.
func FileExtension(filename string) string {
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(filename)))
	return strings.TrimPrefix(ext, ".")
}

// approximate bytes per second of audio payload per container, used when a
// provider does not report duration
var formatBytesPerSecond = map[string]float64{
	"mp3":  16000, // ~128 kbps
	"m4a":  16000,
	"aac":  16000,
	"ogg":  12000, // ~96 kbps
	"opus": 8000,  // ~64 kbps
	"webm": 12000,
	"wav":  176400, // 16-bit 44.1 kHz stereo PCM
	"aiff": 176400,
	"au":   176400,
	"flac": 88200, // ~half of PCM
	"amr":  1650,
	"ac3":  48000,
	"ra":   8000,
	"3gp":  1650,
	"3gpp": 1650,
	"mp4":  32000,
	"mov":  32000,
	"avi":  32000,
}

// EstimateDurationSeconds estimates audio duration from payload size using a
// per-format bitrate table. Unknown formats assume mp3-class compression.
func EstimateDurationSeconds(filename string, size int64) float64 {
	if size <= 0 {
		return 0
	}
	bps, ok := formatBytesPerSecond[FileExtension(filename)]
	if !ok {
		bps = 16000
	}
	return float64(size) / bps
}
