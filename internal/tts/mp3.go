package tts

import (
	"fmt"
	"os"
	"time"
)

// MPEG audio frame tables, Layer III only. Index 0 and 15 are invalid on
// purpose in the bitrate rows.
var (
	bitrateV1L3 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitrateV2L3 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}

	sampleRateV1  = [4]int{44100, 48000, 32000, 0}
	sampleRateV2  = [4]int{22050, 24000, 16000, 0}
	sampleRateV25 = [4]int{11025, 12000, 8000, 0}
)

// mp3Duration computes the playing time of an MP3 file by walking its frame
// headers. Constant and variable bitrate streams are both handled since each
// frame is measured individually.
func mp3Duration(path string) (time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read audio file: %w", err)
	}

	pos := skipID3(data)
	var total time.Duration
	frames := 0

	for pos+4 <= len(data) {
		frameLen, frameDur, ok := parseFrame(data[pos:])
		if !ok {
			// Resync on junk between frames.
			pos++
			continue
		}
		total += frameDur
		frames++
		pos += frameLen
	}

	if frames == 0 {
		return 0, fmt.Errorf("no MPEG frames found")
	}
	return total, nil
}

// skipID3 returns the offset past an ID3v2 tag, if present.
func skipID3(data []byte) int {
	if len(data) < 10 || string(data[0:3]) != "ID3" {
		return 0
	}
	// Syncsafe 28-bit size, header excluded.
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	return 10 + size
}

// parseFrame decodes one Layer III frame header at the start of data,
// returning the frame byte length and duration.
func parseFrame(data []byte) (int, time.Duration, bool) {
	if len(data) < 4 {
		return 0, 0, false
	}
	if data[0] != 0xFF || data[1]&0xE0 != 0xE0 {
		return 0, 0, false
	}

	version := (data[1] >> 3) & 0x03 // 0=2.5, 2=2, 3=1
	layer := (data[1] >> 1) & 0x03   // 1=III
	if version == 1 || layer != 1 {
		return 0, 0, false
	}

	bitrateIdx := (data[2] >> 4) & 0x0F
	sampleIdx := (data[2] >> 2) & 0x03
	padding := int((data[2] >> 1) & 0x01)

	var bitrate, sampleRate, samplesPerFrame int
	switch version {
	case 3: // MPEG 1
		bitrate = bitrateV1L3[bitrateIdx]
		sampleRate = sampleRateV1[sampleIdx]
		samplesPerFrame = 1152
	case 2: // MPEG 2
		bitrate = bitrateV2L3[bitrateIdx]
		sampleRate = sampleRateV2[sampleIdx]
		samplesPerFrame = 576
	default: // MPEG 2.5
		bitrate = bitrateV2L3[bitrateIdx]
		sampleRate = sampleRateV25[sampleIdx]
		samplesPerFrame = 576
	}
	if bitrate == 0 || sampleRate == 0 {
		return 0, 0, false
	}

	frameLen := samplesPerFrame/8*bitrate*1000/sampleRate + padding
	if frameLen <= 0 {
		return 0, 0, false
	}
	frameDur := time.Duration(float64(samplesPerFrame) / float64(sampleRate) * float64(time.Second))
	return frameLen, frameDur, true
}
