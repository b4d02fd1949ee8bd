package asset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// SoundFormat はサウンドアセットの形式
type SoundFormat string

const (
	SoundMIDI      SoundFormat = "midi"
	SoundSoundFont SoundFormat = "sf2"
	SoundWAV       SoundFormat = "wav"
)

// ErrUnsupportedSound は未対応のサウンド形式を示す
var ErrUnsupportedSound = errors.New("unsupported sound format")

// SoundAsset はサウンドアセットの情報
// 再生は行わない。形式ごとに読み取れる情報だけを保持する
type SoundAsset struct {
	Name     string
	Format   SoundFormat
	Duration time.Duration // MIDI、WAV
	Presets  int           // SoundFont

	SampleRate int // WAV
	Channels   int // WAV
}

// DecodeSound は拡張子に応じてサウンドアセットを読み込む
func DecodeSound(name string, data []byte) (*SoundAsset, error) {
	s := &SoundAsset{Name: name}

	switch strings.ToLower(path.Ext(name)) {
	case ".mid", ".midi":
		midi, err := meltysynth.NewMidiFile(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse MIDI file %s: %w", name, err)
		}
		s.Format = SoundMIDI
		s.Duration = midi.GetLength()

	case ".sf2":
		sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to load SoundFont %s: %w", name, err)
		}
		s.Format = SoundSoundFont
		s.Presets = len(sf.Presets)

	case ".wav":
		if err := decodeWAVHeader(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse WAV file %s: %w", name, err)
		}
		s.Format = SoundWAV

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSound, name)
	}

	return s, nil
}

// decodeWAVHeader はRIFF/WAVEのfmtチャンクとdataチャンクを読む
func decodeWAVHeader(data []byte, s *SoundAsset) error {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return errors.New("invalid RIFF/WAVE header")
	}

	var byteRate uint32
	dataSize := -1
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8:]
		if size > len(body) {
			size = len(body)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return errors.New("fmt chunk too short")
			}
			s.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			s.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			byteRate = binary.LittleEndian.Uint32(body[8:12])
		case "data":
			dataSize = size
		}

		// チャンクは2バイト境界に揃えられる
		pos += 8 + size + size%2
	}

	if s.SampleRate == 0 {
		return errors.New("missing fmt chunk")
	}
	if dataSize < 0 {
		return errors.New("missing data chunk")
	}
	if byteRate > 0 {
		s.Duration = time.Duration(float64(dataSize) / float64(byteRate) * float64(time.Second))
	}
	return nil
}
