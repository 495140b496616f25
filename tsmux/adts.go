/*
DESCRIPTION
  adts.go - ADTS header wrapping for AAC access units, the inverse ADTS
  frame parser, and esds descriptor-chain extraction of AudioSpecificConfig.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024-2026 the Australian Ocean Lab (AusOcean).

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  This is distributed in the hope that it will be useful, but WITHOUT
  ANY WARRANTY; without even the implied warranty of MERCHANTABILITY
  or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public
  License for more details.

  You should have received a copy of the GNU General Public License in
  gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package tsmux

import (
	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/livemodel"
)

// ADTSSampleRates is the 16-entry ADTS sampling-frequency table. Indices
// 13, 14 and 15 are reserved and map to 0.
var ADTSSampleRates = [16]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000, 7350, 0, 0, 0,
}

// WrapADTS prepends a 7-byte ADTS header (no CRC) to au, an AAC access
// unit, using the given codec config (spec.md §4.1).
//
// The 2-bit profile field is cfg.ProfileIndex (the MPEG-4 Audio Object Type
// minus one) unchanged -- it is never remapped (spec.md §9).
func WrapADTS(au []byte, cfg livemodel.AACConfig) []byte {
	frameLen := len(au) + 7
	out := make([]byte, 7, frameLen)

	out[0] = 0xFF
	out[1] = 0xF1 // sync cont., MPEG-4 (0), layer 00, protection_absent 1

	out[2] = (cfg.ProfileIndex&0x3)<<6 | (cfg.SampleRateIndex&0xF)<<2 | (cfg.ChannelConfig&0x4)>>2

	out[3] = (cfg.ChannelConfig&0x3)<<6 | byte((frameLen>>11)&0x3)
	out[4] = byte((frameLen >> 3) & 0xFF)
	out[5] = byte((frameLen&0x7)<<5) | 0x1F // buffer fullness high bits all 1 (0x7FF)
	out[6] = 0xFC                           // buffer fullness low byte (0xFF) with num_raw_data_blocks=00 -> 0xFC

	return append(out, au...)
}

// ADTSFrame describes one parsed ADTS frame.
type ADTSFrame struct {
	Profile         byte
	SampleRateIndex byte
	SampleRate      int
	ChannelConfig   byte
	Payload         []byte
	HeaderSize      int // 7, or 9 if a CRC field is present.
	FrameLength     int // Total frame length, header included.
}

// ParseADTS scans b for ADTS frames (sync word 0xFFF) and returns every
// complete frame found. A partial trailing frame at the end of b is
// neither reported nor consumed.
func ParseADTS(b []byte) []ADTSFrame {
	var frames []ADTSFrame
	i := 0
	for i+7 <= len(b) {
		if b[i] != 0xFF || b[i+1]&0xF0 != 0xF0 {
			i++
			continue
		}
		protectionAbsent := b[i+1]&0x1 != 0
		profile := (b[i+2] >> 6) & 0x3
		sampleRateIdx := (b[i+2] >> 2) & 0xF
		channelCfg := (b[i+2]&0x1)<<2 | (b[i+3] >> 6)
		frameLen := int(b[i+3]&0x3)<<11 | int(b[i+4])<<3 | int(b[i+5]>>5)

		headerSize := 7
		if !protectionAbsent {
			headerSize = 9
		}
		if frameLen < headerSize || i+frameLen > len(b) {
			break
		}

		frames = append(frames, ADTSFrame{
			Profile:         profile,
			SampleRateIndex: sampleRateIdx,
			SampleRate:      ADTSSampleRates[sampleRateIdx],
			ChannelConfig:   channelCfg,
			Payload:         b[i+headerSize : i+frameLen],
			HeaderSize:      headerSize,
			FrameLength:     frameLen,
		})
		i += frameLen
	}
	return frames
}

// ExtractAACConfig walks an esds descriptor chain (tag 0x03 -> inner tag
// 0x04 -> inner tag 0x05) and decodes the AudioSpecificConfig within,
// returning the profile/sample-rate/channel fields needed to build an ADTS
// header.
func ExtractAACConfig(esds []byte) (livemodel.AACConfig, error) {
	var cfg livemodel.AACConfig

	i, err := expectDescriptorTag(esds, 0, 0x03)
	if err != nil {
		return cfg, err
	}
	// ES_ID (2 bytes) + flags (1 byte).
	if i+3 > len(esds) {
		return cfg, hlserr.New(hlserr.InvalidAudioConfig, "truncated ES descriptor")
	}
	i += 3

	i, err = expectDescriptorTag(esds, i, 0x04)
	if err != nil {
		return cfg, err
	}
	// objectTypeIndication(1) + streamType/upStream/reserved(1) +
	// bufferSizeDB(3) + maxBitrate(4) + avgBitrate(4) = 13 bytes.
	if i+13 > len(esds) {
		return cfg, hlserr.New(hlserr.InvalidAudioConfig, "truncated decoder config descriptor")
	}
	i += 13

	i, err = expectDescriptorTag(esds, i, 0x05)
	if err != nil {
		return cfg, err
	}
	if i+2 > len(esds) {
		return cfg, hlserr.New(hlserr.InvalidAudioConfig, "truncated AudioSpecificConfig")
	}

	// AudioSpecificConfig: 5-bit audioObjectType, 4-bit samplingFrequencyIndex,
	// 4-bit channelConfiguration, packed MSB-first across the first two bytes.
	b0, b1 := esds[i], esds[i+1]
	objType := (b0 >> 3) & 0x1F
	sampleRateIdx := (b0&0x7)<<1 | (b1 >> 7)
	channelCfg := (b1 >> 3) & 0xF

	if objType == 0 {
		return cfg, hlserr.New(hlserr.InvalidAudioConfig, "invalid audio object type")
	}
	cfg.ProfileIndex = objType - 1
	cfg.SampleRateIndex = sampleRateIdx
	cfg.ChannelConfig = channelCfg
	return cfg, nil
}

// expectDescriptorTag verifies that b[i] is the expected descriptor tag,
// decodes its expandable-length field (MPEG-4 base-128, continuation bit
// 0x80), and returns the offset of the descriptor's payload.
func expectDescriptorTag(b []byte, i int, tag byte) (int, error) {
	if i >= len(b) {
		return 0, hlserr.New(hlserr.InvalidAudioConfig, "truncated descriptor")
	}
	if b[i] != tag {
		return 0, hlserr.New(hlserr.InvalidAudioConfig, "unexpected descriptor tag")
	}
	i++
	for {
		if i >= len(b) {
			return 0, hlserr.New(hlserr.InvalidAudioConfig, "truncated descriptor length")
		}
		more := b[i]&0x80 != 0
		i++
		if !more {
			break
		}
	}
	return i, nil
}
