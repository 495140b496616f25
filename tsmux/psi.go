/*
DESCRIPTION
  psi.go - PAT and PMT section generation with MPEG-2 CRC-32, and the PSI
  packetizer (pointer field + payload-only packets).

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

// ProgramTableConfig names the program number, PCR PID and elementary
// streams the PAT/PMT should describe.
type ProgramTableConfig struct {
	ProgramNumber uint16
	PCRPID        uint16
	VideoPID      uint16
	VideoType     byte // livemodel.StreamTypeAVC or StreamTypeHEVC; 0 if no video.
	AudioPID      uint16
	AudioType     byte // livemodel.StreamTypeAAC; 0 if no audio.
}

// BuildPAT returns the bytes of a PAT section (table_id 0x00) naming one
// program, whose PMT lives at pmtPID.
func BuildPAT(programNumber, pmtPID uint16) []byte {
	// Syntax section payload: transport_stream_id(2) + reserved/version/CNI(1)
	// + section_number(1) + last_section_number(1) + program loop (4 per prog).
	payload := NewBinaryWriter(16)
	payload.WriteU16(1) // transport_stream_id
	payload.WriteU8(0xC1) // reserved(2)=11, version_number(5)=0, current_next_indicator(1)=1
	payload.WriteU8(0) // section_number
	payload.WriteU8(0) // last_section_number
	payload.WriteU16(programNumber)
	payload.WriteU16(0xE000 | pmtPID) // reserved(3)=111 + PMT PID(13)

	return buildPSISection(0x00, true, payload.Bytes())
}

// BuildPMT returns the bytes of a PMT section (table_id 0x02) for the
// given program/stream configuration. Supported stream types are
// livemodel.StreamTypeAVC, StreamTypeHEVC and StreamTypeAAC.
func BuildPMT(cfg ProgramTableConfig) ([]byte, error) {
	payload := NewBinaryWriter(32)
	payload.WriteU16(cfg.ProgramNumber)
	payload.WriteU8(0xC1) // reserved(2)=11, version_number(5)=0, current_next_indicator(1)=1
	payload.WriteU8(0)    // section_number
	payload.WriteU8(0)    // last_section_number
	payload.WriteU16(0xE000 | cfg.PCRPID)
	payload.WriteU16(0xF000) // reserved(4)=1111 + program_info_length(12)=0

	writeStream := func(streamType byte, pid uint16) error {
		switch streamType {
		case livemodel.StreamTypeAVC, livemodel.StreamTypeHEVC, livemodel.StreamTypeAAC:
		default:
			return hlserr.New(hlserr.UnsupportedCodec, "unsupported stream type in PMT")
		}
		payload.WriteU8(streamType)
		payload.WriteU16(0xE000 | pid)
		payload.WriteU16(0xF000) // reserved(4)=1111 + ES_info_length(12)=0
		return nil
	}

	if cfg.VideoType != 0 {
		if err := writeStream(cfg.VideoType, cfg.VideoPID); err != nil {
			return nil, err
		}
	}
	if cfg.AudioType != 0 {
		if err := writeStream(cfg.AudioType, cfg.AudioPID); err != nil {
			return nil, err
		}
	}

	return buildPSISection(0x02, true, payload.Bytes()), nil
}

// buildPSISection wraps payload in a PSI section header (table_id,
// section_syntax_indicator, section_length) and appends the CRC-32/MPEG-2
// of the header+payload.
func buildPSISection(tableID byte, sectionSyntax bool, payload []byte) []byte {
	// section_length covers everything after the length field: the rest of
	// this header's two bytes' low bits, the payload, and the 4-byte CRC.
	sectionLength := len(payload) + 4

	w := NewBinaryWriter(3 + len(payload) + 4)
	w.WriteU8(tableID)
	ssi := byte(0)
	if sectionSyntax {
		ssi = 0x80
	}
	// section_syntax_indicator(1) + private_bit(1)=0 + reserved(2)=11 + section_length(12).
	w.WriteU8(ssi | 0x30 | byte((sectionLength>>8)&0x0F))
	w.WriteU8(byte(sectionLength & 0xFF))
	w.WriteBytes(payload)

	crc := CRC32MPEG2(w.Bytes())
	w.WriteU32(crc)
	return w.Bytes()
}

// AddPointerField prepends the mandatory 0x00 pointer field used when a PSI
// section is the first thing in a payload-only packet.
func AddPointerField(section []byte) []byte {
	out := make([]byte, 0, len(section)+1)
	out = append(out, 0x00)
	return append(out, section...)
}
