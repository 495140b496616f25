/*
DESCRIPTION
  pes.go - PES packetization: stream-id selection, PTS/DTS marker encoding,
  and the header assembly described in spec.md §4.1.

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

// PES stream IDs (spec.md §4.1).
const (
	VideoStreamID = 0xE0
	AudioStreamID = 0xC0
)

// maxUnboundedVideoPES is the threshold at or above which a video PES packet's
// length field is written as 0 ("unbounded"), matching the teacher's own
// MaxPesSize convention.
const maxUnboundedVideoPES = 65519

// encodeTimestamp packs a 33-bit PTS or DTS value into 5 bytes using the
// marker nibble given (0x2 for PTS-only, 0x3 for PTS within PTS+DTS, 0x1
// for DTS).
func encodeTimestamp(marker byte, ts uint64) [5]byte {
	var b [5]byte
	b[0] = (marker << 4) | byte((ts>>29)&0x0E) | 0x01
	b[1] = byte((ts >> 22) & 0xFF)
	b[2] = byte((ts>>14)&0xFE) | 0x01
	b[3] = byte((ts >> 7) & 0xFF)
	b[4] = byte((ts<<1)&0xFE) | 0x01
	return b
}

// BuildPES assembles a PES packet for one video or audio sample.
//
//   - isVideo selects the stream id (0xE0) vs audio (0xC0).
//   - pts/dts are 90 kHz 33-bit timestamps; hasDTS selects PTS-only (0x80)
//     vs PTS+DTS (0xC0) flags -- PTS-only is used whenever dts is absent or
//     equal to pts, per spec.md §4.1.
func BuildPES(isVideo bool, pts, dts uint64, hasDTS bool, payload []byte) []byte {
	if dts == pts {
		hasDTS = false
	}

	streamID := byte(AudioStreamID)
	if isVideo {
		streamID = VideoStreamID
	}

	var tsBytes []byte
	var flags byte
	var headerDataLen byte
	if hasDTS {
		flags = 0xC0
		headerDataLen = 10
		pb := encodeTimestamp(0x3, pts)
		db := encodeTimestamp(0x1, dts)
		tsBytes = append(tsBytes, pb[:]...)
		tsBytes = append(tsBytes, db[:]...)
	} else {
		flags = 0x80
		headerDataLen = 5
		pb := encodeTimestamp(0x2, pts)
		tsBytes = append(tsBytes, pb[:]...)
	}

	optionalLen := 3 + int(headerDataLen) // marker+flags byte, flags byte, header-data-length byte, then ts bytes
	bodyLen := optionalLen + len(payload)

	var pesLen int
	if isVideo && bodyLen >= maxUnboundedVideoPES {
		pesLen = 0
	} else {
		pesLen = bodyLen
	}

	w := NewBinaryWriter(6 + bodyLen)
	w.WriteU8(0x00)
	w.WriteU8(0x00)
	w.WriteU8(0x01)
	w.WriteU8(streamID)
	w.WriteU16(uint16(pesLen))
	w.WriteU8(0x80) // marker bits '10', scrambling 00, priority 0, DAI 0, copyright 0, original 0
	w.WriteU8(flags)
	w.WriteU8(headerDataLen)
	w.WriteBytes(tsBytes)
	w.WriteBytes(payload)
	return w.Bytes()
}
