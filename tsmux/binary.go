/*
DESCRIPTION
  binary.go - append-only big-endian byte writer used throughout the muxer,
  plus the synchsafe-integer and CMAF full-box helpers it shares with the
  metadata package.

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

// Package tsmux implements bit-exact MPEG-TS segment muxing: 188-byte
// transport-stream packets, PES packetization, PAT/PMT with MPEG-2 CRC-32,
// AVC/HEVC Annex-B conversion, ADTS wrapping, and PCR/PTS/DTS encoding.
package tsmux

import "encoding/binary"

// BinaryWriter is an append-only, big-endian byte buffer. It assembles PSI
// sections, PES packets and the full boxes built by FullBox (CMAF emsg).
type BinaryWriter struct {
	buf []byte
}

// NewBinaryWriter returns an empty BinaryWriter, optionally reserving cap
// bytes of backing capacity.
func NewBinaryWriter(capHint int) *BinaryWriter {
	return &BinaryWriter{buf: make([]byte, 0, capHint)}
}

// Bytes returns the accumulated bytes.
func (w *BinaryWriter) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *BinaryWriter) Len() int { return len(w.buf) }

// WriteU8 appends a single byte.
func (w *BinaryWriter) WriteU8(v byte) { w.buf = append(w.buf, v) }

// WriteU16 appends a big-endian uint16.
func (w *BinaryWriter) WriteU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteU32 appends a big-endian uint32.
func (w *BinaryWriter) WriteU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteU64 appends a big-endian uint64.
func (w *BinaryWriter) WriteU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteBytes appends an arbitrary blob.
func (w *BinaryWriter) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// FullBox writes a CMAF/ISOBMFF "full box": a 4-byte size (filled in once
// the payload is known), a 4-character type, a 1-byte version, a 3-byte
// flags field, and the payload itself.
func FullBox(boxType string, version byte, flags uint32, payload []byte) []byte {
	size := 4 + 4 + 1 + 3 + len(payload)
	w := NewBinaryWriter(size)
	w.WriteU32(uint32(size))
	w.WriteBytes([]byte(boxType))
	w.WriteU8(version)
	// 3-byte flags, big-endian, high byte first.
	w.WriteU8(byte(flags >> 16))
	w.WriteU8(byte(flags >> 8))
	w.WriteU8(byte(flags))
	w.WriteBytes(payload)
	return w.Bytes()
}

// EncodeSynchsafe encodes v (which must fit in 28 bits) as a 4-byte
// synchsafe integer: each byte uses only its low 7 bits.
func EncodeSynchsafe(v uint32) [4]byte {
	var b [4]byte
	for i := 0; i < 4; i++ {
		shift := uint(21 - 7*i)
		b[i] = byte((v >> shift) & 0x7F)
	}
	return b
}

// DecodeSynchsafe decodes a 4-byte synchsafe integer back to its value.
func DecodeSynchsafe(b [4]byte) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v = (v << 7) | uint32(b[i]&0x7F)
	}
	return v
}
