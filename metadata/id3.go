/*
DESCRIPTION
  id3.go - ID3v2.4 timed-metadata tag codec, and its CMAF emsg wrapper for
  fMP4-style timed ID3 delivery.

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

// Package metadata implements the timed-metadata subsystem: ID3v2.4 tags,
// SCTE-35 splice_info_section, EXT-X-DATERANGE state, HLS interstitials,
// PROGRAM-DATE-TIME synchronization and the live metadata injector that
// coordinates all four.
package metadata

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/tsmux"
)

// Encoding identifies an ID3 text-frame encoding byte.
type Encoding byte

const (
	EncodingISO88591 Encoding = 0
	EncodingUTF16    Encoding = 1 // BOM-prefixed, little-endian.
	EncodingUTF16BE  Encoding = 2
	EncodingUTF8     Encoding = 3
)

// Frame is one decoded ID3 frame: a 4-character ID, an encoding tag, and
// its raw payload bytes (everything after the encoding byte, for a TXXX
// frame including the description and its NUL terminator).
type Frame struct {
	ID       string
	Encoding Encoding
	Payload  []byte
}

// ID3TimedMetadata is an ordered set of ID3 frames ready for serialization.
type ID3TimedMetadata struct {
	Frames []Frame
}

// AddTextFrame appends a plain text frame (e.g. "TIT2") encoded as UTF-8.
func (m *ID3TimedMetadata) AddTextFrame(id, value string) {
	m.Frames = append(m.Frames, Frame{ID: id, Encoding: EncodingUTF8, Payload: []byte(value)})
}

// AddTXXXFrame appends a user-defined "TXXX" frame: {encoding byte is
// implicit, description, 0x00, value}.
func (m *ID3TimedMetadata) AddTXXXFrame(description, value string) {
	var buf bytes.Buffer
	buf.WriteString(description)
	buf.WriteByte(0x00)
	buf.WriteString(value)
	m.Frames = append(m.Frames, Frame{ID: "TXXX", Encoding: EncodingUTF8, Payload: buf.Bytes()})
}

// Serialize writes the full ID3v2.4 tag: magic, version, flags, synchsafe
// tag size, then each frame.
func (m *ID3TimedMetadata) Serialize() []byte {
	var body bytes.Buffer
	for _, f := range m.Frames {
		id := f.ID
		if len(id) > 4 {
			id = id[:4]
		}
		for len(id) < 4 {
			id += "\x00"
		}
		body.WriteString(id)

		frameBody := append([]byte{byte(f.Encoding)}, f.Payload...)
		sizeBuf := tsmux.EncodeSynchsafe(uint32(len(frameBody)))
		body.Write(sizeBuf[:])
		body.Write([]byte{0x00, 0x00}) // flags
		body.Write(frameBody)
	}

	var out bytes.Buffer
	out.WriteString("ID3")
	out.Write([]byte{0x04, 0x00, 0x00}) // version 2.4.0, flags=0
	sizeBuf := tsmux.EncodeSynchsafe(uint32(body.Len()))
	out.Write(sizeBuf[:])
	out.Write(body.Bytes())
	return out.Bytes()
}

// ParseID3 parses the ID3v2.4 tag produced by Serialize, restoring every
// frame's ID, encoding tag and payload bytes.
func ParseID3(b []byte) (*ID3TimedMetadata, error) {
	if len(b) < 10 || string(b[0:3]) != "ID3" {
		return nil, hlserr.New(hlserr.InvalidAudioConfig, "missing ID3 magic")
	}
	var tagSizeBuf [4]byte
	copy(tagSizeBuf[:], b[6:10])
	tagSize := tsmux.DecodeSynchsafe(tagSizeBuf)
	body := b[10:]
	if uint32(len(body)) < tagSize {
		return nil, hlserr.New(hlserr.InvalidAudioConfig, "truncated ID3 tag")
	}
	body = body[:tagSize]

	m := &ID3TimedMetadata{}
	for len(body) > 0 {
		if len(body) < 10 {
			return nil, hlserr.New(hlserr.InvalidAudioConfig, "truncated ID3 frame header")
		}
		id := string(bytes.TrimRight(body[0:4], "\x00"))
		var sizeBuf [4]byte
		copy(sizeBuf[:], body[4:8])
		size := tsmux.DecodeSynchsafe(sizeBuf)
		body = body[10:]
		if uint32(len(body)) < size {
			return nil, hlserr.New(hlserr.InvalidAudioConfig, "truncated ID3 frame body")
		}
		frameBody := body[:size]
		body = body[size:]
		if len(frameBody) < 1 {
			return nil, hlserr.New(hlserr.InvalidAudioConfig, "empty ID3 frame body")
		}
		m.Frames = append(m.Frames, Frame{ID: id, Encoding: Encoding(frameBody[0]), Payload: frameBody[1:]})
	}
	return m, nil
}

// TextValue decodes a frame's payload as a string according to its
// declared encoding. For TXXX frames this includes the description and
// its NUL separator verbatim; callers that want just the value should use
// SplitTXXX.
func (f Frame) TextValue() string {
	switch f.Encoding {
	case EncodingUTF16:
		return decodeUTF16(f.Payload, true)
	case EncodingUTF16BE:
		return decodeUTF16(f.Payload, false)
	default:
		return string(f.Payload)
	}
}

// SplitTXXX splits a TXXX frame's payload into its description and value.
func SplitTXXX(payload []byte) (description, value string) {
	if i := bytes.IndexByte(payload, 0x00); i >= 0 {
		return string(payload[:i]), string(payload[i+1:])
	}
	return string(payload), ""
}

func decodeUTF16(b []byte, little bool) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE {
		little = true
		b = b[2:]
	} else if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		little = false
		b = b[2:]
	}
	n := len(b) / 2
	units := make([]uint16, n)
	for i := 0; i < n; i++ {
		if little {
			units[i] = binary.LittleEndian.Uint16(b[i*2:])
		} else {
			units[i] = binary.BigEndian.Uint16(b[i*2:])
		}
	}
	return string(utf16.Decode(units))
}

// emsgSchemeIDURI is the scheme URI that identifies a CMAF emsg box as
// carrying a raw ID3 payload.
const emsgSchemeIDURI = "https://aomedia.org/emsg/ID3"

// SerializeAsEmsg wraps the tag's serialized ID3 bytes in a version-1
// CMAF "emsg" full box at the given timescale, with presentationTime
// given in seconds.
func (m *ID3TimedMetadata) SerializeAsEmsg(timescale uint32, presentationTime float64) []byte {
	var body bytes.Buffer
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], timescale)
	body.Write(u32[:])

	var u64 [8]byte
	binary.BigEndian.PutUint64(u64[:], uint64(presentationTime*float64(timescale)+0.5))
	body.Write(u64[:])

	binary.BigEndian.PutUint32(u32[:], 0) // event_duration
	body.Write(u32[:])
	binary.BigEndian.PutUint32(u32[:], 0) // id
	body.Write(u32[:])

	body.WriteString(emsgSchemeIDURI)
	body.WriteByte(0x00)
	body.WriteByte(0x00) // value = ""
	body.Write(m.Serialize())

	return tsmux.FullBox("emsg", 1, 0, body.Bytes())
}
