/*
DESCRIPTION
  scte35.go - SCTE-35 splice_info_section serializer and parser: splice_null,
  splice_insert and time_signal commands, plus hex encoding for carriage in
  EXT-X-DATERANGE SCTE35-* attributes.

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

package metadata

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/ausocean/hlsorigin/hlserr"
)

// SpliceCommandType identifies an SCTE-35 splice command.
type SpliceCommandType byte

const (
	SpliceNull    SpliceCommandType = 0x00
	SpliceInsert  SpliceCommandType = 0x05
	TimeSignal    SpliceCommandType = 0x06
)

const (
	spliceTableID        = 0xFC
	spliceProtocolVer    = 0x00
	spliceTier           = 0xFFF
	spliceNoSpliceTime   = 0x7E
	spliceCRCPlaceholder = 0xFFFFFFFF
)

// SpliceTime is an optional 33-bit PTS. A zero value with Present=false
// serializes as the "no splice time" marker 0x7E.
type SpliceTime struct {
	Present bool
	PTS     uint64 // 90 kHz ticks, 33-bit range.
}

// BreakDuration is the optional splice_insert break_duration() structure.
type BreakDuration struct {
	Present    bool
	AutoReturn bool
	Duration   uint64 // 90 kHz ticks, 33-bit range.
}

// SCTE35Marker is one splice_info_section, carrying either a splice_null,
// a splice_insert or a time_signal command.
type SCTE35Marker struct {
	CommandType SpliceCommandType

	// splice_insert fields.
	EventID           uint32
	OutOfNetwork      bool
	SpliceImmediate   bool
	SpliceTime        SpliceTime
	BreakDuration     BreakDuration
	UniqueProgramID   uint16
	AvailNum          byte
	AvailsExpected    byte

	// time_signal fields.
	TimeSignalTime SpliceTime
}

// commandPayload returns the encoded splice command payload (everything
// after the command_type byte) for m.
func (m *SCTE35Marker) commandPayload() []byte {
	switch m.CommandType {
	case SpliceNull:
		return nil
	case SpliceInsert:
		var b []byte
		var u32 [4]byte
		binary.BigEndian.PutUint32(u32[:], m.EventID)
		b = append(b, u32[:]...)
		b = append(b, 0x00) // splice_event_cancel_indicator

		var flags byte
		if m.OutOfNetwork {
			flags |= 1 << 7
		}
		flags |= 1 << 6 // program_splice = 1
		immediate := m.SpliceImmediate || !m.SpliceTime.Present
		if m.BreakDuration.Present {
			flags |= 1 << 5
		}
		if immediate {
			flags |= 1 << 4
		}
		flags |= 0x0F // reserved bits
		b = append(b, flags)

		if !immediate {
			b = append(b, encodeSpliceTime(m.SpliceTime)...)
		}
		if m.BreakDuration.Present {
			b = append(b, encodeBreakDuration(m.BreakDuration)...)
		}

		var u16 [2]byte
		binary.BigEndian.PutUint16(u16[:], m.UniqueProgramID)
		b = append(b, u16[:]...)
		b = append(b, m.AvailNum, m.AvailsExpected)
		return b
	case TimeSignal:
		return encodeSpliceTime(m.TimeSignalTime)
	default:
		return nil
	}
}

func encodeSpliceTime(t SpliceTime) []byte {
	if !t.Present {
		return []byte{spliceNoSpliceTime}
	}
	b0 := byte(0x80) | 0x3E | byte((t.PTS>>32)&1)
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(t.PTS&0xFFFFFFFF))
	return append([]byte{b0}, u32[:]...)
}

func encodeBreakDuration(d BreakDuration) []byte {
	var b0 byte
	if d.AutoReturn {
		b0 |= 0x80
	}
	b0 |= 0x3E
	b0 |= byte((d.Duration >> 32) & 1)
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(d.Duration&0xFFFFFFFF))
	return append([]byte{b0}, u32[:]...)
}

// Serialize writes the splice_info_section bytes: the CRC field is
// written as the literal placeholder 0xFFFFFFFF and is never computed
// (open question, see design notes).
func (m *SCTE35Marker) Serialize() []byte {
	cmd := m.commandPayload()

	var section []byte
	section = append(section, spliceProtocolVer, 0x00)     // protocol_version, reserved byte
	section = append(section, 0x00, 0x00, 0x00, 0x00)      // pts_adjustment (u32), always zero here
	section = append(section, 0x00)                        // cw_index
	section = append(section, packTierAndCmdLen(spliceTier, len(cmd))...)
	section = append(section, byte(m.CommandType))
	section = append(section, cmd...)
	section = append(section, 0x00, 0x00) // descriptor_loop_length = 0

	sectionLength := len(section) + 4 // + CRC32
	var out []byte
	out = append(out, 0xFC)
	var u16 [2]byte
	lenField := uint16(0x3000) | (uint16(sectionLength) & 0x0FFF)
	binary.BigEndian.PutUint16(u16[:], lenField)
	out = append(out, u16[:]...)
	out = append(out, section...)

	var crc [4]byte
	binary.BigEndian.PutUint32(crc[:], spliceCRCPlaceholder)
	out = append(out, crc[:]...)
	return out
}

// packTierAndCmdLen packs a 12-bit tier and a 12-bit splice_command_length
// into their 3-byte wire representation.
func packTierAndCmdLen(tier uint16, cmdLen int) []byte {
	v := uint32(tier&0x0FFF)<<12 | uint32(cmdLen&0x0FFF)
	return []byte{byte(v >> 16), byte(v >> 8), byte(v)}
}

// unpackTierAndCmdLen is the inverse of packTierAndCmdLen.
func unpackTierAndCmdLen(b []byte) (tier uint16, cmdLen int) {
	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	return uint16(v >> 12 & 0x0FFF), int(v & 0x0FFF)
}

// Hex returns Serialize's output as an uppercase "0x"-prefixed hex string.
func (m *SCTE35Marker) Hex() string {
	return "0x" + strings.ToUpper(hex.EncodeToString(m.Serialize()))
}

// ParseSCTE35Hex parses a hex-encoded splice_info_section, with or
// without a leading "0x"/"0X" prefix.
func ParseSCTE35Hex(s string) (*SCTE35Marker, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, hlserr.Wrap(hlserr.InvalidConfiguration, "invalid SCTE-35 hex", err)
	}
	return ParseSCTE35(b)
}

// ParseSCTE35 parses a raw splice_info_section. Parsing is strict on
// table_id and protocol_version; unknown command types fail.
func ParseSCTE35(b []byte) (*SCTE35Marker, error) {
	if len(b) < 15 {
		return nil, hlserr.New(hlserr.InvalidConfiguration, "splice_info_section too short")
	}
	if b[0] != spliceTableID {
		return nil, hlserr.New(hlserr.InvalidConfiguration, "unexpected table_id")
	}
	protocolVersion := b[3]
	if protocolVersion != spliceProtocolVer {
		return nil, hlserr.New(hlserr.InvalidConfiguration, "unexpected protocol_version")
	}

	_, cmdLen := unpackTierAndCmdLen(b[10:13])
	commandType := SpliceCommandType(b[13])
	if 14+cmdLen > len(b) {
		return nil, hlserr.New(hlserr.InvalidConfiguration, "truncated splice command")
	}
	payload := b[14 : 14+cmdLen]

	m := &SCTE35Marker{CommandType: commandType}
	switch commandType {
	case SpliceNull:
	case SpliceInsert:
		if len(payload) < 6 {
			return nil, hlserr.New(hlserr.InvalidConfiguration, "truncated splice_insert")
		}
		m.EventID = binary.BigEndian.Uint32(payload[0:4])
		// payload[4] is the cancel_indicator byte; payload[5] is the flags byte.
		fb := payload[5]
		rest := payload[6:]
		m.OutOfNetwork = fb&(1<<7) != 0
		durationFlag := fb&(1<<5) != 0
		spliceImmediate := fb&(1<<4) != 0
		m.SpliceImmediate = spliceImmediate

		if !spliceImmediate {
			t, n, err := decodeSpliceTime(rest)
			if err != nil {
				return nil, err
			}
			m.SpliceTime = t
			rest = rest[n:]
		}
		if durationFlag {
			d, n, err := decodeBreakDuration(rest)
			if err != nil {
				return nil, err
			}
			m.BreakDuration = d
			rest = rest[n:]
		}
		if len(rest) < 4 {
			return nil, hlserr.New(hlserr.InvalidConfiguration, "truncated splice_insert tail")
		}
		m.UniqueProgramID = binary.BigEndian.Uint16(rest[0:2])
		m.AvailNum = rest[2]
		m.AvailsExpected = rest[3]
	case TimeSignal:
		t, _, err := decodeSpliceTime(payload)
		if err != nil {
			return nil, err
		}
		m.TimeSignalTime = t
	default:
		return nil, hlserr.New(hlserr.InvalidConfiguration, "unsupported splice command type")
	}
	return m, nil
}

func decodeSpliceTime(b []byte) (SpliceTime, int, error) {
	if len(b) < 1 {
		return SpliceTime{}, 0, hlserr.New(hlserr.InvalidConfiguration, "truncated splice_time")
	}
	if b[0] == spliceNoSpliceTime {
		return SpliceTime{}, 1, nil
	}
	if len(b) < 5 {
		return SpliceTime{}, 0, hlserr.New(hlserr.InvalidConfiguration, "truncated splice_time pts")
	}
	hi := uint64(b[0] & 0x01)
	lo := uint64(binary.BigEndian.Uint32(b[1:5]))
	return SpliceTime{Present: true, PTS: hi<<32 | lo}, 5, nil
}

func decodeBreakDuration(b []byte) (BreakDuration, int, error) {
	if len(b) < 5 {
		return BreakDuration{}, 0, hlserr.New(hlserr.InvalidConfiguration, "truncated break_duration")
	}
	autoReturn := b[0]&0x80 != 0
	hi := uint64(b[0] & 0x01)
	lo := uint64(binary.BigEndian.Uint32(b[1:5]))
	return BreakDuration{Present: true, AutoReturn: autoReturn, Duration: hi<<32 | lo}, 5, nil
}

// PTSToSeconds converts a 90 kHz splice-time PTS value to seconds.
func PTSToSeconds(pts uint64) float64 {
	return float64(pts) / 90000.0
}
