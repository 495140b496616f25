/*
DESCRIPTION
  packet.go - 188-byte MPEG-TS packet assembly: adaptation-field framing,
  PCR encoding, and the per-PID continuity-counter discipline.

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

import "github.com/ausocean/hlsorigin/hlserr"

// PacketSize is the fixed MPEG-TS packet size.
const PacketSize = 188

// SyncByte is the first byte of every MPEG-TS packet.
const SyncByte = 0x47

// Standard PIDs for this muxer's deterministic PID plan (spec.md §4.1).
const (
	PatPID   uint16 = 0x0000
	PmtPID   uint16 = 0x0100
	VideoPID uint16 = 0x0101
	AudioPID uint16 = 0x0102
)

// AdaptationFieldControl enumerates the 2-bit AFC field.
type AdaptationFieldControl byte

const (
	AFCReserved              AdaptationFieldControl = 0x0
	AFCPayloadOnly           AdaptationFieldControl = 0x1
	AFCAdaptationOnly        AdaptationFieldControl = 0x2
	AFCAdaptationAndPayload  AdaptationFieldControl = 0x3
)

// AdaptationField carries the optional per-packet adaptation field.
type AdaptationField struct {
	RandomAccessIndicator bool
	HasPCR                bool
	PCR                   uint64 // 27 MHz PCR value (base*300 + ext).
	StuffingLength         int    // Extra 0xFF stuffing bytes beyond the mandatory fields.
}

// TSPacket represents one 188-byte MPEG-TS transport packet.
type TSPacket struct {
	PID             uint16
	PUSI            bool
	AFC             AdaptationFieldControl
	CC              byte
	Adaptation      *AdaptationField
	Payload         []byte // Payload bytes to place in this packet (may be shorter than capacity).
	ShortPayloadPad bool   // If true and Payload doesn't fill the packet, 0xFF-pad a payload-only packet.
}

// encodePCR serializes a 27 MHz PCR value into the 6-byte field described
// in spec.md §4.1: base = pcr/300 (33 bits), ext = pcr%300 (9 bits).
func encodePCR(pcr uint64) [6]byte {
	base := pcr / 300
	ext := pcr % 300
	var b [6]byte
	b[0] = byte(base >> 25)
	b[1] = byte(base >> 17)
	b[2] = byte(base >> 9)
	b[3] = byte(base >> 1)
	b[4] = byte((base&0x1)<<7) | 0x7E | byte((ext>>8)&0x1)
	b[5] = byte(ext & 0xFF)
	return b
}

// Bytes serializes p into a fixed 188-byte array. The adaptation field (if
// any) is sized to make the total packet length exactly PacketSize:
// unused payload capacity is absorbed by adaptation-field stuffing
// (preferred) rather than by padding a short payload, unless
// ShortPayloadPad explicitly requests 0xFF-padding of a payload-only
// packet.
func (p *TSPacket) Bytes() ([PacketSize]byte, error) {
	var out [PacketSize]byte
	out[0] = SyncByte

	pusiBit := byte(0)
	if p.PUSI {
		pusiBit = 0x40
	}
	out[1] = pusiBit | byte((p.PID>>8)&0x1F)
	out[2] = byte(p.PID & 0xFF)

	if p.CC > 0x0F {
		return out, hlserr.New(hlserr.PacketError, "continuity counter out of range")
	}
	out[3] = byte(p.AFC&0x3)<<4 | (p.CC & 0x0F)

	headerLen := 4
	switch p.AFC {
	case AFCPayloadOnly:
		n := copy(out[headerLen:], p.Payload)
		if n < len(p.Payload) {
			return out, hlserr.New(hlserr.PacketError, "payload exceeds packet capacity")
		}
		if p.ShortPayloadPad {
			for i := headerLen + n; i < PacketSize; i++ {
				out[i] = 0xFF
			}
		} else if headerLen+n != PacketSize {
			return out, hlserr.New(hlserr.PacketError, "short payload-only packet without ShortPayloadPad")
		}
	case AFCAdaptationOnly, AFCAdaptationAndPayload:
		af := p.Adaptation
		if af == nil {
			af = &AdaptationField{}
		}
		payloadCap := PacketSize - headerLen
		if p.AFC == AFCAdaptationAndPayload {
			payloadCap -= len(p.Payload)
		}
		// Mandatory adaptation field body is at least 1 byte (the flags
		// byte); stuff with 0xFF to consume the remaining capacity minus
		// whatever payload follows.
		bodyLen := 1
		if af.HasPCR {
			bodyLen += 6
		}
		afLen := bodyLen
		if p.AFC == AFCAdaptationOnly {
			// Adaptation-only packets stuff the adaptation field to fill
			// the whole remainder of the packet.
			afLen = payloadCap - 1 // -1 for the AFL byte itself.
		} else if af.StuffingLength > 0 {
			afLen += af.StuffingLength
		}
		if afLen < bodyLen {
			afLen = bodyLen
		}

		i := headerLen
		out[i] = byte(afLen)
		i++
		flagsByte := byte(0)
		if af.HasPCR {
			flagsByte |= 0x10
		}
		if af.RandomAccessIndicator {
			flagsByte |= 0x40
		}
		out[i] = flagsByte
		i++
		if af.HasPCR {
			pcrBytes := encodePCR(af.PCR)
			copy(out[i:], pcrBytes[:])
			i += 6
		}
		for stuffed := i; stuffed < headerLen+1+afLen; stuffed++ {
			out[stuffed] = 0xFF
		}
		i = headerLen + 1 + afLen

		if p.AFC == AFCAdaptationAndPayload {
			n := copy(out[i:], p.Payload)
			if n < len(p.Payload) || i+n != PacketSize {
				return out, hlserr.New(hlserr.PacketError, "adaptation+payload packet does not fill 188 bytes")
			}
		} else if i != PacketSize {
			return out, hlserr.New(hlserr.PacketError, "adaptation-only packet does not fill 188 bytes")
		}
	default:
		return out, hlserr.New(hlserr.PacketError, "reserved adaptation field control value")
	}

	return out, nil
}
