/*
DESCRIPTION
  annexb.go - conversion of length-prefixed NAL unit streams to Annex-B
  byte-stream format, and extraction of AVC (avcC) and HEVC (hvcC)
  parameter sets.

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
	"encoding/binary"

	"github.com/ausocean/hlsorigin/hlserr"
)

// startCode is the Annex-B start code prepended to every NAL unit.
var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// ToAnnexB converts a 4-byte-length-prefixed NAL unit stream to Annex-B
// format, replacing each length prefix with startCode. If sync is true
// (this is a keyframe access unit), sps and pps (already Annex-B-formatted)
// are prepended ahead of the converted NAL units.
func ToAnnexB(data []byte, sync bool, sps, pps []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)+32)
	if sync {
		if len(sps) > 0 {
			out = append(out, sps...)
		}
		if len(pps) > 0 {
			out = append(out, pps...)
		}
	}

	for i := 0; i < len(data); {
		if i+4 > len(data) {
			return nil, hlserr.New(hlserr.InvalidAvcConfig, "truncated NAL length prefix")
		}
		n := int(binary.BigEndian.Uint32(data[i : i+4]))
		i += 4
		if n < 0 || i+n > len(data) {
			return nil, hlserr.New(hlserr.InvalidAvcConfig, "NAL length exceeds remaining data")
		}
		out = append(out, startCode...)
		out = append(out, data[i:i+n]...)
		i += n
	}
	return out, nil
}

// ExtractAVCParameterSets parses an avcC (AVCDecoderConfigurationRecord) box
// and returns the Annex-B-formatted SPS and PPS, each prefixed with
// startCode, concatenated in SPS-then-PPS order (spec.md §4.1).
func ExtractAVCParameterSets(avcC []byte) (sps, pps []byte, err error) {
	if len(avcC) < 6 {
		return nil, nil, hlserr.New(hlserr.InvalidAvcConfig, "invalid AVC config")
	}
	if avcC[0] != 1 {
		return nil, nil, hlserr.New(hlserr.InvalidAvcConfig, "invalid AVC config")
	}
	// Bytes 1-4: profile/compat/level/lengthSizeMinusOne -- not needed here.
	i := 5
	numSPS := int(avcC[i] & 0x1F)
	i++
	sps, i, err = extractParamSetList(avcC, i, numSPS)
	if err != nil {
		return nil, nil, err
	}
	if i >= len(avcC) {
		return nil, nil, hlserr.New(hlserr.InvalidAvcConfig, "truncated AVC config (no PPS count)")
	}
	numPPS := int(avcC[i])
	i++
	pps, _, err = extractParamSetList(avcC, i, numPPS)
	if err != nil {
		return nil, nil, err
	}
	return sps, pps, nil
}

// extractParamSetList reads count {u16 length, length bytes} entries
// starting at offset i in b, each emitted with a leading start code.
func extractParamSetList(b []byte, i, count int) ([]byte, int, error) {
	out := make([]byte, 0, 64)
	for n := 0; n < count; n++ {
		if i+2 > len(b) {
			return nil, i, hlserr.New(hlserr.InvalidAvcConfig, "truncated parameter set length")
		}
		l := int(binary.BigEndian.Uint16(b[i : i+2]))
		i += 2
		if l < 0 || i+l > len(b) {
			return nil, i, hlserr.New(hlserr.InvalidAvcConfig, "parameter set length exceeds remaining data")
		}
		out = append(out, startCode...)
		out = append(out, b[i:i+l]...)
		i += l
	}
	return out, i, nil
}

// HEVC NAL unit types recognized within an hvcC array.
const (
	hevcNALVPS = 32
	hevcNALSPS = 33
	hevcNALPPS = 34
)

// ExtractHEVCParameterSets parses an hvcC (HEVCDecoderConfigurationRecord)
// box and returns the Annex-B-formatted VPS, SPS and PPS (each concatenated
// in the order the arrays appear). SPS must be present; VPS/PPS are
// returned if present, nil otherwise.
func ExtractHEVCParameterSets(hvcC []byte) (vps, sps, pps []byte, err error) {
	const headerSize = 22
	if len(hvcC) < headerSize+1 {
		return nil, nil, nil, hlserr.New(hlserr.InvalidAvcConfig, "invalid HEVC config")
	}
	numArrays := int(hvcC[headerSize])
	i := headerSize + 1
	for a := 0; a < numArrays; a++ {
		if i+3 > len(hvcC) {
			return nil, nil, nil, hlserr.New(hlserr.InvalidAvcConfig, "truncated HEVC array header")
		}
		nalType := hvcC[i] & 0x3F
		numNalus := int(binary.BigEndian.Uint16(hvcC[i+1 : i+3]))
		i += 3
		var list []byte
		for n := 0; n < numNalus; n++ {
			if i+2 > len(hvcC) {
				return nil, nil, nil, hlserr.New(hlserr.InvalidAvcConfig, "truncated HEVC NAL entry")
			}
			l := int(binary.BigEndian.Uint16(hvcC[i : i+2]))
			i += 2
			if l < 0 || i+l > len(hvcC) {
				return nil, nil, nil, hlserr.New(hlserr.InvalidAvcConfig, "HEVC NAL length exceeds remaining data")
			}
			list = append(list, startCode...)
			list = append(list, hvcC[i:i+l]...)
			i += l
		}
		switch nalType {
		case hevcNALVPS:
			vps = append(vps, list...)
		case hevcNALSPS:
			sps = append(sps, list...)
		case hevcNALPPS:
			pps = append(pps, list...)
		}
	}
	if len(sps) == 0 {
		return nil, nil, nil, hlserr.New(hlserr.InvalidAvcConfig, "HEVC config missing SPS")
	}
	return vps, sps, pps, nil
}
