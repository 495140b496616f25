/*
DESCRIPTION
  crc32.go - CRC-32/MPEG-2 as used by MPEG-TS PSI sections (PAT/PMT) and by
  the SCTE-35 splice_info_section placeholder field.

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

// crc32MPEG2Poly is the CRC-32/MPEG-2 polynomial, 0x04C11DB7, used
// unreflected (MSB-first), with seed 0xFFFFFFFF and no final XOR.
const crc32MPEG2Poly = 0x04C11DB7

var crc32MPEG2Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ crc32MPEG2Poly
			} else {
				crc <<= 1
			}
		}
		crc32MPEG2Table[i] = crc
	}
}

// CRC32MPEG2 computes the MPEG-2 CRC-32 of b: polynomial 0x04C11DB7, seed
// 0xFFFFFFFF, no reflection, no final XOR.
//
// Test vectors (spec.md §4.1/§8):
//   CRC32MPEG2("123456789")  == 0x0376E6E7
//   CRC32MPEG2(nil)          == 0xFFFFFFFF
//   CRC32MPEG2([]byte{0x00}) == 0x4E08BFB4
func CRC32MPEG2(b []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	for _, c := range b {
		idx := byte(crc>>24) ^ c
		crc = (crc << 8) ^ crc32MPEG2Table[idx]
	}
	return crc
}
