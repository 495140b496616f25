/*
DESCRIPTION
  segment.go - the segment builder: the deterministic PID plan, PES-to-TS
  packetization with continuity counters and PCR placement, and
  interleaving of video/audio samples in ascending PTS order.

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
	"sort"

	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/livemodel"
)

// Muxer builds MPEG-TS segments from samples and a codec configuration. It
// owns a per-PID continuity counter and is not safe for concurrent use --
// callers build one segment per Muxer, or reset between segments.
type Muxer struct {
	continuity map[uint16]byte
}

// NewMuxer returns a ready-to-use Muxer with continuity counters zeroed.
func NewMuxer() *Muxer {
	return &Muxer{continuity: map[uint16]byte{
		PatPID: 0, PmtPID: 0, VideoPID: 0, AudioPID: 0,
	}}
}

func (m *Muxer) ccFor(pid uint16) byte {
	cc := m.continuity[pid]
	m.continuity[pid] = (cc + 1) & 0x0F
	return cc
}

// taggedSample is a sample tagged with its elementary stream identity, used
// to interleave video and audio strictly by ascending PTS.
type taggedSample struct {
	sample  livemodel.SampleData
	isVideo bool
}

// BuildSegment muxes video and audio samples (each already split per
// elementary stream) into one MPEG-TS segment: one PAT packet, one PMT
// packet, then the samples interleaved by ascending PTS. A PCR is carried
// by the first video packet if any video is present, else by the first
// audio packet.
func BuildSegment(cfg livemodel.TSCodecConfig, video, audio []livemodel.SampleData) ([]byte, error) {
	if !cfg.HasVideo && !cfg.HasAudio {
		return nil, hlserr.New(hlserr.InvalidConfiguration, "segment has neither video nor audio")
	}

	pgm := ProgramTableConfig{ProgramNumber: 1}
	if cfg.HasVideo {
		pgm.VideoPID = VideoPID
		pgm.VideoType = cfg.VideoStreamType
		pgm.PCRPID = VideoPID
	}
	if cfg.HasAudio {
		pgm.AudioPID = AudioPID
		pgm.AudioType = cfg.AudioStreamType
		if !cfg.HasVideo {
			pgm.PCRPID = AudioPID
		}
	}

	m := NewMuxer()
	var out []byte

	patSection := AddPointerField(BuildPAT(pgm.ProgramNumber, PmtPID))
	patPkts, err := m.packetizeSection(PatPID, patSection)
	if err != nil {
		return nil, err
	}
	out = appendPackets(out, patPkts)

	pmtSection, err := BuildPMT(pgm)
	if err != nil {
		return nil, err
	}
	pmtPkts, err := m.packetizeSection(PmtPID, AddPointerField(pmtSection))
	if err != nil {
		return nil, err
	}
	out = appendPackets(out, pmtPkts)

	samples := make([]taggedSample, 0, len(video)+len(audio))
	for _, s := range video {
		samples = append(samples, taggedSample{s, true})
	}
	for _, s := range audio {
		samples = append(samples, taggedSample{s, false})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].sample.PTS < samples[j].sample.PTS
	})

	pcrWritten := false
	for _, ts := range samples {
		var payload []byte
		var pid uint16
		if ts.isVideo {
			pid = VideoPID
			payload, err = ToAnnexB(ts.sample.Data, ts.sample.IsSync, cfg.SPS, cfg.PPS)
			if err != nil {
				return nil, err
			}
		} else {
			pid = AudioPID
			payload = WrapADTS(ts.sample.Data, cfg.AAC)
		}

		pes := BuildPES(ts.isVideo, uint64(ts.sample.PTS), uint64(ts.sample.DTS), ts.sample.HasDTS, payload)

		writePCR := !pcrWritten && pid == pgm.PCRPID
		pkts, err := m.packetizePES(pid, pes, ts.isVideo && ts.sample.IsSync, writePCR, ts.sample.PTS)
		if err != nil {
			return nil, err
		}
		if writePCR {
			pcrWritten = true
		}
		out = appendPackets(out, pkts)
	}

	return out, nil
}

func appendPackets(dst []byte, pkts [][PacketSize]byte) []byte {
	for _, p := range pkts {
		dst = append(dst, p[:]...)
	}
	return dst
}

// packetizeSection splits a PSI section (already pointer-field-prefixed)
// into payload-only packets, PUSI=1 on the first.
func (m *Muxer) packetizeSection(pid uint16, section []byte) ([][PacketSize]byte, error) {
	var pkts [][PacketSize]byte
	const payloadCap = PacketSize - 4
	first := true
	for len(section) > 0 {
		n := len(section)
		if n > payloadCap {
			n = payloadCap
		}
		pkt := TSPacket{
			PID:             pid,
			PUSI:            first,
			AFC:             AFCPayloadOnly,
			CC:              m.ccFor(pid),
			Payload:         section[:n],
			ShortPayloadPad: true,
		}
		b, err := pkt.Bytes()
		if err != nil {
			return nil, err
		}
		pkts = append(pkts, b)
		section = section[n:]
		first = false
	}
	return pkts, nil
}

// packetizePES splits one PES packet into 188-byte TS packets. The first
// packet carries PUSI=1; if sync is true it also carries a random-access
// adaptation field; if writePCR is true it additionally carries a PCR
// derived from pts (90 kHz ticks scaled to the 27 MHz PCR clock).
func (m *Muxer) packetizePES(pid uint16, pes []byte, sync, writePCR bool, pts int64) ([][PacketSize]byte, error) {
	var pkts [][PacketSize]byte
	const fullPayloadCap = PacketSize - 4

	first := true
	for len(pes) > 0 {
		pusi := first
		needsAF := first && (sync || writePCR)

		// bodyLen is the mandatory adaptation-field body (the flags byte,
		// plus 6 PCR bytes when this packet carries one); payloadCap is
		// the resulting payload capacity assuming zero extra stuffing.
		bodyLen := 1
		if needsAF && writePCR {
			bodyLen += 6
		}
		payloadCap := fullPayloadCap
		if needsAF {
			payloadCap = fullPayloadCap - 1 - bodyLen // -1 for the AFL byte itself.
		}

		n := len(pes)
		last := true
		holdBack := false
		if n > payloadCap {
			n = payloadCap
			last = false
		} else if !needsAF && payloadCap-n == 1 {
			// A single leftover byte can't be absorbed as adaptation-field
			// stuffing (minimum AF overhead is 2 bytes): take one less byte
			// here so this packet's own leftover grows to 2 and can carry a
			// stuffing adaptation field, pushing the single orphan byte into
			// a trailing packet instead.
			n--
			last = false
			holdBack = true
		}
		payload := pes[:n]
		pes = pes[n:]

		// Leftover capacity occurs on the last packet, and on a held-back
		// packet immediately before it; both absorb it as adaptation-field
		// stuffing rather than as short-payload 0xFF-padding, so that every
		// packet is exactly 188 bytes via the adaptation field.
		leftover := payloadCap - n
		afc := AFCPayloadOnly
		var af *AdaptationField
		switch {
		case needsAF:
			afc = AFCAdaptationAndPayload
			af = &AdaptationField{
				RandomAccessIndicator: sync && first,
				HasPCR:                writePCR,
				StuffingLength:        leftover,
			}
			if writePCR {
				af.PCR = uint64(pts) * 300
			}
		case (last || holdBack) && leftover > 0:
			// leftover here was computed against the plain payloadCap
			// (fullPayloadCap); introducing an adaptation field costs 2
			// bytes (AFL + flags), which must come out of the stuffing.
			afc = AFCAdaptationAndPayload
			af = &AdaptationField{StuffingLength: leftover - 2}
		}

		pkt := TSPacket{
			PID:        pid,
			PUSI:       pusi,
			AFC:        afc,
			CC:         m.ccFor(pid),
			Adaptation: af,
			Payload:    payload,
		}
		b, err := pkt.Bytes()
		if err != nil {
			return nil, err
		}
		pkts = append(pkts, b)
		first = false
	}
	return pkts, nil
}
