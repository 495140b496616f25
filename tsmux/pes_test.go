package tsmux

import (
	"bytes"
	"testing"
)

func TestBuildPESPTSOnly(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	pes := BuildPES(true, 90000, 90000, false, payload)

	if !bytes.Equal(pes[0:3], []byte{0x00, 0x00, 0x01}) {
		t.Fatalf("start code = % x", pes[0:3])
	}
	if pes[3] != VideoStreamID {
		t.Errorf("stream id = %#x, want %#x", pes[3], VideoStreamID)
	}
	if pes[7] != 0x80 {
		t.Errorf("flags = %#x, want 0x80 (PTS only)", pes[7])
	}
	if pes[8] != 5 {
		t.Errorf("header_data_length = %d, want 5", pes[8])
	}
	if !bytes.HasSuffix(pes, payload) {
		t.Errorf("payload not found at end of PES packet")
	}
}

func TestBuildPESPTSDTSWhenDiffer(t *testing.T) {
	payload := []byte{0x01}
	pes := BuildPES(false, 180000, 90000, true, payload)

	if pes[3] != AudioStreamID {
		t.Errorf("stream id = %#x, want %#x", pes[3], AudioStreamID)
	}
	if pes[7] != 0xC0 {
		t.Errorf("flags = %#x, want 0xC0 (PTS+DTS)", pes[7])
	}
	if pes[8] != 10 {
		t.Errorf("header_data_length = %d, want 10", pes[8])
	}
}

func TestBuildPESCollapsesEqualDTSToPTSOnly(t *testing.T) {
	pes := BuildPES(true, 42, 42, true, nil)
	if pes[7] != 0x80 {
		t.Errorf("flags = %#x, want 0x80 when pts==dts even if hasDTS requested", pes[7])
	}
}

func TestEncodeTimestampMarkerBits(t *testing.T) {
	b := encodeTimestamp(0x2, 90000)
	if b[0]>>4 != 0x2 {
		t.Errorf("marker nibble = %#x, want 0x2", b[0]>>4)
	}
	if b[0]&0x1 == 0 || b[2]&0x1 == 0 || b[4]&0x1 == 0 {
		t.Errorf("marker bits not all set: % x", b)
	}
}

func TestBuildPESVideoUnboundedLength(t *testing.T) {
	bigPayload := make([]byte, maxUnboundedVideoPES)
	pes := BuildPES(true, 0, 0, false, bigPayload)
	pesLen := uint16(pes[4])<<8 | uint16(pes[5])
	if pesLen != 0 {
		t.Errorf("PES_packet_length = %d, want 0 (unbounded) for oversized video payload", pesLen)
	}
}
