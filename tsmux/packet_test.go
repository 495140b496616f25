package tsmux

import "testing"

func TestTSPacketPayloadOnlyFullPacket(t *testing.T) {
	payload := make([]byte, PacketSize-4)
	for i := range payload {
		payload[i] = byte(i)
	}
	p := &TSPacket{PID: VideoPID, PUSI: true, AFC: AFCPayloadOnly, CC: 3, Payload: payload}

	out, err := p.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if out[0] != SyncByte {
		t.Errorf("sync byte = %#x, want %#x", out[0], SyncByte)
	}
	if out[1]&0x40 == 0 {
		t.Errorf("PUSI bit not set")
	}
	if pid := uint16(out[1]&0x1F)<<8 | uint16(out[2]); pid != VideoPID {
		t.Errorf("PID = %#x, want %#x", pid, VideoPID)
	}
	if cc := out[3] & 0x0F; cc != 3 {
		t.Errorf("CC = %d, want 3", cc)
	}
}

func TestTSPacketShortPayloadRequiresPadFlag(t *testing.T) {
	p := &TSPacket{PID: VideoPID, AFC: AFCPayloadOnly, Payload: []byte{0x01, 0x02}}
	if _, err := p.Bytes(); err == nil {
		t.Fatal("expected error for short payload-only packet without ShortPayloadPad")
	}

	p.ShortPayloadPad = true
	out, err := p.Bytes()
	if err != nil {
		t.Fatalf("Bytes with ShortPayloadPad: %v", err)
	}
	if out[4] != 0x01 || out[5] != 0x02 {
		t.Errorf("payload bytes wrong: % x", out[4:6])
	}
	for i := 6; i < PacketSize; i++ {
		if out[i] != 0xFF {
			t.Fatalf("expected 0xFF padding at byte %d, got %#x", i, out[i])
		}
	}
}

func TestTSPacketAdaptationOnlyFillsPacket(t *testing.T) {
	p := &TSPacket{
		PID: PmtPID,
		AFC: AFCAdaptationOnly,
		Adaptation: &AdaptationField{
			HasPCR: true,
			PCR:    27000000,
		},
	}
	out, err := p.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if len(out) != PacketSize {
		t.Fatalf("len = %d, want %d", len(out), PacketSize)
	}
	afLen := int(out[4])
	if 4+1+afLen != PacketSize {
		t.Errorf("adaptation field does not fill packet: afLen=%d", afLen)
	}
	if out[5]&0x10 == 0 {
		t.Errorf("PCR flag not set")
	}
}

func TestTSPacketInvalidContinuityCounter(t *testing.T) {
	p := &TSPacket{PID: VideoPID, AFC: AFCPayloadOnly, CC: 0x10, Payload: make([]byte, 184)}
	if _, err := p.Bytes(); err == nil {
		t.Fatal("expected error for out-of-range continuity counter")
	}
}

func TestEncodePCR(t *testing.T) {
	b := encodePCR(27000000)
	base := uint64(b[0])<<25 | uint64(b[1])<<17 | uint64(b[2])<<9 | uint64(b[3])<<1 | uint64(b[4]>>7)
	ext := uint64(b[4]&0x1)<<8 | uint64(b[5])
	got := base*300 + ext
	if got != 27000000 {
		t.Errorf("decoded PCR = %d, want 27000000", got)
	}
}
