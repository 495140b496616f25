package tsmux

import (
	"bytes"
	"testing"
)

func lengthPrefixed(nalus ...[]byte) []byte {
	var out []byte
	for _, n := range nalus {
		var l [4]byte
		l[0] = byte(len(n) >> 24)
		l[1] = byte(len(n) >> 16)
		l[2] = byte(len(n) >> 8)
		l[3] = byte(len(n))
		out = append(out, l[:]...)
		out = append(out, n...)
	}
	return out
}

func TestToAnnexB(t *testing.T) {
	nal1 := []byte{0x65, 0x01, 0x02}
	nal2 := []byte{0x41, 0x03}
	data := lengthPrefixed(nal1, nal2)

	out, err := ToAnnexB(data, false, nil, nil)
	if err != nil {
		t.Fatalf("ToAnnexB: %v", err)
	}
	want := append(append(append([]byte{}, startCode...), nal1...), append(startCode, nal2...)...)
	if !bytes.Equal(out, want) {
		t.Errorf("ToAnnexB = %x, want %x", out, want)
	}
}

func TestToAnnexBPrependsParameterSetsOnSync(t *testing.T) {
	sps := append([]byte{}, startCode...)
	sps = append(sps, 0x67, 0x01)
	pps := append([]byte{}, startCode...)
	pps = append(pps, 0x68, 0x02)

	nal := []byte{0x65, 0xAA}
	data := lengthPrefixed(nal)

	out, err := ToAnnexB(data, true, sps, pps)
	if err != nil {
		t.Fatalf("ToAnnexB: %v", err)
	}
	var want []byte
	want = append(want, sps...)
	want = append(want, pps...)
	want = append(want, startCode...)
	want = append(want, nal...)
	if !bytes.Equal(out, want) {
		t.Errorf("ToAnnexB = %x, want %x", out, want)
	}
}

func TestToAnnexBTruncatedLengthPrefix(t *testing.T) {
	_, err := ToAnnexB([]byte{0x00, 0x00, 0x01}, false, nil, nil)
	if err == nil {
		t.Fatal("expected error for truncated length prefix, got nil")
	}
}

func TestToAnnexBLengthExceedsData(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x10, 0x01, 0x02} // claims 16 bytes, only 2 follow
	_, err := ToAnnexB(data, false, nil, nil)
	if err == nil {
		t.Fatal("expected error for NAL length exceeding remaining data, got nil")
	}
}

func buildAVCC(spsList, ppsList [][]byte) []byte {
	var b []byte
	b = append(b, 1, 0x64, 0x00, 0x1F, 0xFF) // configurationVersion, profile, compat, level, lengthSizeMinusOne|reserved
	b = append(b, byte(0xE0|len(spsList)))
	for _, s := range spsList {
		b = append(b, byte(len(s)>>8), byte(len(s)))
		b = append(b, s...)
	}
	b = append(b, byte(len(ppsList)))
	for _, p := range ppsList {
		b = append(b, byte(len(p)>>8), byte(len(p)))
		b = append(b, p...)
	}
	return b
}

func TestExtractAVCParameterSets(t *testing.T) {
	sps := []byte{0x67, 0x64, 0x00}
	pps := []byte{0x68, 0xEB}
	avcC := buildAVCC([][]byte{sps}, [][]byte{pps})

	gotSPS, gotPPS, err := ExtractAVCParameterSets(avcC)
	if err != nil {
		t.Fatalf("ExtractAVCParameterSets: %v", err)
	}
	wantSPS := append(append([]byte{}, startCode...), sps...)
	wantPPS := append(append([]byte{}, startCode...), pps...)
	if !bytes.Equal(gotSPS, wantSPS) {
		t.Errorf("sps = %x, want %x", gotSPS, wantSPS)
	}
	if !bytes.Equal(gotPPS, wantPPS) {
		t.Errorf("pps = %x, want %x", gotPPS, wantPPS)
	}
}

func TestExtractAVCParameterSetsInvalidHeader(t *testing.T) {
	_, _, err := ExtractAVCParameterSets([]byte{0x02, 0, 0, 0, 0, 0})
	if err == nil {
		t.Fatal("expected error for non-1 configurationVersion, got nil")
	}
}

func TestExtractHEVCParameterSets(t *testing.T) {
	vps := []byte{0x40, 0x01}
	sps := []byte{0x42, 0x01}
	pps := []byte{0x44, 0x01}

	var b []byte
	b = append(b, make([]byte, 22)...) // fixed header, contents unused by extraction
	b = append(b, 3)                   // numOfArrays

	appendArray := func(nalType byte, nalus ...[]byte) {
		b = append(b, nalType&0x3F)
		b = append(b, byte(len(nalus)>>8), byte(len(nalus)))
		for _, n := range nalus {
			b = append(b, byte(len(n)>>8), byte(len(n)))
			b = append(b, n...)
		}
	}
	appendArray(hevcNALVPS, vps)
	appendArray(hevcNALSPS, sps)
	appendArray(hevcNALPPS, pps)

	gotVPS, gotSPS, gotPPS, err := ExtractHEVCParameterSets(b)
	if err != nil {
		t.Fatalf("ExtractHEVCParameterSets: %v", err)
	}
	if !bytes.Equal(gotVPS, append(append([]byte{}, startCode...), vps...)) {
		t.Errorf("vps = %x", gotVPS)
	}
	if !bytes.Equal(gotSPS, append(append([]byte{}, startCode...), sps...)) {
		t.Errorf("sps = %x", gotSPS)
	}
	if !bytes.Equal(gotPPS, append(append([]byte{}, startCode...), pps...)) {
		t.Errorf("pps = %x", gotPPS)
	}
}

func TestExtractHEVCParameterSetsMissingSPS(t *testing.T) {
	b := make([]byte, 22)
	b = append(b, 0) // numOfArrays = 0
	_, _, _, err := ExtractHEVCParameterSets(b)
	if err == nil {
		t.Fatal("expected error for missing SPS, got nil")
	}
}
