package metadata

import (
	"strings"
	"testing"
)

func TestID3TextFrameRoundTrip(t *testing.T) {
	m := &ID3TimedMetadata{}
	m.AddTextFrame("TIT2", "hello world")

	b := m.Serialize()
	if string(b[0:3]) != "ID3" {
		t.Fatalf("missing ID3 magic: %q", b[0:3])
	}

	got, err := ParseID3(b)
	if err != nil {
		t.Fatalf("ParseID3: %v", err)
	}
	if len(got.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(got.Frames))
	}
	f := got.Frames[0]
	if f.ID != "TIT2" {
		t.Errorf("ID = %q, want TIT2", f.ID)
	}
	if f.Encoding != EncodingUTF8 {
		t.Errorf("Encoding = %v, want EncodingUTF8", f.Encoding)
	}
	if f.TextValue() != "hello world" {
		t.Errorf("TextValue = %q, want %q", f.TextValue(), "hello world")
	}
}

func TestID3TXXXFrameRoundTrip(t *testing.T) {
	m := &ID3TimedMetadata{}
	m.AddTXXXFrame("cue", "ad-break-1")

	b := m.Serialize()
	got, err := ParseID3(b)
	if err != nil {
		t.Fatalf("ParseID3: %v", err)
	}
	f := got.Frames[0]
	if f.ID != "TXXX" {
		t.Fatalf("ID = %q, want TXXX", f.ID)
	}
	desc, value := SplitTXXX(f.Payload)
	if desc != "cue" || value != "ad-break-1" {
		t.Errorf("SplitTXXX = (%q, %q), want (cue, ad-break-1)", desc, value)
	}
}

func TestID3MultipleFrames(t *testing.T) {
	m := &ID3TimedMetadata{}
	m.AddTextFrame("TIT2", "first")
	m.AddTextFrame("TALB", "second")

	got, err := ParseID3(m.Serialize())
	if err != nil {
		t.Fatalf("ParseID3: %v", err)
	}
	if len(got.Frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(got.Frames))
	}
	if got.Frames[0].ID != "TIT2" || got.Frames[1].ID != "TALB" {
		t.Errorf("frame order wrong: %+v", got.Frames)
	}
}

func TestParseID3RejectsMissingMagic(t *testing.T) {
	if _, err := ParseID3([]byte("not an id3 tag at all")); err == nil {
		t.Fatal("expected error for missing ID3 magic")
	}
}

func TestSerializeAsEmsgWrapsID3(t *testing.T) {
	m := &ID3TimedMetadata{}
	m.AddTextFrame("TIT2", "cue")

	box := m.SerializeAsEmsg(90000, 1.5)
	if string(box[4:8]) != "emsg" {
		t.Fatalf("box type = %q, want emsg", box[4:8])
	}
	if box[8] != 1 {
		t.Errorf("version = %d, want 1", box[8])
	}
	if !strings.Contains(string(box), emsgSchemeIDURI) {
		t.Error("emsg payload missing scheme_id_uri")
	}
	if !strings.Contains(string(box), "ID3") {
		t.Error("emsg payload missing wrapped ID3 tag")
	}
}
