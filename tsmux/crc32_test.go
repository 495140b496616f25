package tsmux

import "testing"

func TestCRC32MPEG2(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"ascii digits", []byte("123456789"), 0x0376E6E7},
		{"nil", nil, 0xFFFFFFFF},
		{"single zero byte", []byte{0x00}, 0x4E08BFB4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CRC32MPEG2(c.in); got != c.want {
				t.Errorf("CRC32MPEG2(%v) = %#08x, want %#08x", c.in, got, c.want)
			}
		})
	}
}
