package hlserr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	e := New(InvalidConfiguration, "no streams configured")
	assert.Equal(t, "InvalidConfiguration: no streams configured", e.Error())

	cause := errors.New("boom")
	w := Wrap(PacketError, "could not build segment", cause)
	assert.Equal(t, "PacketError: could not build segment: boom", w.Error())
	assert.True(t, errors.Is(w, cause))
}

func TestIsMatchesOnKind(t *testing.T) {
	a := New(StreamEnded, "first reason")
	b := New(StreamEnded, "different reason")
	c := New(UnknownID, "unrelated")

	assert.True(t, errors.Is(a, b), "same Kind should match")
	assert.False(t, errors.Is(a, c), "different Kind should not match")
}

func TestUnknownKindString(t *testing.T) {
	var k Kind = 999
	assert.Equal(t, "Unknown", k.String())
}
