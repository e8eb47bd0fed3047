package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuf(t *testing.T) {
	w := new(Buf)
	w.U8(0xab).U16(0x1234).I16(-1).U32(0xdeadbeef).I64(-2)
	assert.Equal(t, []byte{
		0xab,
		0x34, 0x12,
		0xff, 0xff,
		0xef, 0xbe, 0xad, 0xde,
		0xfe, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}, w.Bytes())
	assert.Equal(t, 17, w.Len())
}

func TestPadded(t *testing.T) {
	w := new(Buf)
	w.Padded("ab", 5).Zeros(1).Raw([]byte{7})
	assert.Equal(t, []byte{'a', 'b', 0, 0, 0, 0, 7}, w.Bytes())
}
