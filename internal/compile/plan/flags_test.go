package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBits(t *testing.T) {
	for _, tc := range []struct {
		name  string
		flags Flags
		want  uint16
	}{
		{"Zero", Flags{}, 0},
		{"Stride", Flags{Stride: 2}, 0x0002},
		{"Pool", Flags{Stride: 2, KernelSize: 2, NHWC2NCHW: true}, 0x0222},
		{"ConvValid", Flags{Stride: 1, AutoPadValid: true}, 0x0101},
		{"Generic", Flags{Transposed: true, SeparateTiling: true}, 0x0c00},
		{"Max", Flags{Stride: 15, KernelSize: 15, AutoPadValid: true, NHWC2NCHW: true,
			Transposed: true, SeparateTiling: true}, 0x0fff},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.flags.Check())
			assert.Equal(t, tc.want, tc.flags.Bits())
		})
	}
}

func TestCheck(t *testing.T) {
	assert.Error(t, (&Flags{Stride: 16}).Check())
	assert.Error(t, (&Flags{KernelSize: 16}).Check())
	assert.Error(t, (&Flags{Stride: -1}).Check())
}

func TestGenericBit(t *testing.T) {
	require.Len(t, GenericStrings, 4)
	assert.Equal(t, "NHWC2NCHW", GenericStrings[1])
	assert.Equal(t, 2, GenericBit(1))
	assert.Equal(t, 8, GenericBit(3))
}

func TestParamType(t *testing.T) {
	assert.Equal(t, 16, Fixed16.Bits())
	assert.Equal(t, 64, Int64.Bits())
}
