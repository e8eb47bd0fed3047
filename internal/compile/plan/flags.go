package plan

import "github.com/pkg/errors"

// Flags are the structural attributes of a node. They are packed into the
// runtime's 16-bit layout only by Bits:
//
//	15-08 generic flags
//	07-04 kernel size (MaxPool)
//	03-00 stride (Conv and MaxPool)
type Flags struct {
	Stride         int
	KernelSize     int
	AutoPadValid   bool
	NHWC2NCHW      bool
	Transposed     bool
	SeparateTiling bool
}

const (
	strideShift  = 0
	kernelShift  = 4
	genericShift = 8
	fieldMax     = 0xf
)

// Generic flags, in bit order within the high byte. A new flag takes the
// next unused bit.
var GenericStrings = []string{
	"AUTO_PAD_VALID",
	"NHWC2NCHW",
	"TRANSPOSED",
	"SEPARATE_TILING",
}

func (f *Flags) generic() []bool {
	return []bool{
		f.AutoPadValid,
		f.NHWC2NCHW,
		f.Transposed,
		f.SeparateTiling,
	}
}

func (f *Flags) Check() error {
	if f.Stride < 0 || f.Stride > fieldMax {
		return errors.Errorf("stride %d does not fit in 4 bits", f.Stride)
	}
	if f.KernelSize < 0 || f.KernelSize > fieldMax {
		return errors.Errorf("kernel size %d does not fit in 4 bits", f.KernelSize)
	}
	return nil
}

// Bits assumes Check has passed.
func (f *Flags) Bits() uint16 {
	bits := uint16(f.Stride)<<strideShift | uint16(f.KernelSize)<<kernelShift
	for i, on := range f.generic() {
		if on {
			bits |= 1 << (genericShift + i)
		}
	}
	return bits
}

// GenericBit is the value of a generic flag as the runtime sees it within
// the high byte (before the shift by 8).
func GenericBit(i int) int {
	return 1 << i
}
