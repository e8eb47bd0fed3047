package slot

import "nvmcc/internal/compile/plan"

type Region struct {
	ID   int
	Data []byte
}

// Offset is where the next placement in this region starts.
func (r *Region) Offset() int {
	return len(r.Data)
}

// Allocator appends parameters to one of two regions. Offsets only grow:
// nothing placed is ever moved, and later stages address the regions
// through the recorded offsets alone.
type Allocator struct {
	Threshold int
	A, B      Region
}

func New(threshold int) *Allocator {
	return &Allocator{
		Threshold: threshold,
		A:         Region{ID: plan.SlotParameters},
		B:         Region{ID: plan.SlotParameters2},
	}
}

func (a *Allocator) Select(n int) *Region {
	if n <= a.Threshold {
		return &a.A
	}
	return &a.B
}

func (a *Allocator) Place(data []byte) (offset, slot int) {
	r := a.Select(len(data))
	offset = r.Offset()
	r.Data = append(r.Data, data...)
	return offset, r.ID
}

// Reserve describes a graph input. Its data arrives from the test set at
// run time, so nothing is appended.
func (a *Allocator) Reserve() (offset, slot int) {
	return a.A.Offset(), plan.SlotTestSet
}
