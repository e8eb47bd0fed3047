// Package model encodes the runtime's model section: the header, one
// record per node, one record per parameter, a zeroed record per node for
// its output tensor, and the node input index array.
package model

import (
	"fmt"

	"github.com/pkg/errors"
	"nvmcc/internal/compile/author/wire"
	"nvmcc/internal/compile/plan"
)

const (
	NodeBytes  = plan.NodeNameLen + 5*2
	ParamBytes = 4 + 4 + 1 + 1 + 2 + 4*2 + 1 + 3 + 2 + 2
	dimsLen    = 4
	u16Max     = 0xffff
)

// HeaderBytes is the size of the header for numSlots intermediate value
// slots.
func HeaderBytes(numSlots int) int {
	return (5 + 2*numSlots + 2) * 2
}

func Encode(pl *plan.Plan) ([]byte, error) {
	if err := check(pl); err != nil {
		return nil, err
	}
	w := new(wire.Buf)
	header(w, pl)
	inputs, err := nodes(w, pl)
	if err != nil {
		return nil, err
	}
	for _, p := range pl.Params {
		param(w, p)
	}
	for range pl.Nodes {
		placeholder(w, pl.Config.Scale)
	}
	w.Raw(inputs)
	return w.Bytes(), nil
}

func anError(format string, args ...interface{}) error {
	return errors.WithMessage(plan.ErrStructure, fmt.Sprintf(format, args...))
}

// check makes the ordering convention between compiler and runtime
// explicit: ids are dense, inputs first, then nodes in declaration order.
func check(pl *plan.Plan) error {
	if len(pl.Params) != pl.NInput {
		return anError("%d parameter records for %d inputs", len(pl.Params), pl.NInput)
	}
	for i, p := range pl.Params {
		if p.ID != i {
			return anError("parameter %s has id %d at position %d", p.Name, p.ID, i)
		}
		if len(p.Dims) > dimsLen {
			return anError("parameter %s has %d dims", p.Name, len(p.Dims))
		}
	}
	prev := pl.NInput - 1
	for i, node := range pl.Nodes {
		if node.ID <= prev || node.ID != pl.NInput+i {
			return anError("node %s has id %d at position %d", node.Name, node.ID, i)
		}
		prev = node.ID
	}
	if n := pl.NInput + len(pl.Nodes); n > u16Max/2 {
		return anError("%d ids do not fit the input index array", n)
	}
	return nil
}

func header(w *wire.Buf, pl *plan.Plan) {
	w.U16(len(pl.Nodes))
	w.U16(pl.NInput)
	w.U16(0) // running
	w.U16(0) // recovery
	w.U16(0) // run counter
	for i := 0; i < pl.Config.NumSlots; i++ {
		w.U16(0) // state bit
	}
	for i := 0; i < pl.Config.NumSlots; i++ {
		w.I16(-1) // slot owner
	}
	w.U16(0) // layer index
	w.U16(0) // sample index
}

// nodes writes the node table and returns the input index array it refers
// to. The low bit of each array entry is the runtime's mark for its
// topological sort, so ids are stored doubled.
func nodes(w *wire.Buf, pl *plan.Plan) ([]byte, error) {
	in := new(wire.Buf)
	for _, node := range pl.Nodes {
		if len(node.Name) >= plan.NodeNameLen {
			return nil, anError("node name %q is longer than %d bytes", node.Name, plan.NodeNameLen-1)
		}
		if in.Len() > u16Max {
			return nil, anError("node %s: input index array exceeds %d bytes", node.Name, u16Max)
		}
		if node.MaxOutputID > u16Max {
			return nil, anError("node %s: max output id %d", node.Name, node.MaxOutputID)
		}
		if err := node.Flags.Check(); err != nil {
			return nil, errors.WithMessage(plan.ErrStructure, node.Name+": "+err.Error())
		}
		w.Padded(node.Name, plan.NodeNameLen)
		w.U16(len(node.Inputs))
		w.U16(in.Len())
		w.U16(node.MaxOutputID)
		w.U16(int(node.Op))
		w.U16(int(node.Flags.Bits()))
		for _, id := range node.Inputs {
			in.I16(id * 2)
		}
	}
	return in.Bytes(), nil
}

// Dims pads dims on the left with ones to exactly four entries.
func Dims(dims []int) [dimsLen]int {
	var out [dimsLen]int
	pad := dimsLen - len(dims)
	for i := range out {
		if i < pad {
			out[i] = 1
		} else {
			out[i] = dims[i-pad]
		}
	}
	return out
}

func param(w *wire.Buf, p *plan.Param) {
	w.U32(p.Offset)
	w.U32(p.Bytes)
	w.U8(p.Type.Bits())
	w.U8(p.Slot)
	w.U16(p.TileC)
	for _, dim := range Dims(p.Dims) {
		w.U16(dim)
	}
	tail(w, p.Scale)
}

func placeholder(w *wire.Buf, scale int) {
	w.U32(0)
	w.U32(0)
	w.U8(0)
	w.U8(0)
	w.U16(0)
	w.Zeros(dimsLen * 2)
	tail(w, scale)
}

func tail(w *wire.Buf, scale int) {
	w.U8(0)    // flags
	w.Zeros(3) // extra info
	w.U16(scale)
	w.Zeros(2)
}
