package squeezenet

import (
	"nvmcc/internal/example/builder"
	"nvmcc/internal/raw"
)

const (
	seed    = 10
	side    = 32
	classes = 10
)

type tensor struct {
	name     string
	channels int
}

type state struct {
	*builder.Builder
}

func (st state) conv(t tensor, k, r int, pad raw.AutoPad) tensor {
	x := st.Conv(t.name, t.channels, k, r, 1, pad)
	return tensor{st.Unary("Relu", "relu", x), k}
}

// fire squeezes to s channels, then expands to 2*e channels through a 1x1
// branch and a 3x3 branch.
func (st state) fire(t tensor, s, e int) tensor {
	sq := st.conv(t, s, 1, raw.NotSet)
	e1 := st.conv(sq, e, 1, raw.NotSet)
	e3 := st.conv(sq, e, 3, raw.SameUpper)
	return tensor{st.Concat(1, e1.name, e3.name), 2 * e}
}

func (st state) pool(t tensor) tensor {
	return tensor{st.MaxPool(t.name, 2, 2), t.channels}
}

// SqueezeNet is a reduced SqueezeNet for CIFAR-10.
func SqueezeNet() []byte {
	st := state{builder.New(seed)}
	t := tensor{st.Input("image", 3, side, side), 3}
	t = st.conv(t, 16, 3, raw.Valid)
	t = st.pool(t)
	t = st.fire(t, 8, 16)
	t = st.fire(t, 8, 16)
	t = st.pool(t)
	t = st.fire(t, 16, 32)
	t.name = st.Unary("Dropout", "dropout", t.name, builder.Seg("MaskTensor", "-"))
	t = st.conv(t, classes, 1, raw.NotSet)
	x := st.Unary("GlobalAveragePool", "gap", t.name)
	x = st.Reshape(x, st.Shape("shape", 1, classes))
	st.Unary("Softmax", "softmax", x)
	return st.Bytes()
}
