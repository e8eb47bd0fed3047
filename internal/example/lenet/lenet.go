package lenet

import (
	"nvmcc/internal/example/builder"
	"nvmcc/internal/raw"
)

const (
	seed     = 5
	side     = 28
	classes  = 10
	features = 16 * 4 * 4
)

// LeNet5 is the small MNIST classifier: two conv/pool stages and one fully
// connected layer whose bias is declared 1x10 and squeezed.
func LeNet5() []byte {
	b := builder.New(seed)
	x := b.Input("image", 1, side, side)
	x = b.Conv(x, 1, 8, 5, 1, raw.SameUpper)
	x = b.Unary("Relu", "relu", x)
	x = b.MaxPool(x, 2, 2)
	x = b.Conv(x, 8, 16, 5, 1, raw.SameUpper)
	x = b.Unary("Relu", "relu", x)
	x = b.MaxPool(x, 3, 3)
	x = b.Reshape(x, b.Shape("shape", 1, features))
	x = b.Binary("MatMul", "matmul", x, b.Weights("w", 0.0625, features, classes))
	bias := b.Weights("b", 0.0625, 1, classes)
	bias = b.Unary("Squeeze", "squeeze", bias, builder.Seg("Axes", "0"))
	b.Binary("Add", "add", x, bias)
	return b.Bytes()
}
