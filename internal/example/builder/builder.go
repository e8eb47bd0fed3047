// Package builder writes graph language text for the example nets. Weights
// are pseudo-random but fixed by the seed, so a given example always
// compiles to the same image.
package builder

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"nvmcc/internal/raw"
)

type Builder struct {
	text  []byte
	names map[string]int
	rng   *rand.Rand
}

func New(seed int64) *Builder {
	return &Builder{
		names: make(map[string]int),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Name returns prefix followed by a counter that is unique to prefix.
func (b *Builder) Name(prefix string) string {
	i := b.names[prefix] + 1
	b.names[prefix] = i
	return prefix + strconv.Itoa(i)
}

// Line appends one declaration. Each seg is Label=Value.
func (b *Builder) Line(head string, segs ...string) {
	b.text = append(b.text, head...)
	for _, seg := range segs {
		b.text = append(b.text, ' ')
		b.text = append(b.text, seg...)
	}
	b.text = append(b.text, '\n')
}

func Seg(label, val string) string {
	return label + raw.Binder + val
}

func Ints(a ...int) string {
	strs := make([]string, len(a))
	for i, n := range a {
		strs[i] = strconv.Itoa(n)
	}
	return strings.Join(strs, ",")
}

func Dims(a ...int) string {
	strs := make([]string, len(a))
	for i, n := range a {
		strs[i] = strconv.Itoa(n)
	}
	return strings.Join(strs, "x")
}

func (b *Builder) Input(tensor string, c, h, w int) string {
	b.Line("Input",
		Seg("ToTensor", tensor),
		Seg("Channels", strconv.Itoa(c)),
		Seg("Height", strconv.Itoa(h)),
		Seg("Width", strconv.Itoa(w)),
	)
	return tensor
}

// Weights declares a Float constant of the given dims with values drawn
// uniformly from [-bound, bound].
func (b *Builder) Weights(prefix string, bound float64, dims ...int) string {
	n := 1
	for _, dim := range dims {
		n *= dim
	}
	vals := make([]string, n)
	for i := range vals {
		x := (b.rng.Float64()*2 - 1) * bound
		vals[i] = strconv.FormatFloat(x, 'f', 4, 32)
	}
	name := b.Name(prefix)
	b.Line("Const",
		Seg("ToTensor", name),
		Seg("Type", "Float"),
		Seg("Dims", Dims(dims...)),
		Seg("Data", strings.Join(vals, ",")),
	)
	return name
}

// Shape declares an Int64 constant holding vals.
func (b *Builder) Shape(prefix string, vals ...int) string {
	name := b.Name(prefix)
	b.Line("Const",
		Seg("ToTensor", name),
		Seg("Type", "Int64"),
		Seg("Dims", strconv.Itoa(len(vals))),
		Seg("Data", Ints(vals...)),
	)
	return name
}

// Op declares an operator named like its output tensor and returns the
// output tensor. The before segments go between Name and ToTensor, the
// after segments follow ToTensor.
func (b *Builder) Op(head, prefix string, before []string, after ...string) string {
	to := b.Name(prefix)
	all := append([]string{Seg("Name", to)}, before...)
	all = append(all, Seg("ToTensor", to))
	all = append(all, after...)
	b.Line(head, all...)
	return to
}

func (b *Builder) Unary(head, prefix, from string, after ...string) string {
	return b.Op(head, prefix, []string{Seg("FromTensor", from)}, after...)
}

func (b *Builder) Binary(head, prefix, from1, from2 string) string {
	return b.Op(head, prefix, []string{Seg("FromTensor1", from1), Seg("FromTensor2", from2)})
}

// Conv declares a Conv with fresh weights and biases for k filters of size
// r by r over c channels.
func (b *Builder) Conv(from string, c, k, r, stride int, pad raw.AutoPad) string {
	bound := 1 / math.Sqrt(float64(c*r*r))
	w := b.Weights("w", bound, k, c, r, r)
	bias := b.Weights("b", bound, k)
	return b.Op("Conv", "conv",
		[]string{
			Seg("FromTensor", from),
			Seg("WeightsTensor", w),
			Seg("BiasesTensor", bias),
		},
		Seg("Strides", Ints(stride, stride)),
		Seg("AutoPad", raw.AutoPadStrings[pad]),
	)
}

func (b *Builder) MaxPool(from string, r, stride int) string {
	return b.Unary("MaxPool", "pool", from,
		Seg("KernelShape", Ints(r, r)),
		Seg("Strides", Ints(stride, stride)),
		Seg("AutoPad", raw.AutoPadStrings[raw.NotSet]),
	)
}

func (b *Builder) Reshape(from, shape string) string {
	return b.Op("Reshape", "reshape", []string{
		Seg("FromTensor", from),
		Seg("ShapeTensor", shape),
	})
}

func (b *Builder) Concat(axis int, from ...string) string {
	return b.Op("Concat", "concat",
		[]string{Seg("FromTensors", strings.Join(from, ","))},
		Seg("Axis", strconv.Itoa(axis)),
	)
}

func (b *Builder) Bytes() []byte {
	return b.text
}
