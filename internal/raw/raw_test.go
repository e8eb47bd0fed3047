package raw

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		nodes, err := Parse("")
		require.NoError(t, err)
		require.Empty(t, nodes)
	})

	t.Run("FinalNewline", func(t *testing.T) {
		_, err := Parse("Input ToTensor=x Channels=1 Height=2 Width=2")
		require.Error(t, err)
		require.Contains(t, err.Error(), "final newline")
	})

	t.Run("Declarations", func(t *testing.T) {
		text := "Input ToTensor=image Channels=1 Height=28 Width=28\n" +
			"Const ToTensor=w Type=Float Dims=2x1x1x1 Data=0.5,-0.25\n" +
			"Const ToTensor=shape Type=Int64 Dims=2 Data=1,-1\n" +
			"Conv Name=conv1 FromTensor=image WeightsTensor=w BiasesTensor=- ToTensor=c\n" +
			"  Strides=2,2 AutoPad=VALID\n" +
			"Dropout Name=drop FromTensor=c ToTensor=d MaskTensor=mask\n" +
			"Concat Name=cat FromTensors=c,d ToTensor=e Axis=1\n" +
			"Reshape Name=flat FromTensor=e ShapeTensor=shape ToTensor=f\n"
		nodes, err := Parse(text)
		require.NoError(t, err)
		require.Len(t, nodes, 7)

		in := nodes[0].(*Input)
		assert.Equal(t, &Input{LineNum: 1, ToTensor: "image", Channels: 1, Height: 28, Width: 28}, in)

		w := nodes[1].(*Const)
		assert.Equal(t, Float, w.Type)
		assert.Equal(t, []int{2, 1, 1, 1}, w.Dims)
		assert.Equal(t, []string{"0.5", "-0.25"}, w.Data.Values)

		conv := nodes[3].(*Conv)
		assert.Equal(t, 4, conv.LineNum)
		assert.Equal(t, []int{2, 2}, conv.Strides)
		assert.Equal(t, Valid, conv.AutoPad)
		assert.Equal(t, []string{"image", "w"}, conv.FromTensors())
		assert.Equal(t, OpConv, conv.OpType())

		drop := nodes[4].(*Dropout)
		assert.Equal(t, []string{"d", "mask"}, drop.ToTensors())

		cat := nodes[5].(*Concat)
		assert.Equal(t, []string{"c", "d"}, cat.FromTensors())
		assert.Equal(t, 1, cat.Axis)

		flat := nodes[6].(*Binary)
		assert.Equal(t, OpReshape, flat.OpType())
		assert.Equal(t, []string{"e", "shape"}, flat.FromTensors())
	})

	t.Run("DataFile", func(t *testing.T) {
		nodes, err := Parse("Const ToTensor=w Type=Float Dims=3x3 Data=@weights/w.bin\n")
		require.NoError(t, err)
		assert.Equal(t, Data{File: "weights/w.bin"}, nodes[0].(*Const).Data)
	})

	t.Run("UnknownHead", func(t *testing.T) {
		_, err := Parse("Input ToTensor=x Channels=1 Height=1 Width=1\nGemm Name=g\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("WrongLabel", func(t *testing.T) {
		_, err := Parse("Relu Name=r ToTensor=x FromTensor=y\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected FromTensor=")
	})

	t.Run("ValueCount", func(t *testing.T) {
		_, err := Parse("Const ToTensor=w Type=Float Dims=2x2 Data=1,2,3\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "3 values for 4 elements")
	})

	t.Run("BadChoice", func(t *testing.T) {
		_, err := Parse("Const ToTensor=w Type=Complex Dims=1 Data=1\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Type")
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Parse("MaxPool Name=p FromTensor=x ToTensor=y KernelShape=2,2\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Strides")
	})
}

func TestOps(t *testing.T) {
	var names []string
	for op := OpType(0); op < OpCount; op++ {
		names = append(names, op.String())
	}
	assert.Equal(t,
		"Add Concat Conv ConvMerge Dropout GlobalAveragePool MatMul MaxPool Relu Reshape Softmax Squeeze Transpose",
		strings.Join(names, " "))
	for op := OpType(0); op < OpCount; op++ {
		assert.NotNil(t, Guide[op.String()], op.String())
	}
	assert.Equal(t, 3, Ops[OpConv].ExpectedInputs)
	assert.True(t, Ops[OpReshape].Inplace)
	assert.False(t, Ops[OpConcat].Inplace)
	assert.Equal(t, "OpType(99)", OpType(99).String())
}

func TestHeads(t *testing.T) {
	heads := Heads()
	require.Len(t, heads, int(OpCount)+2)
	assert.IsIncreasing(t, heads)
	assert.Contains(t, heads, "Input")
	assert.Contains(t, heads, "Const")
}
