package example

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nvmcc/internal/compile"
	"nvmcc/internal/compile/plan"
	"nvmcc/internal/config"
	"nvmcc/internal/dataset"
	"nvmcc/internal/raw"
)

func samples(c, h, w int) []dataset.Sample {
	out := make([]dataset.Sample, 2)
	for i := range out {
		data := make([]float32, c*h*w)
		for j := range data {
			data[j] = float32(j%7) / 7
		}
		out[i] = dataset.Sample{Channels: c, Height: h, Width: w, Data: data, Label: i}
	}
	return out
}

func build(t *testing.T, name, cfgName string, c, h, w int) *compile.Result {
	text := Generate(name)
	require.NotEmpty(t, text)
	_, err := raw.Parse(string(text))
	require.NoError(t, err)
	cfg, err := config.Lookup(cfgName, config.Options{})
	require.NoError(t, err)
	res, err := compile.Compile(string(text), samples(c, h, w), cfg, compile.Options{})
	require.NoError(t, err)
	return res
}

// liveUntilLastUse checks that no output is released before its last
// consumer runs.
func liveUntilLastUse(t *testing.T, pl *plan.Plan) {
	for _, node := range pl.Nodes {
		for _, id := range node.Inputs {
			if id < pl.NInput {
				continue
			}
			used := pl.Nodes[id-pl.NInput]
			assert.GreaterOrEqual(t, used.MaxOutputID, node.ID, used.Name)
		}
	}
	assert.Zero(t, pl.Nodes[len(pl.Nodes)-1].MaxOutputID)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"LeNet5", "SqueezeNet"}, Names())
	assert.Nil(t, Generate("AlexNet"))
}

func TestLeNet5(t *testing.T) {
	res := build(t, "LeNet5", "mnist", 1, 28, 28)
	pl := res.Plan
	require.Len(t, pl.Nodes, 11)
	liveUntilLastUse(t, pl)
	for _, node := range pl.Nodes {
		want := node.Name == "pool2"
		assert.Equal(t, want, node.Flags.NHWC2NCHW, node.Name)
	}
	for _, node := range pl.Nodes {
		assert.NotEqual(t, raw.OpSqueeze, node.Op)
	}
	assert.NotEmpty(t, res.Streams[0])
	assert.NotEmpty(t, res.Streams[1])
}

func TestSqueezeNet(t *testing.T) {
	res := build(t, "SqueezeNet", "cifar10", 3, 32, 32)
	pl := res.Plan
	liveUntilLastUse(t, pl)
	concats := 0
	for _, node := range pl.Nodes {
		if node.Op == raw.OpConcat {
			concats++
		}
	}
	assert.Equal(t, 3, concats)
}

func TestDeterministic(t *testing.T) {
	for _, name := range Names() {
		assert.Equal(t, Generate(name), Generate(name), name)
	}
}
