package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nvmcc/internal/config"
)

func cntkLine(label int, pixel string) string {
	hot := make([]string, 10)
	for i := range hot {
		hot[i] = "0"
	}
	hot[label] = "1"
	px := make([]string, 28*28)
	for i := range px {
		px[i] = pixel
	}
	return "|labels " + strings.Join(hot, " ") + " |features " + strings.Join(px, " ") + "\n"
}

func TestLoadCNTK(t *testing.T) {
	text := cntkLine(7, "255") + "\n" + cntkLine(2, "51") + cntkLine(0, "0")

	t.Run("All", func(t *testing.T) {
		samples, err := LoadCNTK(strings.NewReader(text), -1)
		require.NoError(t, err)
		require.Len(t, samples, 3)
		s := samples[0]
		assert.Equal(t, 7, s.Label)
		assert.Equal(t, []int{1, 28, 28}, []int{s.Channels, s.Height, s.Width})
		require.Len(t, s.Data, 28*28)
		assert.Equal(t, float32(1), s.Data[0])
		assert.InDelta(t, 0.2, samples[1].Data[100], 1e-6)
		assert.Equal(t, 2, samples[1].Label)
	})

	t.Run("Limit", func(t *testing.T) {
		samples, err := LoadCNTK(strings.NewReader(text), 2)
		require.NoError(t, err)
		assert.Len(t, samples, 2)
	})

	t.Run("Features", func(t *testing.T) {
		_, err := LoadCNTK(strings.NewReader("|labels 1 0 |features 1 2 3\n"), -1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("NoLabel", func(t *testing.T) {
		_, err := LoadCNTK(strings.NewReader(strings.Replace(cntkLine(3, "0"), " 1 ", " 0 ", 1)), -1)
		require.Error(t, err)
	})
}

func cifarRecords(labels ...byte) []byte {
	var buf []byte
	for _, label := range labels {
		rec := make([]byte, cifarRecord)
		rec[0] = label
		rec[1] = 255
		rec[1+1024] = 51
		buf = append(buf, rec...)
	}
	return buf
}

func TestLoadCIFAR10(t *testing.T) {
	t.Run("All", func(t *testing.T) {
		samples, err := LoadCIFAR10(bytes.NewReader(cifarRecords(3, 9)), -1)
		require.NoError(t, err)
		require.Len(t, samples, 2)
		s := samples[0]
		assert.Equal(t, 3, s.Label)
		assert.Equal(t, []int{3, 32, 32}, []int{s.Channels, s.Height, s.Width})
		assert.Equal(t, float32(1), s.Data[0])
		assert.InDelta(t, 0.2, s.Data[1024], 1e-6)
		assert.Equal(t, 9, samples[1].Label)
	})

	t.Run("Limit", func(t *testing.T) {
		samples, err := Load(config.CIFAR10, bytes.NewReader(cifarRecords(1, 2, 3)), 1)
		require.NoError(t, err)
		assert.Len(t, samples, 1)
	})

	t.Run("Truncated", func(t *testing.T) {
		buf := cifarRecords(1)
		_, err := LoadCIFAR10(bytes.NewReader(buf[:100]), -1)
		require.Error(t, err)
	})

	t.Run("Label", func(t *testing.T) {
		_, err := LoadCIFAR10(bytes.NewReader(cifarRecords(10)), -1)
		require.Error(t, err)
	})
}

func TestLoadUnknown(t *testing.T) {
	_, err := Load(config.Loader(9), strings.NewReader(""), -1)
	require.Error(t, err)
}
