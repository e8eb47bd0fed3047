package nvm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	img, err := Assemble(4, 16, []byte{1, 2}, nil, []byte{3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0, 0, 0, 0,
		1, 2,
		3, 4, 5,
		0, 0, 0, 0, 0, 0, 0,
	}, img.Bytes)
	assert.Equal(t, []int{4, 6, 6}, img.Offsets)
	assert.Equal(t, 9, img.Used)
}

func TestCapacity(t *testing.T) {
	t.Run("Exact", func(t *testing.T) {
		img, err := Assemble(2, 5, []byte{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, 5, img.Used)
	})

	t.Run("Over", func(t *testing.T) {
		img, err := Assemble(2, 5, []byte{1, 2}, []byte{3, 4})
		require.Error(t, err)
		assert.Nil(t, img)
		var capErr *CapacityError
		require.True(t, errors.As(errors.Wrap(err, "compile failed"), &capErr))
		assert.Equal(t, 6, capErr.Need)
		assert.Equal(t, 5, capErr.Have)
		assert.Equal(t, "need NVM size 6, have 5", err.Error())
	})
}
