package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"nvmcc/internal/compile/plan"
)

func TestPlace(t *testing.T) {
	a := New(1024)

	off, id := a.Place(make([]byte, 1024))
	assert.Equal(t, 0, off)
	assert.Equal(t, plan.SlotParameters, id)

	off, id = a.Place(make([]byte, 1025))
	assert.Equal(t, 0, off)
	assert.Equal(t, plan.SlotParameters2, id)

	off, id = a.Place([]byte{1, 2})
	assert.Equal(t, 1024, off)
	assert.Equal(t, plan.SlotParameters, id)

	off, id = a.Place(make([]byte, 2000))
	assert.Equal(t, 1025, off)
	assert.Equal(t, plan.SlotParameters2, id)

	assert.Len(t, a.A.Data, 1026)
	assert.Len(t, a.B.Data, 3025)
	assert.Equal(t, []byte{1, 2}, a.A.Data[1024:])
}

func TestReserve(t *testing.T) {
	a := New(1024)
	a.Place(make([]byte, 10))
	off, id := a.Reserve()
	assert.Equal(t, 10, off)
	assert.Equal(t, plan.SlotTestSet, id)
	assert.Len(t, a.A.Data, 10)
	assert.Empty(t, a.B.Data)
}

func TestMonotonic(t *testing.T) {
	a := New(64)
	last := map[int]int{}
	for n := 1; n < 200; n += 7 {
		off, id := a.Place(make([]byte, n))
		if prev, ok := last[id]; ok {
			assert.Greater(t, off, prev)
		}
		last[id] = off
	}
}
