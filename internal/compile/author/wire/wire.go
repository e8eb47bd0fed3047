// Package wire appends fixed-width little-endian integers. Every field the
// runtime reads is written through one of these, so the width of a field
// is visible at its call site.
package wire

import "encoding/binary"

type Buf struct {
	b []byte
}

func (w *Buf) Len() int      { return len(w.b) }
func (w *Buf) Bytes() []byte { return w.b }

func (w *Buf) U8(v int) *Buf {
	w.b = append(w.b, uint8(v))
	return w
}

func (w *Buf) U16(v int) *Buf {
	w.b = binary.LittleEndian.AppendUint16(w.b, uint16(v))
	return w
}

// I16 stores v as a two's complement 16-bit value, so -1 becomes 0xffff.
func (w *Buf) I16(v int) *Buf {
	w.b = binary.LittleEndian.AppendUint16(w.b, uint16(int16(v)))
	return w
}

func (w *Buf) U32(v int) *Buf {
	w.b = binary.LittleEndian.AppendUint32(w.b, uint32(v))
	return w
}

func (w *Buf) I64(v int64) *Buf {
	w.b = binary.LittleEndian.AppendUint64(w.b, uint64(v))
	return w
}

func (w *Buf) Zeros(n int) *Buf {
	for i := 0; i < n; i++ {
		w.b = append(w.b, 0)
	}
	return w
}

func (w *Buf) Raw(p []byte) *Buf {
	w.b = append(w.b, p...)
	return w
}

// Padded writes s followed by NULs up to exactly n bytes. The caller
// guarantees len(s) < n.
func (w *Buf) Padded(s string, n int) *Buf {
	w.b = append(w.b, s...)
	return w.Zeros(n - len(s))
}
