// Package nvm lays sections out in a flat image of the device's
// non-volatile memory.
package nvm

import "fmt"

// CapacityError reports an image that does not fit. Need is the size that
// would have been required.
type CapacityError struct {
	Need int
	Have int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("need NVM size %d, have %d", e.Need, e.Have)
}

type Image struct {
	Bytes []byte

	// Offsets[i] is where sections[i] starts.
	Offsets []int

	// Used is the end of the last section.
	Used int
}

// Assemble reserves the first reserved bytes for the runtime and appends
// the sections after it in order. The image is size bytes long and zero
// wherever no section was written. Nothing is allocated when the sections
// do not fit.
func Assemble(reserved, size int, sections ...[]byte) (*Image, error) {
	need := reserved
	for _, sec := range sections {
		need += len(sec)
	}
	if need > size {
		return nil, &CapacityError{Need: need, Have: size}
	}
	img := &Image{
		Bytes:   make([]byte, size),
		Offsets: make([]int, len(sections)),
		Used:    need,
	}
	at := reserved
	for i, sec := range sections {
		img.Offsets[i] = at
		at += copy(img.Bytes[at:], sec)
	}
	return img, nil
}
