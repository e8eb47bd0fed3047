package plan

import (
	"github.com/pkg/errors"
	"nvmcc/internal/config"
	"nvmcc/internal/raw"
)

const (
	SlotParameters  = 0xf0
	SlotParameters2 = 0xf1
	SlotTestSet     = 0xff

	SlotIntermediateValues = 0b01

	// NodeNameLen makes a node record exactly 64 bytes.
	NodeNameLen = 54

	MaxOutputIDInvalid = 0x8000

	CountersLen = 64
)

type Node struct {
	ID          int
	Name        string
	Inputs      []int
	Op          raw.OpType
	Flags       Flags
	MaxOutputID int
}

type ParamType int

const (
	Fixed16 ParamType = iota
	Int64
)

// Bits is the bitwidth field of a parameter record.
func (p ParamType) Bits() int {
	if p == Int64 {
		return 64
	}
	return 16
}

type Param struct {
	ID     int
	Name   string
	Input  bool
	Dims   []int
	Type   ParamType
	Bytes  int
	Offset int
	Slot   int
	TileC  int
	Scale  int
}

// Plan is everything the encoder needs. Nodes are in declaration order and
// Params are indexed by id (graph inputs and constants, 0 to NInput-1).
type Plan struct {
	Config  *config.Config
	NInput  int
	Nodes   []*Node
	Params  []*Param
	Region1 []byte
	Region2 []byte
	Samples []byte
	Labels  []int
}

var (
	ErrStructure       = errors.New("structural invariant violated")
	ErrUnsupportedType = errors.New("unsupported data type")
)
