package author

import (
	"strconv"
	"strings"

	"nvmcc/internal/compile/author/data"
	"nvmcc/internal/compile/author/model"
	"nvmcc/internal/compile/author/wire"
	"nvmcc/internal/compile/plan"
)

// Stream names a section of the image. Streams are laid out in this order.
type Stream int

const (
	Parameters Stream = iota
	Parameters2
	Samples
	Model
	Labels
	Counters
	StreamCount
)

var StreamStrings = [StreamCount]string{
	Parameters:  "parameters",
	Parameters2: "parameters2",
	Samples:     "samples",
	Model:       "model",
	Labels:      "labels",
	Counters:    "counters",
}

func (s Stream) String() string { return StreamStrings[s] }

// CountersBytes is the size of the runtime's counters area.
const CountersBytes = 4*plan.CountersLen + 2

type Result struct {
	Streams [StreamCount][]byte
	H, C    []byte

	// Listing is the labels, space separated, for labels.txt.
	Listing []byte
}

func Implement(pl *plan.Plan) (*Result, error) {
	st := state{pl: pl, res: new(Result)}
	for _, stage := range [...]func() error{
		st.stage1,
		st.stage2,
		st.stage3,
		st.stage4,
	} {
		if err := stage(); err != nil {
			return nil, err
		}
	}
	return st.res, nil
}

type state struct {
	pl  *plan.Plan
	res *Result
}

func (st *state) stage1() error {
	st.res.Streams[Parameters] = st.pl.Region1
	st.res.Streams[Parameters2] = st.pl.Region2
	st.res.Streams[Samples] = st.pl.Samples
	labels := new(wire.Buf)
	for _, label := range st.pl.Labels {
		labels.U8(label)
	}
	st.res.Streams[Labels] = labels.Bytes()
	st.res.Streams[Counters] = make([]byte, CountersBytes)
	return nil
}

func (st *state) stage2() error {
	enc, err := model.Encode(st.pl)
	if err != nil {
		return err
	}
	st.res.Streams[Model] = enc
	return nil
}

// stage3 generates the companion sources. The samples and labels arrays
// carry only the first sample.
func (st *state) stage3() error {
	var vars []data.Var
	for s := Stream(0); s < StreamCount; s++ {
		if s == Samples || s == Labels {
			continue
		}
		vars = append(vars, data.Var{Name: s.String() + "_data", Data: st.res.Streams[s]})
	}
	for _, s := range [...]Stream{Samples, Labels} {
		vars = append(vars, data.Var{Name: s.String() + "_data", Data: st.first(s)})
	}
	st.res.H, st.res.C = data.Implement(st.pl, vars)
	return nil
}

func (st *state) first(s Stream) []byte {
	all := st.res.Streams[s]
	n := len(st.pl.Labels)
	if n == 0 {
		return nil
	}
	return all[:len(all)/n]
}

func (st *state) stage4() error {
	strs := make([]string, len(st.pl.Labels))
	for i, label := range st.pl.Labels {
		strs[i] = strconv.Itoa(label)
	}
	st.res.Listing = []byte(strings.Join(strs, " "))
	return nil
}
