package compile

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"nvmcc/internal/compile/author"
	"nvmcc/internal/compile/author/nvm"
	"nvmcc/internal/compile/author/wire"
	"nvmcc/internal/compile/plan"
	"nvmcc/internal/compile/q15"
	"nvmcc/internal/compile/slot"
	"nvmcc/internal/config"
	"nvmcc/internal/dataset"
	"nvmcc/internal/raw"
)

var (
	ErrStructure       = plan.ErrStructure
	ErrUnsupportedType = plan.ErrUnsupportedType
)

type Options struct {
	// Log receives diagnostics. Nil means no logging.
	Log *zap.Logger

	// ReadFile loads the file named by a Const's @PATH data. Nil means
	// os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

type Result struct {
	Plan    *plan.Plan
	Streams [author.StreamCount][]byte
	Image   *nvm.Image
	H, C    []byte

	// Listing is the labels.txt content.
	Listing []byte

	// Overflows counts the values clamped during quantization.
	Overflows int
}

// Compile runs the whole pipeline on a graph in the graph language. The
// samples become the test set; every sample must match the shape of the
// graph input.
func Compile(text string, samples []dataset.Sample, cfg *config.Config, opts Options) (*Result, error) {
	nodes, err := raw.Parse(text)
	if err != nil {
		return nil, err
	}
	st := newState(nodes, samples, cfg, opts)
	if err := st.stages(); err != nil {
		return nil, errors.Wrap(err, "compile failed")
	}
	return &Result{
		Plan:      &st.plan,
		Streams:   st.res.Streams,
		Image:     st.image,
		H:         st.res.H,
		C:         st.res.C,
		Listing:   st.res.Listing,
		Overflows: st.q.Overflows(),
	}, nil
}

func anError(msg, tensor string, lines ...int) error {
	var pre string
	if n := len(lines); n != 0 {
		if n > 2 {
			panic("bug")
		}
		l0 := lines[0]
		if n == 1 || l0 == lines[1] {
			pre = fmt.Sprintf("line %d: ", l0)
		} else {
			l1 := lines[1]
			if l0 > l1 {
				l0, l1 = l1, l0
			}
			pre = fmt.Sprintf("lines %d and %d: ", l0, l1)
		}
	}
	if tensor != "" {
		pre += tensor + ": "
	}
	return errors.New(pre + msg)
}

// kindError is anError under one of the sentinel kinds.
func kindError(kind error, msg, tensor string, lines ...int) error {
	return errors.WithMessage(kind, anError(msg, tensor, lines...).Error())
}

// op is a node of the normalized graph.
type op struct {
	line  int
	name  string
	typ   raw.OpType
	from  []string
	to    []string
	node  raw.Op
	flags plan.Flags
}

type state struct {
	nodes   []raw.Node
	samples []dataset.Sample
	cfg     *config.Config
	log     *zap.Logger
	read    func(string) ([]byte, error)
	q       *q15.Quantizer

	inputs   []*raw.Input
	consts   []*raw.Const
	raws     []raw.Op
	byName   map[string]*raw.Const
	folded   map[string]string
	ops      []*op
	convW    map[string]bool
	ids      map[string]int
	paramsOf []*raw.Const
	plan     plan.Plan
	res      *author.Result
	image    *nvm.Image
}

func newState(nodes []raw.Node, samples []dataset.Sample, cfg *config.Config, opts Options) *state {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	read := opts.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	return &state{
		nodes:   nodes,
		samples: samples,
		cfg:     cfg,
		log:     log,
		read:    read,
		q:       q15.New(log),
	}
}

var stages = [...]func(*state) error{
	(*state).stage1,
	(*state).stage2,
	(*state).stage3,
	(*state).stage4,
	(*state).stage5,
	(*state).stage6,
	(*state).stage7,
	(*state).stage8,
	(*state).stage9,
	(*state).stage10,
}

func (st *state) stages() error {
	for _, stage := range &stages {
		if err := stage(st); err != nil {
			return err
		}
	}
	return nil
}

// stage1 sorts the declarations. A Const may share its name with an Input
// (it then supplies that input's data) but no other tensor name may be
// declared twice.
func (st *state) stage1() error {
	inputLine := make(map[string]int)
	st.byName = make(map[string]*raw.Const)
	for _, node := range st.nodes {
		switch at := node.(type) {
		case *raw.Input:
			if prev, ok := inputLine[at.ToTensor]; ok {
				return anError("Inputs have the same ToTensor", at.ToTensor, prev, at.LineNum)
			}
			inputLine[at.ToTensor] = at.LineNum
			st.inputs = append(st.inputs, at)
		case *raw.Const:
			if prev, ok := st.byName[at.ToTensor]; ok {
				return anError("Consts have the same ToTensor", at.ToTensor, prev.LineNum, at.LineNum)
			}
			st.byName[at.ToTensor] = at
			st.consts = append(st.consts, at)
		case raw.Op:
			st.raws = append(st.raws, at)
		default:
			return anError(fmt.Sprintf("unexpected %T", node), "", node.LineNumber())
		}
	}
	if len(st.raws) == 0 {
		return anError("no operators", "")
	}
	return nil
}

// stage2 folds every Squeeze of a constant into the constant's dims.
func (st *state) stage2() error {
	st.folded = make(map[string]string)
	squeezed := make(map[string]int)
	for _, node := range st.raws {
		sq, ok := node.(*raw.Squeeze)
		if !ok {
			continue
		}
		c, ok := st.byName[sq.FromTensor]
		if !ok {
			continue
		}
		if prev, ok := squeezed[c.ToTensor]; ok {
			return kindError(ErrStructure, "constant is squeezed more than once", c.ToTensor, prev, sq.LineNum)
		}
		squeezed[c.ToTensor] = sq.LineNum
		dims, err := squeeze(c.Dims, sq.Axes)
		if err != nil {
			return kindError(ErrStructure, err.Error(), sq.ToTensor, sq.LineNum)
		}
		st.log.Debug("squeeze folded",
			zap.String("node", sq.Name),
			zap.String("const", c.ToTensor),
			zap.Ints("from", c.Dims),
			zap.Ints("to", dims),
		)
		c.Dims = dims
		st.folded[sq.ToTensor] = c.ToTensor
	}
	return nil
}

func squeeze(dims, axes []int) ([]int, error) {
	drop := make([]bool, len(dims))
	for _, axis := range axes {
		at := axis
		if at < 0 {
			at += len(dims)
		}
		if at < 0 || at >= len(dims) {
			return nil, errors.Errorf("axis %d out of range for %d dims", axis, len(dims))
		}
		if dims[at] != 1 {
			return nil, errors.Errorf("axis %d has size %d", axis, dims[at])
		}
		drop[at] = true
	}
	var out []int
	for i, dim := range dims {
		if !drop[i] {
			out = append(out, dim)
		}
	}
	return out, nil
}

const (
	beforeMerge = "_before_merge"
	mergeSuffix = ":merge"
)

// stage3 builds the normalized operator list. Each Conv is followed by its
// ConvMerge and folded squeezes disappear.
func (st *state) stage3() error {
	redirect := func(from []string) []string {
		out := make([]string, len(from))
		for i, tensor := range from {
			if c, ok := st.folded[tensor]; ok {
				tensor = c
			}
			out[i] = tensor
		}
		return out
	}
	st.convW = make(map[string]bool)
	for _, node := range st.raws {
		to := node.ToTensors()
		if _, ok := node.(*raw.Dropout); ok {
			to = to[:1]
		}
		if len(to) != 1 {
			return kindError(ErrStructure,
				fmt.Sprintf("%d outputs (exactly one allowed)", len(to)),
				node.NodeName(), node.LineNumber())
		}
		if sq, ok := node.(*raw.Squeeze); ok && st.byName[sq.FromTensor] != nil {
			continue
		}
		o := &op{
			line: node.LineNumber(),
			name: node.NodeName(),
			typ:  node.OpType(),
			from: redirect(node.FromTensors()),
			to:   to,
			node: node,
		}
		st.ops = append(st.ops, o)
		if o.typ != raw.OpConv {
			continue
		}
		if len(o.from) > 1 {
			st.convW[o.from[1]] = true
		}
		mid := to[0] + beforeMerge
		o.to = []string{mid}
		st.ops = append(st.ops, &op{
			line: o.line,
			name: o.name + mergeSuffix,
			typ:  raw.OpConvMerge,
			from: []string{mid},
			to:   to,
		})
	}
	st.log.Info("graph normalized",
		zap.Int("declared", len(st.raws)),
		zap.Int("nodes", len(st.ops)),
		zap.Int("squeezesFolded", len(st.folded)),
	)
	return nil
}

// stage4 assigns ids and resolves every consumed tensor. Inputs come first,
// then constants that are not inputs, then nodes in order. A node may only
// consume what an earlier declaration produced.
func (st *state) stage4() error {
	st.ids = make(map[string]int)
	lines := make(map[string]int)
	for i, in := range st.inputs {
		st.ids[in.ToTensor] = i
		lines[in.ToTensor] = in.LineNum
	}
	st.paramsOf = make([]*raw.Const, len(st.inputs))
	for _, c := range st.consts {
		if id, ok := st.ids[c.ToTensor]; ok {
			st.paramsOf[id] = c
			continue
		}
		st.ids[c.ToTensor] = len(st.paramsOf)
		lines[c.ToTensor] = c.LineNum
		st.paramsOf = append(st.paramsOf, c)
	}
	nInput := len(st.paramsOf)
	st.plan.NInput = nInput
	st.plan.Config = st.cfg
	st.plan.Nodes = make([]*plan.Node, len(st.ops))
	produced := make(map[string]bool, len(st.ops))
	for _, o := range st.ops {
		produced[o.to[0]] = true
	}
	for i, o := range st.ops {
		id := nInput + i
		inputs := make([]int, len(o.from))
		for j, tensor := range o.from {
			from, ok := st.ids[tensor]
			if !ok {
				if produced[tensor] {
					return kindError(ErrStructure, "tensor is consumed before it is produced", tensor, o.line)
				}
				return anError("tensor is consumed but never produced", tensor, o.line)
			}
			inputs[j] = from
		}
		tensor := o.to[0]
		if _, ok := st.ids[tensor]; ok {
			return anError("tensor is produced more than once", tensor, lines[tensor], o.line)
		}
		st.ids[tensor] = id
		lines[tensor] = o.line
		st.plan.Nodes[i] = &plan.Node{
			ID:     id,
			Name:   o.name,
			Inputs: inputs,
			Op:     o.typ,
		}
	}
	return nil
}

// stage5 computes how long each node's output stays live. The Concat pass
// runs once, so a Concat feeding another Concat only extends its own
// sources by one hop.
func (st *state) stage5() error {
	nInput, nodes := st.plan.NInput, st.plan.Nodes
	for _, node := range nodes {
		for _, id := range node.Inputs {
			if id < nInput {
				continue
			}
			used := nodes[id-nInput]
			if node.ID > used.MaxOutputID {
				used.MaxOutputID = node.ID
			}
		}
	}
	for _, node := range nodes {
		if node.Op != raw.OpConcat {
			continue
		}
		for _, id := range node.Inputs {
			if id < nInput {
				continue
			}
			used := nodes[id-nInput]
			if node.MaxOutputID > used.MaxOutputID {
				used.MaxOutputID = node.MaxOutputID
			}
		}
	}
	return nil
}

func first(a []int) int {
	if len(a) == 0 {
		return 0
	}
	return a[0]
}

// stage6 sets the node flags. A Reshape declared right after a MaxPool
// marks the MaxPool for the NHWC to NCHW transform.
func (st *state) stage6() error {
	var prev *op
	for _, o := range st.ops {
		switch at := o.node.(type) {
		case *raw.Conv:
			o.flags.AutoPadValid = at.AutoPad == raw.Valid
			o.flags.Stride = first(at.Strides)
		case *raw.MaxPool:
			o.flags.KernelSize = first(at.KernelShape)
			o.flags.Stride = first(at.Strides)
		}
		if o.typ == raw.OpReshape && prev != nil && prev.typ == raw.OpMaxPool {
			prev.flags.NHWC2NCHW = true
		}
		if err := o.flags.Check(); err != nil {
			return kindError(ErrStructure, err.Error(), o.name, o.line)
		}
		prev = o
	}
	for i, o := range st.ops {
		st.plan.Nodes[i].Flags = o.flags
	}
	return nil
}

// stage7 quantizes every constant and places it in a parameter region, in
// id order. Graph inputs only get a record that points into the test set.
func (st *state) stage7() error {
	alloc := slot.New(st.cfg.ParamThreshold)
	st.plan.Params = make([]*plan.Param, st.plan.NInput)
	for id, c := range st.paramsOf {
		var (
			p   *plan.Param
			err error
		)
		if c == nil {
			p, err = st.stage7Input(alloc, st.inputs[id], id == 0)
		} else {
			p, err = st.stage7Const(alloc, c)
		}
		if err != nil {
			return err
		}
		p.ID = id
		p.Scale = st.cfg.Scale
		st.plan.Params[id] = p
	}
	st.plan.Region1 = alloc.A.Data
	st.plan.Region2 = alloc.B.Data
	st.log.Info("parameters placed",
		zap.Int("params", len(alloc.A.Data)),
		zap.Int("params2", len(alloc.B.Data)),
		zap.Int("overflows", st.q.Overflows()),
	)
	return nil
}

// stage7Input describes a graph input. The test set feeds only the first
// input, so only that one must match the sample shape.
func (st *state) stage7Input(alloc *slot.Allocator, in *raw.Input, fed bool) (*plan.Param, error) {
	for i := 0; fed && i < len(st.samples); i++ {
		s := &st.samples[i]
		if s.Channels != in.Channels || s.Height != in.Height || s.Width != in.Width {
			msg := fmt.Sprintf("sample %d is %dx%dx%d, expected %dx%dx%d", i,
				s.Channels, s.Height, s.Width, in.Channels, in.Height, in.Width)
			return nil, kindError(ErrStructure, msg, in.ToTensor, in.LineNum)
		}
	}
	offset, id := alloc.Reserve()
	return &plan.Param{
		Name:   in.ToTensor,
		Input:  true,
		Dims:   []int{1, in.Channels, in.Height, in.Width},
		Type:   plan.Fixed16,
		Bytes:  in.Channels * in.Height * in.Width * 2,
		Offset: offset,
		Slot:   id,
		TileC:  in.Channels,
	}, nil
}

const dimsMax = 4

func (st *state) stage7Const(alloc *slot.Allocator, c *raw.Const) (*plan.Param, error) {
	if c.Type != raw.Float && c.Type != raw.Int64 {
		msg := raw.DataTypeStrings[c.Type] + " constants cannot be stored"
		return nil, kindError(ErrUnsupportedType, msg, c.ToTensor, c.LineNum)
	}
	if len(c.Dims) > dimsMax {
		msg := fmt.Sprintf("%d dims (at most %d)", len(c.Dims), dimsMax)
		return nil, kindError(ErrStructure, msg, c.ToTensor, c.LineNum)
	}
	elems := 1
	for _, dim := range c.Dims {
		elems *= dim
	}
	w := new(wire.Buf)
	p := &plan.Param{Name: c.ToTensor, Dims: c.Dims}
	switch c.Type {
	case raw.Float:
		vals, err := st.floats(c)
		if err != nil {
			return nil, err
		}
		if len(vals) != elems || elems == 0 {
			return nil, st.countError(c, len(vals), elems)
		}
		if st.convW[c.ToTensor] {
			if len(c.Dims) != dimsMax {
				msg := fmt.Sprintf("conv weights have %d dims", len(c.Dims))
				return nil, kindError(ErrStructure, msg, c.ToTensor, c.LineNum)
			}
			st.log.Debug("reorder conv param", zap.String("const", c.ToTensor))
			vals = nchw2nhwc(vals, c.Dims)
		}
		for _, val := range vals {
			w.I16(int(st.q.Scaled(val, st.cfg.Scale)))
		}
		p.Type = plan.Fixed16
	case raw.Int64:
		vals, err := st.int64s(c)
		if err != nil {
			return nil, err
		}
		if len(vals) != elems {
			return nil, st.countError(c, len(vals), elems)
		}
		for _, val := range vals {
			w.I64(val)
		}
		p.Type = plan.Int64
	}
	p.Bytes = w.Len()
	p.Offset, p.Slot = alloc.Place(w.Bytes())
	if len(c.Dims) == dimsMax {
		p.TileC = c.Dims[1]
	}
	return p, nil
}

func (st *state) countError(c *raw.Const, have, want int) error {
	msg := fmt.Sprintf("%d values for %d elements", have, want)
	return kindError(ErrStructure, msg, c.ToTensor, c.LineNum)
}

func (st *state) floats(c *raw.Const) ([]float64, error) {
	if c.Data.File != "" {
		buf, err := st.load(c, 4)
		if err != nil {
			return nil, err
		}
		vals := make([]float64, len(buf)/4)
		for i := range vals {
			bits := binary.LittleEndian.Uint32(buf[i*4:])
			vals[i] = float64(math.Float32frombits(bits))
		}
		return vals, nil
	}
	vals := make([]float64, len(c.Data.Values))
	for i, s := range c.Data.Values {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, anError(err.Error(), c.ToTensor, c.LineNum)
		}
		vals[i] = f
	}
	return vals, nil
}

func (st *state) int64s(c *raw.Const) ([]int64, error) {
	if c.Data.File != "" {
		buf, err := st.load(c, 8)
		if err != nil {
			return nil, err
		}
		vals := make([]int64, len(buf)/8)
		for i := range vals {
			vals[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
		}
		return vals, nil
	}
	vals := make([]int64, len(c.Data.Values))
	for i, s := range c.Data.Values {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, anError(err.Error(), c.ToTensor, c.LineNum)
		}
		vals[i] = n
	}
	return vals, nil
}

func (st *state) load(c *raw.Const, size int) ([]byte, error) {
	buf, err := st.read(c.Data.File)
	if err != nil {
		return nil, errors.Wrapf(err, "line %d: %s", c.LineNum, c.ToTensor)
	}
	if len(buf)%size != 0 {
		msg := fmt.Sprintf("%s holds %d bytes, not a multiple of %d", c.Data.File, len(buf), size)
		return nil, kindError(ErrStructure, msg, c.ToTensor, c.LineNum)
	}
	return buf, nil
}

// nchw2nhwc moves channels innermost. The declared dims are left alone:
// the runtime knows conv weights arrive in this order.
func nchw2nhwc(vals []float64, dims []int) []float64 {
	n, c, h, w := dims[0], dims[1], dims[2], dims[3]
	out := make([]float64, len(vals))
	for in := 0; in < n; in++ {
		for ic := 0; ic < c; ic++ {
			for ih := 0; ih < h; ih++ {
				for iw := 0; iw < w; iw++ {
					from := ((in*c+ic)*h+ih)*w + iw
					to := ((in*h+ih)*w+iw)*c + ic
					out[to] = vals[from]
				}
			}
		}
	}
	return out
}

const labelMax = 0xff

// stage8 quantizes the test set and its labels.
func (st *state) stage8() error {
	w := new(wire.Buf)
	labels := make([]int, len(st.samples))
	for i := range st.samples {
		s := &st.samples[i]
		for _, val := range s.Data {
			w.I16(int(st.q.Scaled(float64(val), st.cfg.Scale)))
		}
		if s.Label < 0 || s.Label > labelMax {
			return anError(fmt.Sprintf("sample %d: label %d does not fit a byte", i, s.Label), "")
		}
		labels[i] = s.Label
	}
	st.plan.Samples = w.Bytes()
	st.plan.Labels = labels
	return nil
}

func (st *state) stage9() error {
	res, err := author.Implement(&st.plan)
	if err != nil {
		return err
	}
	st.res = res
	return nil
}

// stage10 lays the streams out after the intermediate value slots.
func (st *state) stage10() error {
	reserved := st.cfg.NumSlots * st.cfg.IntermediateValuesSize
	img, err := nvm.Assemble(reserved, st.cfg.NVMSize, st.res.Streams[:]...)
	if err != nil {
		return err
	}
	st.image = img
	st.log.Info("image assembled",
		zap.Int("used", img.Used),
		zap.Int("size", len(img.Bytes)),
		zap.Int("nodes", len(st.plan.Nodes)),
		zap.Int("nInput", st.plan.NInput),
	)
	return nil
}
