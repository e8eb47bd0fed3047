package raw

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

type Node interface {
	LineNumber() int
	FromTensors() []string
	ToTensors() []string
}

// Op is a node that becomes a runtime operator.
type Op interface {
	Node
	NodeName() string
	OpType() OpType
}

type OpType int

const (
	OpAdd OpType = iota
	OpConcat
	OpConv
	OpConvMerge
	OpDropout
	OpGlobalAveragePool
	OpMatMul
	OpMaxPool
	OpRelu
	OpReshape
	OpSoftmax
	OpSqueeze
	OpTranspose
	OpCount
)

// Ops is in runtime table order: the index of an entry is the operator
// index the runtime dispatches on.
var Ops = [OpCount]struct {
	Name           string
	ExpectedInputs int
	Inplace        bool
}{
	OpAdd:               {"Add", 2, false},
	OpConcat:            {"Concat", 2, false},
	OpConv:              {"Conv", 3, false},
	OpConvMerge:         {"ConvMerge", 1, false},
	OpDropout:           {"Dropout", 1, true},
	OpGlobalAveragePool: {"GlobalAveragePool", 1, false},
	OpMatMul:            {"MatMul", 2, false},
	OpMaxPool:           {"MaxPool", 1, false},
	OpRelu:              {"Relu", 1, false},
	OpReshape:           {"Reshape", 2, true},
	OpSoftmax:           {"Softmax", 1, true},
	OpSqueeze:           {"Squeeze", 1, true},
	OpTranspose:         {"Transpose", 1, true},
}

func (o OpType) String() string {
	if o < 0 || o >= OpCount {
		return "OpType(" + strconv.Itoa(int(o)) + ")"
	}
	return Ops[o].Name
}

type Input struct {
	LineNum  int
	ToTensor string
	Channels int
	Height   int
	Width    int
}

func (i *Input) LineNumber() int       { return i.LineNum }
func (i *Input) FromTensors() []string { return nil }
func (i *Input) ToTensors() []string   { return []string{i.ToTensor} }

type DataType int

const (
	Float DataType = iota
	Int64
	Int32
	Double
	Float16
	Uint8
)

var DataTypeStrings = []string{
	Float:   "Float",
	Int64:   "Int64",
	Int32:   "Int32",
	Double:  "Double",
	Float16: "Float16",
	Uint8:   "Uint8",
}

// Data holds the values of a constant, either inline or as a path to a
// raw little-endian file.
type Data struct {
	File   string
	Values []string
}

type Const struct {
	LineNum  int
	ToTensor string
	Type     DataType
	Dims     []int
	Data     Data
}

func (c *Const) LineNumber() int       { return c.LineNum }
func (c *Const) FromTensors() []string { return nil }
func (c *Const) ToTensors() []string   { return []string{c.ToTensor} }

// Unary covers every operator with one data input and one output and no
// attributes the compiler looks at.
type Unary struct {
	LineNum    int
	Name       string
	Type       OpType
	FromTensor string
	ToTensor   string
}

func (u *Unary) LineNumber() int       { return u.LineNum }
func (u *Unary) FromTensors() []string { return []string{u.FromTensor} }
func (u *Unary) ToTensors() []string   { return []string{u.ToTensor} }
func (u *Unary) NodeName() string      { return u.Name }
func (u *Unary) OpType() OpType        { return u.Type }

type Binary struct {
	LineNum     int
	Name        string
	Type        OpType
	FromTensor1 string
	FromTensor2 string
	ToTensor    string
}

func (b *Binary) LineNumber() int       { return b.LineNum }
func (b *Binary) FromTensors() []string { return []string{b.FromTensor1, b.FromTensor2} }
func (b *Binary) ToTensors() []string   { return []string{b.ToTensor} }
func (b *Binary) NodeName() string      { return b.Name }
func (b *Binary) OpType() OpType        { return b.Type }

type Concat struct {
	LineNum  int
	Name     string
	Sources  []string
	ToTensor string
	Axis     int
}

func (c *Concat) LineNumber() int       { return c.LineNum }
func (c *Concat) FromTensors() []string { return c.Sources }
func (c *Concat) ToTensors() []string   { return []string{c.ToTensor} }
func (c *Concat) NodeName() string      { return c.Name }
func (c *Concat) OpType() OpType        { return OpConcat }

type AutoPad int

const (
	NotSet AutoPad = iota
	Valid
	SameUpper
	SameLower
)

var AutoPadStrings = []string{
	NotSet:    "NOTSET",
	Valid:     "VALID",
	SameUpper: "SAME_UPPER",
	SameLower: "SAME_LOWER",
}

type Conv struct {
	LineNum       int
	Name          string
	FromTensor    string
	WeightsTensor string
	BiasesTensor  string
	ToTensor      string
	Strides       []int
	AutoPad       AutoPad
}

func (c *Conv) LineNumber() int     { return c.LineNum }
func (c *Conv) ToTensors() []string { return []string{c.ToTensor} }
func (c *Conv) NodeName() string    { return c.Name }
func (c *Conv) OpType() OpType      { return OpConv }

func (c *Conv) FromTensors() []string {
	if c.BiasesTensor == "" {
		return []string{c.FromTensor, c.WeightsTensor}
	}
	return []string{c.FromTensor, c.WeightsTensor, c.BiasesTensor}
}

type Dropout struct {
	LineNum    int
	Name       string
	FromTensor string
	ToTensor   string
	MaskTensor string
}

func (d *Dropout) LineNumber() int       { return d.LineNum }
func (d *Dropout) FromTensors() []string { return []string{d.FromTensor} }
func (d *Dropout) NodeName() string      { return d.Name }
func (d *Dropout) OpType() OpType        { return OpDropout }

func (d *Dropout) ToTensors() []string {
	if d.MaskTensor == "" {
		return []string{d.ToTensor}
	}
	return []string{d.ToTensor, d.MaskTensor}
}

type MaxPool struct {
	LineNum     int
	Name        string
	FromTensor  string
	ToTensor    string
	KernelShape []int
	Strides     []int
	AutoPad     AutoPad
}

func (m *MaxPool) LineNumber() int       { return m.LineNum }
func (m *MaxPool) FromTensors() []string { return []string{m.FromTensor} }
func (m *MaxPool) ToTensors() []string   { return []string{m.ToTensor} }
func (m *MaxPool) NodeName() string      { return m.Name }
func (m *MaxPool) OpType() OpType        { return OpMaxPool }

type Squeeze struct {
	LineNum    int
	Name       string
	FromTensor string
	ToTensor   string
	Axes       []int
}

func (s *Squeeze) LineNumber() int       { return s.LineNum }
func (s *Squeeze) FromTensors() []string { return []string{s.FromTensor} }
func (s *Squeeze) ToTensors() []string   { return []string{s.ToTensor} }
func (s *Squeeze) NodeName() string      { return s.Name }
func (s *Squeeze) OpType() OpType        { return OpSqueeze }

type Seg struct {
	Doc     string
	Label   string
	Default string
	Choices []string
	Parse   func(string) (interface{}, error)
}

type Tail struct {
	Doc   string
	Segs  []*Seg
	Parse func(int, []interface{}) (Node, error)
}

var Guide = make(map[string]*Tail)

const Binder = "="

func Parse(text string) ([]Node, error) {
	const (
		pre = "parse failed: "
		wln = pre + "line %d: "
		eg  = wln + "expected %s" + Binder + "%s (for example)"
	)
	if n := len(text); n == 0 {
		return nil, nil
	} else if text[n-1] != '\n' {
		return nil, errors.New(pre + "expected final newline")
	}
	var nodes []Node
	const (
		headSpace int = iota
		headToken
		tailSpace
		tailToken
	)
	phase := headSpace
	i, lineHead, line := 0, 0, 1
	var tail *Tail
	var vals []interface{}
	for j, jj := range text {
		if !unicode.IsSpace(jj) {
			if phase == headSpace {
				phase, i, lineHead = headToken, j, line
			} else if phase == tailSpace {
				phase, i = tailToken, j
			}
			continue
		}
		if phase == headToken {
			phase = tailSpace
			if tail = Guide[text[i:j]]; tail == nil {
				msg := fmt.Sprintf(wln+"%s", line, errExpected(Heads()).Error())
				return nil, errors.New(msg)
			}
		} else if phase == tailToken {
			seg := tail.Segs[len(vals)]
			parts := strings.SplitN(text[i:j], Binder, 2)
			if len(parts) != 2 || parts[0] != seg.Label {
				msg := fmt.Sprintf(eg, line, seg.Label, seg.Default)
				return nil, errors.New(msg)
			}
			val, err := seg.Parse(parts[1])
			if err != nil {
				msg := fmt.Sprintf(wln+"%s: %s", line, seg.Label, err.Error())
				return nil, errors.New(msg)
			}
			vals = append(vals, val)
			if len(vals) == len(tail.Segs) {
				node, err := tail.Parse(lineHead, vals)
				if err != nil {
					msg := fmt.Sprintf(wln+"%s", lineHead, err.Error())
					return nil, errors.New(msg)
				}
				nodes = append(nodes, node)
				phase, vals = headSpace, vals[:0]
			} else {
				phase = tailSpace
			}
		}
		if jj == '\n' {
			line += 1
		}
	}
	if phase == tailSpace {
		seg := tail.Segs[len(vals)]
		msg := fmt.Sprintf(eg, line, seg.Label, seg.Default)
		return nil, errors.New(msg)
	}
	return nodes, nil
}

// Heads returns every head of the graph language in sorted order.
func Heads() []string {
	heads := make([]string, 0, len(Guide))
	for head := range Guide {
		heads = append(heads, head)
	}
	sort.Strings(heads)
	return heads
}

const (
	identStr  = `^[a-zA-Z_][a-zA-Z0-9_]*$`
	nameStr   = `^[a-zA-Z_][a-zA-Z0-9_.:/-]*$`
	posIntStr = `^[1-9][0-9]*$`
	intStr    = `^-?(0|[1-9][0-9]*)$`
	floatStr  = `^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)?$`
)

var (
	identRE  = regexp.MustCompile(identStr)
	nameRE   = regexp.MustCompile(nameStr)
	posIntRE = regexp.MustCompile(posIntStr)
	intRE    = regexp.MustCompile(intStr)
	floatRE  = regexp.MustCompile(floatStr)
)

const (
	identDoc  = "Must be a letter or underscore followed by zero or more letters/digits/underscores: " + identStr
	nameDoc   = "Must be a letter or underscore followed by zero or more letters/digits/underscores/punctuation: " + nameStr
	posIntDoc = "Must be a positive integer: " + posIntStr
	intDoc    = "Must be an integer: " + intStr
	floatDoc  = "Must be a float: " + floatStr
	dimsDoc   = "Positive integers joined by \"" + dimsSep + "\" (at most " + maxDimsStr + ")."
	listDoc   = "One or more items joined by \"" + listSep + "\"."
)

const (
	dimsSep    = "x"
	listSep    = ","
	filePrefix = "@"
	none       = "-"
	maxDims    = 6
	maxDimsStr = "6"
)

var (
	errGap      = errors.New("unexpected gap after " + Binder)
	errRejected = errors.New("rejected")
)

func errMatch(a, b string) error {
	return errors.New(a + "does not match " + b)
}

func errExpected(a []string) error {
	return errors.New("expected " + strings.Join(a, " or "))
}

func match(re *regexp.Regexp, str, a string) error {
	if !re.MatchString(a) {
		if a == "" {
			return errGap
		}
		return errMatch("", str)
	}
	return nil
}

func ident(a string) (interface{}, error) {
	if err := match(identRE, identStr, a); err != nil {
		return nil, err
	}
	return a, nil
}

func name(a string) (interface{}, error) {
	if err := match(nameRE, nameStr, a); err != nil {
		return nil, err
	}
	return a, nil
}

func optIdent(a string) (interface{}, error) {
	if a == none {
		return "", nil
	}
	return ident(a)
}

func posInt(a string, r int) (interface{}, error) {
	if err := match(posIntRE, posIntStr, a); err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(a)
	if err != nil {
		return nil, err
	}
	if n >= r {
		return nil, errRejected
	}
	return n, nil
}

func signed(a string) (int, error) {
	if err := match(intRE, intStr, a); err != nil {
		return 0, err
	}
	return strconv.Atoi(a)
}

func list(a string, each func(string) (interface{}, error)) ([]interface{}, error) {
	if a == "" {
		return nil, errGap
	}
	parts := strings.Split(a, listSep)
	vals := make([]interface{}, len(parts))
	for i, part := range parts {
		val, err := each(part)
		if err != nil {
			return nil, err
		}
		vals[i] = val
	}
	return vals, nil
}

func identList(a string) (interface{}, error) {
	vals, err := list(a, ident)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(vals))
	for i, val := range vals {
		names[i] = val.(string)
	}
	return names, nil
}

func intList(a string) (interface{}, error) {
	vals, err := list(a, func(b string) (interface{}, error) {
		return signed(b)
	})
	if err != nil {
		return nil, err
	}
	ints := make([]int, len(vals))
	for i, val := range vals {
		ints[i] = val.(int)
	}
	return ints, nil
}

func dims(a string) (interface{}, error) {
	if a == "" {
		return nil, errGap
	}
	parts := strings.Split(a, dimsSep)
	if len(parts) > maxDims {
		return nil, errRejected
	}
	ints := make([]int, len(parts))
	for i, part := range parts {
		n, err := posInt(part, 1<<16)
		if err != nil {
			return nil, err
		}
		ints[i] = n.(int)
	}
	return ints, nil
}

func data(a string) (interface{}, error) {
	if strings.HasPrefix(a, filePrefix) {
		file := a[len(filePrefix):]
		if file == "" {
			return nil, errGap
		}
		return Data{File: file}, nil
	}
	vals, err := list(a, func(b string) (interface{}, error) {
		if err := match(floatRE, floatStr, b); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	strs := make([]string, len(vals))
	for i, val := range vals {
		strs[i] = val.(string)
	}
	return Data{Values: strs}, nil
}

func choice(a string, choices []string) (int, error) {
	for i, s := range choices {
		if a == s {
			return i, nil
		}
	}
	if a == "" {
		return 0, errGap
	}
	return 0, errExpected(choices)
}

func nameSeg(d string) *Seg {
	return &Seg{
		Doc: "The operator name written into the node table of the model. " +
			"The runtime reads it for logging only. It must be shorter than the node name field. " +
			nameDoc,
		Label:   "Name",
		Default: d,
		Parse:   name,
	}
}

func fromTensor(x, y string) *Seg {
	return &Seg{
		Doc:     "Read from a pre-existing tensor with this name. " + x + identDoc,
		Label:   "FromTensor" + y,
		Default: "from" + y,
		Parse:   ident,
	}
}

func toTensor(x, y string) *Seg {
	return &Seg{
		Doc:     "Write to a new tensor with this name. " + x + identDoc,
		Label:   "ToTensor" + y,
		Default: "to" + y,
		Parse:   ident,
	}
}

func strides() *Seg {
	return &Seg{
		Doc: "The step between adjacent windows, heightwise first. " +
			"Only the first stride is encoded and it must not exceed 15. " + listDoc + " " + intDoc,
		Label:   "Strides",
		Default: "1,1",
		Parse:   intList,
	}
}

func autoPad() *Seg {
	return &Seg{
		Doc: "How implicit padding is derived. " +
			AutoPadStrings[Valid] + " means no implicit padding at all.",
		Label:   "AutoPad",
		Default: AutoPadStrings[NotSet],
		Choices: AutoPadStrings,
		Parse: func(a string) (interface{}, error) {
			i, err := choice(a, AutoPadStrings)
			if err != nil {
				return nil, err
			}
			return AutoPad(i), nil
		},
	}
}

func initInput() {
	Guide["Input"] = &Tail{
		Doc: "Declare a graph input. The compiler never stores input data in a parameter region: " +
			"the runtime reads each sample from the test set slot. " +
			"Channels, Height, and Width must match the shape of every calibration sample.",
		Segs: []*Seg{
			{
				Doc:     "A name for this input tensor. " + identDoc,
				Label:   "ToTensor",
				Default: "image",
				Parse:   ident,
			},
			{
				Doc:     "The number of feature maps. " + posIntDoc,
				Label:   "Channels",
				Default: "1",
				Parse:   func(a string) (interface{}, error) { return posInt(a, 1<<16) },
			},
			{
				Doc:     "The spatial height. " + posIntDoc,
				Label:   "Height",
				Default: "28",
				Parse:   func(a string) (interface{}, error) { return posInt(a, 1<<16) },
			},
			{
				Doc:     "The spatial width. " + posIntDoc,
				Label:   "Width",
				Default: "28",
				Parse:   func(a string) (interface{}, error) { return posInt(a, 1<<16) },
			},
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			return &Input{
				LineNum:  l,
				ToTensor: a[0].(string),
				Channels: a[1].(int),
				Height:   a[2].(int),
				Width:    a[3].(int),
			}, nil
		},
	}
}

func initConst() {
	Guide["Const"] = &Tail{
		Doc: "Declare a named constant tensor (a trained parameter or a shape). " +
			"If an Input has the same name, the constant takes the id of that Input. " +
			"Float values are divided by the model scale and quantized to 16-bit fixed point. " +
			"Int64 values are stored verbatim as 64-bit integers.",
		Segs: []*Seg{
			{
				Doc:     "A name for this constant tensor. " + identDoc,
				Label:   "ToTensor",
				Default: "weights",
				Parse:   ident,
			},
			{
				Doc:     "The element type. Only " + DataTypeStrings[Float] + " and " + DataTypeStrings[Int64] + " compile.",
				Label:   "Type",
				Default: DataTypeStrings[Float],
				Choices: DataTypeStrings,
				Parse: func(a string) (interface{}, error) {
					i, err := choice(a, DataTypeStrings)
					if err != nil {
						return nil, err
					}
					return DataType(i), nil
				},
			},
			{
				Doc:     "The declared shape, outermost dimension first. " + dimsDoc,
				Label:   "Dims",
				Default: "8x1x5x5",
				Parse:   dims,
			},
			{
				Doc: "The element values in row-major order, either inline (" + listDoc + " " + floatDoc + ") or as " +
					filePrefix + "PATH naming a raw little-endian file of 32-bit floats or 64-bit integers. " +
					"A relative PATH is resolved against the directory of the graph file.",
				Label:   "Data",
				Default: "0.5,-0.25",
				Parse:   data,
			},
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			c := &Const{
				LineNum:  l,
				ToTensor: a[0].(string),
				Type:     a[1].(DataType),
				Dims:     a[2].([]int),
				Data:     a[3].(Data),
			}
			if vals := c.Data.Values; vals != nil {
				n := 1
				for _, dim := range c.Dims {
					n *= dim
				}
				if len(vals) != n {
					return nil, errors.Errorf("%s: %d values for %d elements", c.ToTensor, len(vals), n)
				}
			}
			return c, nil
		},
	}
}

func initUnary(op OpType, doc string) {
	Guide[Ops[op].Name] = &Tail{
		Doc: doc,
		Segs: []*Seg{
			nameSeg(strings.ToLower(Ops[op].Name)),
			fromTensor("", ""),
			toTensor("", ""),
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			return &Unary{
				LineNum:    l,
				Name:       a[0].(string),
				Type:       op,
				FromTensor: a[1].(string),
				ToTensor:   a[2].(string),
			}, nil
		},
	}
}

func initBinary(op OpType, doc string) {
	Guide[Ops[op].Name] = &Tail{
		Doc: doc,
		Segs: []*Seg{
			nameSeg(strings.ToLower(Ops[op].Name)),
			fromTensor("", "1"),
			fromTensor("", "2"),
			toTensor("", ""),
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			return &Binary{
				LineNum:     l,
				Name:        a[0].(string),
				Type:        op,
				FromTensor1: a[1].(string),
				FromTensor2: a[2].(string),
				ToTensor:    a[3].(string),
			}, nil
		},
	}
}

func initConcat() {
	Guide[Ops[OpConcat].Name] = &Tail{
		Doc: "Concatenate tensors along one axis. The runtime keeps every source " +
			"alive until the consumers of the concatenation are done.",
		Segs: []*Seg{
			nameSeg("concat"),
			{
				Doc:     "The tensors to concatenate, in order. " + listDoc + " " + identDoc,
				Label:   "FromTensors",
				Default: "from1,from2",
				Parse:   identList,
			},
			toTensor("", ""),
			{
				Doc:     "The concatenation axis. " + intDoc,
				Label:   "Axis",
				Default: "1",
				Parse: func(a string) (interface{}, error) {
					return signed(a)
				},
			},
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			return &Concat{
				LineNum:  l,
				Name:     a[0].(string),
				Sources:  a[1].([]string),
				ToTensor: a[2].(string),
				Axis:     a[3].(int),
			}, nil
		},
	}
}

func initConv() {
	Guide[Ops[OpConv].Name] = &Tail{
		Doc: "Cross-correlation with a KCHW weight tensor and an optional bias tensor. " +
			"The compiler splits each Conv into a compute node and a ConvMerge node that " +
			"accumulates the channel tiles. Weights are reordered to KHWC before quantization.",
		Segs: []*Seg{
			nameSeg("conv"),
			fromTensor("", ""),
			{
				Doc:     "The weight tensor (a Const). " + identDoc,
				Label:   "WeightsTensor",
				Default: "weights",
				Parse:   ident,
			},
			{
				Doc:     "The bias tensor (a Const), or " + none + " for no bias. " + identDoc,
				Label:   "BiasesTensor",
				Default: "biases",
				Parse:   optIdent,
			},
			toTensor("", ""),
			strides(),
			autoPad(),
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			return &Conv{
				LineNum:       l,
				Name:          a[0].(string),
				FromTensor:    a[1].(string),
				WeightsTensor: a[2].(string),
				BiasesTensor:  a[3].(string),
				ToTensor:      a[4].(string),
				Strides:       a[5].([]int),
				AutoPad:       a[6].(AutoPad),
			}, nil
		},
	}
}

func initDropout() {
	Guide[Ops[OpDropout].Name] = &Tail{
		Doc: "Dropout is the identity at inference time. Its optional mask output is ignored.",
		Segs: []*Seg{
			nameSeg("dropout"),
			fromTensor("", ""),
			toTensor("", ""),
			{
				Doc:     "The mask output, or " + none + " if there is none. " + identDoc,
				Label:   "MaskTensor",
				Default: none,
				Parse:   optIdent,
			},
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			return &Dropout{
				LineNum:    l,
				Name:       a[0].(string),
				FromTensor: a[1].(string),
				ToTensor:   a[2].(string),
				MaskTensor: a[3].(string),
			}, nil
		},
	}
}

func initMaxPool() {
	Guide[Ops[OpMaxPool].Name] = &Tail{
		Doc: "Max pooling. The first kernel dimension and the first stride are encoded " +
			"into the node flags and must not exceed 15.",
		Segs: []*Seg{
			nameSeg("pool"),
			fromTensor("", ""),
			toTensor("", ""),
			{
				Doc:     "The pooling window, heightwise first. " + listDoc + " " + intDoc,
				Label:   "KernelShape",
				Default: "2,2",
				Parse:   intList,
			},
			strides(),
			autoPad(),
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			return &MaxPool{
				LineNum:     l,
				Name:        a[0].(string),
				FromTensor:  a[1].(string),
				ToTensor:    a[2].(string),
				KernelShape: a[3].([]int),
				Strides:     a[4].([]int),
				AutoPad:     a[5].(AutoPad),
			}, nil
		},
	}
}

func initSqueeze() {
	Guide[Ops[OpSqueeze].Name] = &Tail{
		Doc: "Drop size-1 axes. When FromTensor is a Const the compiler folds the squeeze " +
			"into the shape of the constant and removes the node.",
		Segs: []*Seg{
			nameSeg("squeeze"),
			fromTensor("", ""),
			toTensor("", ""),
			{
				Doc:     "The axes to drop. Negative axes count from the last. " + listDoc + " " + intDoc,
				Label:   "Axes",
				Default: "0",
				Parse:   intList,
			},
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			return &Squeeze{
				LineNum:    l,
				Name:       a[0].(string),
				FromTensor: a[1].(string),
				ToTensor:   a[2].(string),
				Axes:       a[3].([]int),
			}, nil
		},
	}
}

func initReshape() {
	Guide[Ops[OpReshape].Name] = &Tail{
		Doc: "Reshape FromTensor to the shape held by ShapeTensor (an Int64 Const). " +
			"A Reshape declared right after a MaxPool marks that MaxPool for a layout transform.",
		Segs: []*Seg{
			nameSeg("reshape"),
			fromTensor("", ""),
			{
				Doc:     "The Int64 constant holding the new shape. " + identDoc,
				Label:   "ShapeTensor",
				Default: "shape",
				Parse:   ident,
			},
			toTensor("", ""),
		},
		Parse: func(l int, a []interface{}) (Node, error) {
			return &Binary{
				LineNum:     l,
				Name:        a[0].(string),
				Type:        OpReshape,
				FromTensor1: a[1].(string),
				FromTensor2: a[2].(string),
				ToTensor:    a[3].(string),
			}, nil
		},
	}
}

func init() {
	initInput()
	initConst()
	initBinary(OpAdd, "Elementwise addition of two tensors.")
	initConcat()
	initConv()
	initUnary(OpConvMerge, "Accumulate the channel tiles of a Conv. "+
		"The compiler inserts these itself; declaring one directly is allowed but unusual.")
	initDropout()
	initUnary(OpGlobalAveragePool, "Average every feature map down to a single value.")
	initBinary(OpMatMul, "Matrix multiplication of FromTensor1 by FromTensor2 (usually a Const).")
	initMaxPool()
	initUnary(OpRelu, "Elementwise rectified linear unit.")
	initReshape()
	initUnary(OpSoftmax, "Softmax along the channel dimension.")
	initSqueeze()
	initUnary(OpTranspose, "Transpose. The runtime already keeps tensors in the order it needs, "+
		"so this is a no-op there.")
}
