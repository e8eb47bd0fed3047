package cgen

import "strconv"

const (
	arrow          = "->"
	assign         = "="
	asterisk       = "*"
	brace1         = "{"
	brace2         = "}"
	cmpG           = ">"
	cmpL           = "<"
	comma          = ","
	define         = "define"
	doubleQuote    = "\""
	endif          = "endif"
	extern         = "extern"
	hash           = "#"
	hexDigits      = "0123456789abcdef"
	hexPrefix      = "0x"
	ifdef          = "ifdef"
	include        = "include"
	newline        = "\n"
	once           = "once"
	paren1         = "("
	paren2         = ")"
	pragma         = "pragma"
	semicolon      = ";"
	slashes        = "//"
	space          = " "
	squareBracket1 = "["
	squareBracket2 = "]"
	struct_        = "struct"
	uint8T         = "uint8_t"
	uint16T        = "uint16_t"
	void           = "void"
)

type AngleBracketed string

func (a AngleBracketed) Append(to []byte) []byte {
	to = append(to, cmpL...)
	to = append(to, a...)
	to = append(to, cmpG...)
	return to
}

type Arrow struct {
	Expr Gen
	Name string
}

func (a Arrow) Append(to []byte) []byte {
	to = a.Expr.Append(to)
	to = append(to, arrow...)
	to = append(to, a.Name...)
	return to
}

type Assign struct {
	Expr1, Expr2 Gen
}

func (a Assign) Append(to []byte) []byte {
	to = a.Expr1.Append(to)
	to = append(to, space+assign+space...)
	to = a.Expr2.Append(to)
	return to
}

type Block struct {
	Inner Gen
}

func (b Block) Append(to []byte) []byte {
	to = append(to, brace1+newline...)
	to = Maybe{b.Inner}.Append(to)
	to = append(to, brace2...)
	return to
}

type Brace struct {
	Inner Gen
}

func (b Brace) Append(to []byte) []byte {
	to = append(to, brace1...)
	to = Maybe{b.Inner}.Append(to)
	to = append(to, brace2...)
	return to
}

// Bytes is the body of a byte array initializer, sixteen per line, each
// followed by a comma.
type Bytes []byte

func (b Bytes) Append(to []byte) []byte {
	const perLine = 16
	for i, x := range b {
		if i%perLine != 0 {
			to = append(to, space...)
		}
		to = append(to, hexPrefix...)
		to = append(to, hexDigits[x>>4], hexDigits[x&0xf])
		to = append(to, comma...)
		if i%perLine == perLine-1 || i == len(b)-1 {
			to = append(to, newline...)
		}
	}
	return to
}

type Call struct {
	Func, Args Gen
}

func (c Call) Append(to []byte) []byte {
	to = c.Func.Append(to)
	to = Paren{c.Args}.Append(to)
	return to
}

type CommaLines []Gen

func (c CommaLines) Append(to []byte) []byte {
	for _, gen := range c {
		if gen == nil {
			continue
		}
		to = gen.Append(to)
		to = append(to, comma+newline...)
	}
	return to
}

type CommaSpaced []Gen

func (c CommaSpaced) Append(to []byte) []byte {
	first := true
	for _, gen := range c {
		if gen == nil {
			continue
		}
		if first {
			first = false
		} else {
			to = append(to, comma+space...)
		}
		to = gen.Append(to)
	}
	return to
}

type Comment []string

func (c Comment) Append(to []byte) []byte {
	for _, line := range c {
		switch line {
		case "":
			to = append(to, slashes+newline...)
		default:
			to = append(to, slashes+space...)
			to = append(to, line...)
			to = append(to, newline...)
		}
	}
	return to
}

type Directive string

const (
	Define  Directive = define
	Endif   Directive = endif
	Ifdef   Directive = ifdef
	Include Directive = include
	Pragma  Directive = pragma
)

type DoubleQuoted string

func (d DoubleQuoted) Append(to []byte) []byte {
	to = append(to, doubleQuote...)
	to = append(to, d...)
	to = append(to, doubleQuote...)
	return to
}

type Elem struct {
	Arr, Idx Gen
}

func (e Elem) Append(to []byte) []byte {
	to = e.Arr.Append(to)
	to = append(to, squareBracket1...)
	to = Maybe{e.Idx}.Append(to)
	to = append(to, squareBracket2...)
	return to
}

type Extern struct {
	Tail Gen
}

func (e Extern) Append(to []byte) []byte {
	to = append(to, extern+space...)
	to = e.Tail.Append(to)
	return to
}

type FuncDecl struct {
	ReturnType Gen
	Name       string
	Params     Gen
}

func (f FuncDecl) Append(to []byte) []byte {
	to = f.ReturnType.Append(to)
	to = append(to, space...)
	to = Call{Vb(f.Name), f.Params}.Append(to)
	to = append(to, semicolon+newline...)
	return to
}

type FuncDef struct {
	ReturnType Gen
	Name       string
	Params     Gen
	Body       Gen
}

func (f FuncDef) Append(to []byte) []byte {
	var g1, g2, g3 Gen
	g1 = f.ReturnType
	g2 = Call{Vb(f.Name), f.Params}
	g3 = Block{f.Body}
	to = Spaced{g1, g2, g3}.Append(to)
	to = append(to, newline...)
	return to
}

type Gen interface {
	Append(to []byte) []byte
}

type IntLit int

func (i IntLit) Append(to []byte) []byte {
	to = strconv.AppendInt(to, int64(i), 10)
	return to
}

// Macro is an object-like #define. Val may be nil.
type Macro struct {
	Name string
	Val  Gen
}

func (m Macro) Append(to []byte) []byte {
	var tail Gen = Vb(m.Name)
	if m.Val != nil {
		tail = Spaced{tail, m.Val}
	}
	return Preprocessor{Head: Define, Tail: tail}.Append(to)
}

type Maybe struct {
	What Gen
}

func (m Maybe) Append(to []byte) []byte {
	if m.What != nil {
		to = m.What.Append(to)
	}
	return to
}

type MaybeSpace struct {
	What Gen
}

func (m MaybeSpace) Append(to []byte) []byte {
	if m.What != nil {
		to = append(to, space...)
		to = m.What.Append(to)
	}
	return to
}

type Param struct {
	Type, What Gen
}

func (p Param) Append(to []byte) []byte {
	to = p.Type.Append(to)
	to = append(to, space...)
	to = p.What.Append(to)
	return to
}

type Paren struct {
	Inner Gen
}

func (p Paren) Append(to []byte) []byte {
	to = append(to, paren1...)
	to = Maybe{p.Inner}.Append(to)
	to = append(to, paren2...)
	return to
}

type Preprocessor struct {
	Head Directive
	Tail Gen
}

func (p Preprocessor) Append(to []byte) []byte {
	to = append(to, hash...)
	to = append(to, p.Head...)
	to = MaybeSpace{p.Tail}.Append(to)
	to = append(to, newline...)
	return to
}

// Ptr binds the asterisk to the name, as in "uint8_t *name".
type Ptr struct {
	What Gen
}

func (p Ptr) Append(to []byte) []byte {
	to = append(to, asterisk...)
	to = p.What.Append(to)
	return to
}

type Spaced []Gen

func (s Spaced) Append(to []byte) []byte {
	first := true
	for _, gen := range s {
		if gen == nil {
			continue
		}
		if first {
			first = false
		} else {
			to = append(to, space...)
		}
		to = gen.Append(to)
	}
	return to
}

type Stmts []Gen

func (s Stmts) Append(to []byte) []byte {
	for _, gen := range s {
		if gen == nil {
			continue
		}
		n1 := len(to)
		to = gen.Append(to)
		n2 := len(to)
		if n1 >= n2 {
			continue
		}
		switch to[n2-1] {
		case newline[0]:
		case brace2[0], semicolon[0]:
			to = append(to, newline...)
		default:
			to = append(to, semicolon+newline...)
		}
	}
	return to
}

// StructDecl is an incomplete struct declaration.
type StructDecl string

func (s StructDecl) Append(to []byte) []byte {
	to = StructTag(s).Append(to)
	to = append(to, semicolon+newline...)
	return to
}

type StructTag string

func (s StructTag) Append(to []byte) []byte {
	to = append(to, struct_+space...)
	to = append(to, s...)
	return to
}

type Var struct {
	Type, What, Init Gen
}

func (v Var) Append(to []byte) []byte {
	to = v.Type.Append(to)
	to = append(to, space...)
	to = v.What.Append(to)
	if v.Init != nil {
		to = append(to, space+assign+space...)
		to = v.Init.Append(to)
	}
	to = append(to, semicolon...)
	return to
}

type Vb string

func (v Vb) Append(to []byte) []byte {
	to = append(to, v...)
	return to
}

var (
	Newline    Gen = Vb(newline)
	PragmaOnce Gen = Preprocessor{Pragma, Vb(once)}
	Uint8T     Gen = Vb(uint8T)
	Uint16T    Gen = Vb(uint16T)
	Void       Gen = Vb(void)
)
