package doc

import (
	"unicode"

	"nvmcc/internal/raw"
)

const (
	empty   = ""
	space   = " "
	dash    = "-"
	newline = "\n"
	indent  = space + space + space + space
	divider = dash + dash + dash + dash + newline
	width   = 80
)

func line(to []byte, dent, text string) []byte {
	to = append(to, dent...)
	to = append(to, text...)
	to = append(to, newline...)
	return to
}

func para(to []byte, dent, text string) []byte {
	to = append(to, newline...)
	fit := width - len(dent)
	var i, j, ij, ik int
	for k, r := range text {
		if unicode.IsSpace(r) {
			if ik > fit && ij != 0 {
				to = line(to, dent, text[i:j])
				i = j + 1
				ik -= ij + 1
			}
			j, ij = k, ik
		}
		ik += 1
	}
	if ik > fit && ij != 0 {
		to = line(to, dent, text[i:j])
		i = j + 1
		ik -= ij + 1
	}
	if ik != 0 {
		to = line(to, dent, text[i:])
	}
	return to
}

const intro = "A graph is one declaration per line: a head followed by every segment " +
	"of that head, in order, each written as Label" + raw.Binder + "Value. " +
	"Operators run in declaration order, so a tensor must be produced before it is consumed. " +
	"The runtime's operator table follows the order below."

// Bytes documents every head of the graph language.
func Bytes() (to []byte) {
	to = para(to, empty, intro)
	to = append(to, newline...)
	for op := raw.OpType(0); op < raw.OpCount; op++ {
		to = line(to, indent, op.String())
	}
	for _, head := range raw.Heads() {
		tail := raw.Guide[head]
		to = append(to, newline+divider+newline...)
		to = append(to, head+newline...)
		for _, seg := range tail.Segs {
			to = append(to, indent+seg.Label+raw.Binder+seg.Default+newline...)
		}
		to = para(to, empty, tail.Doc)
		for _, seg := range tail.Segs {
			to = para(to, indent, seg.Label+raw.Binder+space+seg.Doc)
		}
	}
	return
}
