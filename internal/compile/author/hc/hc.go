package hc

import "nvmcc/internal/compile/author/cgen"

type Section int

const (
	HFirst Section = iota
	HPragmaOnce
	HComment
	HInclude
	HStructs
	HConsts
	HProgress
	HOps
	HProtos
	HFlags
	HData
	HLast
	CFirst
	CComment
	CInclude
	CExpected
	CHandlers
	CAllocators
	CInplace
	CData
	CLast
	sectionCount
)

type Sections struct {
	a [sectionCount][]byte
}

func (s *Sections) Append(to Section, from ...cgen.Gen) {
	for _, gen := range from {
		if gen != nil {
			s.a[to] = gen.Append(s.a[to])
		}
	}
}

func (s *Sections) Join() (h, c []byte) {
	h = s.join(HFirst, HLast)
	c = s.join(CFirst, CLast)
	return
}

// join indents one tab per open brace. Preprocessor lines are never
// indented.
func (s *Sections) join(first, last Section) (to []byte) {
	const (
		brace1  = '{'
		brace2  = '}'
		hash    = '#'
		newline = '\n'
		tab     = '\t'
	)
	var prev byte = newline
	var indent []byte
	for _, from := range s.a[first : last+1] {
		for _, curr := range from {
			switch curr {
			case newline:
				if prev == brace1 {
					indent = append(indent, tab)
				}
			default:
				if prev == newline {
					if curr == brace2 && len(indent) != 0 {
						indent = indent[:len(indent)-1]
					}
					if curr != hash {
						to = append(to, indent...)
					}
				}
			}
			to = append(to, curr)
			prev = curr
		}
	}
	return
}
