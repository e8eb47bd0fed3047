package doc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"nvmcc/internal/raw"
)

func TestBytes(t *testing.T) {
	text := string(Bytes())
	for _, head := range raw.Heads() {
		assert.Contains(t, text, "\n"+head+"\n", head)
	}
	assert.Less(t, strings.Index(text, indent+"Add\n"), strings.Index(text, indent+"Transpose\n"))
}

func TestPara(t *testing.T) {
	text := strings.Repeat("word ", 40)
	out := string(para(nil, indent, strings.TrimSpace(text)))
	lines := strings.Split(strings.Trim(out, "\n"), "\n")
	assert.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, indent))
		assert.LessOrEqual(t, len(l), width)
	}
}
