package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOutputLines(t *testing.T) {
	out := "l1\r\nl2\r\nl3\r\nl4\r\nl5\r\nl6\r\n"
	lines := ParseOutputLines(out, 2)
	assert.Equal(t, []string{"l1", "l2"}, lines.HeadLines)
	assert.Equal(t, []string{"l5", "l6"}, lines.TailLines)

	short := ParseOutputLines("only", 5)
	assert.Equal(t, []string{"only"}, short.HeadLines)
	assert.Equal(t, short.HeadLines, short.TailLines)

	empty := ParseOutputLines("\r\n", 5)
	assert.Empty(t, empty.HeadLines, "空回显不应产生行")
}

func TestFormatOutputLines(t *testing.T) {
	same := FormatOutputLines(OutputLines{HeadLines: []string{"a"}, TailLines: []string{"a"}})
	assert.Equal(t, "head-lines: [a]", same, "首尾相同只输出一次")

	diff := FormatOutputLines(OutputLines{HeadLines: []string{"a", "b"}, TailLines: []string{"c", "d"}})
	assert.Equal(t, "head-lines: [a ⟩ b], tail-lines: [c ⟩ d]", diff)
}
