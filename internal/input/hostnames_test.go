package input

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHostnamesStopsAtBlankLine(t *testing.T) {
	var prompt bytes.Buffer
	hosts, err := ReadHostnames(strings.NewReader("sw1\n  sw2  \n\nsw3\n"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, []string{"sw1", "sw2"}, hosts, "空行之后的内容不应读取")
	assert.Contains(t, prompt.String(), "Enter the hostnames")
}

func TestReadHostnamesWhitespaceLineEnds(t *testing.T) {
	hosts, err := ReadHostnames(strings.NewReader("sw1\r\n   \r\nsw2\r\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"sw1"}, hosts)
}

func TestReadHostnamesEOFAndEmpty(t *testing.T) {
	hosts, err := ReadHostnames(strings.NewReader("sw1\nsw1"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"sw1", "sw1"}, hosts, "EOF 结束且不去重")

	hosts, err = ReadHostnames(strings.NewReader("\n"), nil)
	require.NoError(t, err)
	assert.Empty(t, hosts)
}

func TestReadHostsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.txt")
	require.NoError(t, os.WriteFile(path, []byte("# core\nsw1\n\nsw2:2222\n"), 0o644))

	hosts, err := ReadHostsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sw1", "sw2:2222"}, hosts)

	_, err = ReadHostsFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
