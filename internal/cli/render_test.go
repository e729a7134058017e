package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataveil/dataveil/pkg/frame"
)

func sampleFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.FromColumns(
		[]string{"name", "age"},
		[][]any{{"ana", "bruno"}, {31, nil}},
	)
	require.NoError(t, err)
	return f
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderFrame(&buf, sampleFrame(t), "table"))

	out := buf.String()
	assert.Contains(t, out, "ana")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")
}

func TestRenderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderFrame(&buf, frame.New("a"), "table"))
	assert.Contains(t, buf.String(), "(0 rows)")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderFrame(&buf, sampleFrame(t), "json"))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "ana", rows[0]["name"])
	assert.Nil(t, rows[1]["age"])
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderFrame(&buf, sampleFrame(t), "csv"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,age", lines[0])
	assert.Equal(t, "ana,31", lines[1])
	assert.Equal(t, "bruno,NULL", lines[2])
}

func TestEscapeCSV(t *testing.T) {
	assert.Equal(t, "plain", escapeCSV("plain"))
	assert.Equal(t, `"a,b"`, escapeCSV("a,b"))
	assert.Equal(t, `"say ""hi"""`, escapeCSV(`say "hi"`))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "abc", formatValue([]byte("abc")))
	assert.Equal(t, "42", formatValue(42))
}
