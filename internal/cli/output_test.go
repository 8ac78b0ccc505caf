package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOutput(jsonMode bool) (*Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Output{writer: &buf, jsonMode: jsonMode, colorEnabled: false}, &buf
}

func TestOutput_JSON(t *testing.T) {
	out, buf := newTestOutput(true)

	require.NoError(t, out.JSON(map[string]float64{"risk_score": 45}))

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 45.0, decoded["risk_score"])
}

func TestOutput_MessagesWithoutColor(t *testing.T) {
	out, buf := newTestOutput(false)

	out.Success("opened %s", "BTC/USDT")
	out.Warning("reduced size")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "opened BTC/USDT", lines[0])
	assert.Equal(t, "reduced size", lines[1])
	assert.NotContains(t, buf.String(), "\033[")
}

func TestOutput_Recommendation(t *testing.T) {
	out, _ := newTestOutput(false)

	assert.Equal(t, "APPROVE", out.Recommendation("APPROVE"))
	assert.Equal(t, "REDUCE SIZE", out.Recommendation("REDUCE_SIZE"))
	assert.Equal(t, "REJECT", out.Recommendation("REJECT"))
	assert.Equal(t, "UNKNOWN", out.Recommendation("UNKNOWN"))
}

func TestTable_RenderAlignsColumns(t *testing.T) {
	out, buf := newTestOutput(false)

	table := NewTable(out, "SYMBOL", "SIZE")
	table.AddRow("BTC/USDT", "$4,000.00")
	table.AddRow("ETH/USDT", "$950.00")
	table.Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SYMBOL"))
	// Separator spans the widest cell of each column.
	assert.Equal(t, strings.Repeat("-", len("BTC/USDT"))+"--"+strings.Repeat("-", len("$4,000.00")), lines[1])
	// Cells in the same column start at the same offset.
	assert.Equal(t, strings.Index(lines[2], "$"), strings.Index(lines[3], "$"))
}

func TestStripANSI(t *testing.T) {
	colored := ColorGreen + "APPROVE" + ColorReset
	assert.Equal(t, "APPROVE", stripANSI(colored))
	assert.Equal(t, "plain", stripANSI("plain"))
}
