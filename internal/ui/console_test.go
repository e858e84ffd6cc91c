package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sshcollectorpro/apcounter/internal/inventory"
)

func TestConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	aps := inventory.NewAPCounts()
	aps.Add("AP-Z1", 2)
	c.DeviceResult(inventory.DeviceResult{Switch: "sw1", Model: "C9300", PowerAvailable: 370, APs: aps})
	c.DeviceError("sw2", errors.New("dial tcp: connection refused"))
	c.RawResponse("sw3", "garbage")
	c.Summary(2, aps)
	c.Exported("ap_counts.xlsx")

	out := buf.String()
	assert.Contains(t, out, "sw1 (Model: C9300): {AP-Z1: 2} - Power Available: 370.0W")
	assert.Contains(t, out, "Error connecting to sw2: dial tcp: connection refused")
	assert.Contains(t, out, "Raw response from sw3:\ngarbage")
	assert.Contains(t, out, "Total AP count across all switches: 2")
	assert.Contains(t, out, "AP-Z1: 2\n")
	assert.Contains(t, out, "Data has been exported to ap_counts.xlsx")
}

func TestConsoleUnknownModel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).DeviceResult(inventory.DeviceResult{Switch: "sw9"})
	assert.Contains(t, buf.String(), "sw9 (Model: Unknown): {} - Power Available: 0.0W")
}

func TestFormatError(t *testing.T) {
	out := New(&bytes.Buffer{}).FormatError("export failed", "disk full", "free some space")
	assert.Contains(t, out, "Error: export failed")
	assert.Contains(t, out, "Hint: free some space")
}
