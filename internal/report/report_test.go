package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/apcounter/internal/inventory"
)

func apCounts(pairs ...interface{}) *inventory.APCounts {
	c := inventory.NewAPCounts()
	for i := 0; i < len(pairs); i += 2 {
		c.Add(pairs[i].(string), pairs[i+1].(int))
	}
	return c
}

func sampleRows() ([]inventory.DeviceResult, []string) {
	agg := inventory.NewAggregator()
	agg.Add(inventory.DeviceResult{Switch: "sw1", Model: "C9300-48P", PowerAvailable: 370, APs: apCounts("AP-Z1", 2)})
	agg.Add(inventory.DeviceResult{Switch: "sw2", PowerAvailable: 0, APs: apCounts("AP-Z3", 1, "AP-Z1", 1)})
	return agg.Rows(), agg.Models()
}

func TestBuild(t *testing.T) {
	rows, models := sampleRows()
	table := Build(rows, models)

	assert.Equal(t, []string{"Switch Name", "Model", "Power Avail.(Watts)", "Total APs in a Cabinet", "AP-Z1", "AP-Z3"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []interface{}{"sw1", "C9300-48P", 370.0, 2, 2, 0}, table.Rows[0], "缺失计数补 0")
	assert.Equal(t, []interface{}{"sw2", "Unknown", 0.0, 2, 1, 1}, table.Rows[1])

	for _, row := range table.Rows {
		sum := 0
		for _, v := range row[len(FixedColumns):] {
			sum += v.(int)
		}
		assert.Equal(t, sum, row[3], "Total 列等于 AP 列之和")
	}
	assert.Equal(t, 3, table.ColumnSum("AP-Z1"))
	assert.Equal(t, 0, table.ColumnSum("missing"))
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	rows, models := sampleRows()
	path := filepath.Join(t.TempDir(), "out", "ap_counts.xlsx")

	require.NoError(t, WriteXLSX(path, "", Build(rows, models)))

	got, err := ReadXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Total APs in a Cabinet", got[0][3])
	assert.Equal(t, []string{"sw1", "C9300-48P", "370", "2", "2", "0"}, got[1])
}

func TestWriteXLSXHeaderOnlyAndOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteXLSX(path, "APs", Build(nil, nil)))

	got, err := ReadXLSX(path, "APs")
	require.NoError(t, err)
	require.Len(t, got, 1, "空表只有表头")
	assert.Equal(t, FixedColumns, got[0])
}
