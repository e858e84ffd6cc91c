package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func counts(pairs ...interface{}) *APCounts {
	c := NewAPCounts()
	for i := 0; i < len(pairs); i += 2 {
		c.Add(pairs[i].(string), pairs[i+1].(int))
	}
	return c
}

func TestAggregatorTotals(t *testing.T) {
	agg := NewAggregator()
	agg.Add(DeviceResult{Switch: "sw1", APs: counts("AP-Z1", 2)})
	agg.Add(DeviceResult{Switch: "sw2", APs: counts("AP-Z3", 1, "AP-Z1", 4)})
	agg.Add(DeviceResult{Switch: "sw3"})

	rows := agg.Rows()
	assert.Len(t, rows, 3)
	assert.Equal(t, "sw3", rows[2].Switch)
	assert.NotNil(t, rows[2].APs, "空计数行也会补齐计数对象")

	assert.Equal(t, []string{"AP-Z1", "AP-Z3"}, agg.Models())
	assert.Equal(t, 6, agg.Totals().Get("AP-Z1"))
	assert.Equal(t, 1, agg.Totals().Get("AP-Z3"))

	sum := 0
	for _, r := range rows {
		sum += r.TotalAPs()
	}
	assert.Equal(t, sum, agg.GrandTotal(), "总数等于各行之和")
	assert.Equal(t, agg.Totals().Total(), agg.GrandTotal())
}

func TestAggregatorTotalsIsCopy(t *testing.T) {
	agg := NewAggregator()
	agg.Add(DeviceResult{Switch: "sw1", APs: counts("AP-Z1", 1)})
	agg.Totals().Add("AP-Z1", 10)
	assert.Equal(t, 1, agg.Totals().Get("AP-Z1"))
}
