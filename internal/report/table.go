package report

import (
	"github.com/sshcollectorpro/apcounter/internal/inventory"
)

// 固定列
const (
	ColumnSwitch = "Switch Name"
	ColumnModel  = "Model"
	ColumnPower  = "Power Avail.(Watts)"
	ColumnTotal  = "Total APs in a Cabinet"
)

// UnknownModel 型号未识别时写入的值
const UnknownModel = "Unknown"

// FixedColumns 固定列顺序
var FixedColumns = []string{ColumnSwitch, ColumnModel, ColumnPower, ColumnTotal}

// Table 报表数据，Rows 与 Header 列一一对应
type Table struct {
	Header []string
	Rows   [][]interface{}
}

// Build 生成报表：每台设备一行，AP 列按 models 顺序，缺失计数补 0
// Total 列按 AP 列重新求和，不使用汇总器的累计值
func Build(rows []inventory.DeviceResult, models []string) Table {
	header := make([]string, 0, len(FixedColumns)+len(models))
	header = append(header, FixedColumns...)
	header = append(header, models...)

	table := Table{Header: header, Rows: make([][]interface{}, 0, len(rows))}
	for _, r := range rows {
		model := r.Model
		if model == "" {
			model = UnknownModel
		}

		cells := make([]interface{}, len(header))
		cells[0] = r.Switch
		cells[1] = model
		cells[2] = r.PowerAvailable

		total := 0
		for i, key := range models {
			n := r.APs.Get(key)
			cells[len(FixedColumns)+i] = n
			total += n
		}
		cells[3] = total

		table.Rows = append(table.Rows, cells)
	}
	return table
}

// ColumnSum 指定列的整数和，列不存在返回 0
func (t Table) ColumnSum(column string) int {
	idx := -1
	for i, h := range t.Header {
		if h == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0
	}
	sum := 0
	for _, row := range t.Rows {
		if n, ok := row[idx].(int); ok {
			sum += n
		}
	}
	return sum
}
