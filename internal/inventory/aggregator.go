package inventory

// Aggregator 按处理顺序累积结果行与全局 AP 计数
// 非并发安全，设备按顺序逐台处理
type Aggregator struct {
	rows       []DeviceResult
	totals     *APCounts
	grandTotal int
}

// NewAggregator 创建空的汇总器
func NewAggregator() *Aggregator {
	return &Aggregator{totals: NewAPCounts()}
}

// Add 追加一行，并把该行计数并入全局计数
func (a *Aggregator) Add(row DeviceResult) {
	if row.APs == nil {
		row.APs = NewAPCounts()
	}
	a.rows = append(a.rows, row)
	for _, key := range row.APs.Keys() {
		a.totals.Add(key, row.APs.Get(key))
	}
	a.grandTotal += row.TotalAPs()
}

// Rows 按处理顺序返回结果行
func (a *Aggregator) Rows() []DeviceResult {
	return append([]DeviceResult(nil), a.rows...)
}

// Models 按首次发现顺序返回 AP 键
func (a *Aggregator) Models() []string { return a.totals.Keys() }

// Totals 全局 AP 计数的副本
func (a *Aggregator) Totals() *APCounts {
	out := NewAPCounts()
	for _, key := range a.totals.Keys() {
		out.Add(key, a.totals.Get(key))
	}
	return out
}

// GrandTotal 所有行的 AP 总数
func (a *Aggregator) GrandTotal() int { return a.grandTotal }
