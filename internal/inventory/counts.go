package inventory

// APCounts 按首次出现顺序保存的 AP 计数
type APCounts struct {
	keys   []string
	counts map[string]int
}

// NewAPCounts 创建空计数
func NewAPCounts() *APCounts {
	return &APCounts{counts: make(map[string]int)}
}

// Add 增加计数，新键追加到末尾
func (c *APCounts) Add(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key] += n
}

// Get 未出现的键返回 0
func (c *APCounts) Get(key string) int {
	if c == nil {
		return 0
	}
	return c.counts[key]
}

// Keys 按发现顺序返回键
func (c *APCounts) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Total 所有键的计数之和
func (c *APCounts) Total() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Len 键的数量
func (c *APCounts) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// DeviceResult 单台交换机的结果行
// Model 为空表示未识别
type DeviceResult struct {
	Switch         string
	Model          string
	PowerAvailable float64
	APs            *APCounts
}

// TotalAPs 该行 AP 总数
func (r DeviceResult) TotalAPs() int { return r.APs.Total() }
