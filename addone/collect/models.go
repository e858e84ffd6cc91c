package collect

import (
	"encoding/json"
)

// RawStorePaths 原始回显归档映射（命令 -> 存储路径）
type RawStorePaths map[string]string

func (r RawStorePaths) Marshal() string {
	if len(r) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(r)
	return string(b)
}

// PowerModule PoE 电源预算，一个堆叠成员/模块一条
type PowerModule struct {
	Module    string  `json:"module"`
	Available float64 `json:"available"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

// PoEInterface show power inline 接口表中的一行
type PoEInterface struct {
	Interface string  `json:"interface"`
	Admin     string  `json:"admin"`
	Oper      string  `json:"oper"`
	Power     float64 `json:"power"`
	Device    string  `json:"device"`
	Class     string  `json:"class"`
	Max       float64 `json:"max"`
}

// PowerInline show power inline 的结构化结果，接口按回显顺序排列
type PowerInline struct {
	Modules    []PowerModule  `json:"modules"`
	Interfaces []PoEInterface `json:"interfaces"`
}

// TotalRemaining 所有模块剩余功率之和
func (p *PowerInline) TotalRemaining() float64 {
	if p == nil {
		return 0
	}
	var sum float64
	for _, m := range p.Modules {
		sum += m.Remaining
	}
	return sum
}
