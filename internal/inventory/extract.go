package inventory

import (
	"regexp"
	"strings"

	"github.com/sshcollectorpro/apcounter/addone/collect"
)

// APMarker 接口 Device 字段包含该子串即视为 AP
const APMarker = "-Z"

var modelNumberRe = regexp.MustCompile(`Model Number\s+:\s+(\S+)`)

// modelStrategy 从 show version 回显中提取型号，未命中返回空串
type modelStrategy func(version string) string

// modelStrategies 按顺序尝试，首个非空结果生效
var modelStrategies = []modelStrategy{
	modelFromNumberField,
	modelFromFirstMatchingLine,
}

func modelFromNumberField(version string) string {
	if m := modelNumberRe.FindStringSubmatch(version); m != nil {
		return m[1]
	}
	return ""
}

func modelFromFirstMatchingLine(version string) string {
	for _, line := range strings.Split(version, "\n") {
		if strings.Contains(line, "Model") || strings.Contains(line, "Cisco") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// ExtractModel 返回交换机型号，空串表示未知
func ExtractModel(version string) string {
	version = strings.ReplaceAll(version, "\r\n", "\n")
	model := ""
	for _, strategy := range modelStrategies {
		if model = strategy(version); model != "" {
			break
		}
	}
	if strings.Contains(model, "Cisco IOS Software") {
		model = strings.TrimSpace(strings.Replace(model, "Cisco IOS Software,", "", 1))
	}
	return model
}

// ExtractPower 结构化结果中各模块剩余功率之和；非结构化为 0
func ExtractPower(power *collect.PowerInline) float64 {
	return power.TotalRemaining()
}

// ExtractAPs 按接口顺序统计 AP，键为原始 Device 字符串
func ExtractAPs(power *collect.PowerInline) *APCounts {
	counts := NewAPCounts()
	if power == nil {
		return counts
	}
	for _, itf := range power.Interfaces {
		if strings.Contains(itf.Device, APMarker) {
			counts.Add(itf.Device, 1)
		}
	}
	return counts
}

// Extract 由两条命令的解析结果生成一行结果，不返回错误
func Extract(hostname string, version, power collect.ParseOutput) DeviceResult {
	return DeviceResult{
		Switch:         hostname,
		Model:          ExtractModel(version.Raw),
		PowerAvailable: ExtractPower(power.Power),
		APs:            ExtractAPs(power.Power),
	}
}
