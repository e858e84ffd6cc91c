package cisco_ios

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sshcollectorpro/apcounter/addone/collect"
)

var (
	// 模块预算行：1  1100.0  30.8  1069.2
	moduleRowRe     = regexp.MustCompile(`^(\S+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)$`)
	// 老款单行预算：Available:370.0(w)  Used:30.8(w)  Remaining:339.2(w)
	legacyBudgetRe  = regexp.MustCompile(`(?i)Available:\s*([\d.]+)\s*\(w\)\s+Used:\s*([\d.]+)\s*\(w\)\s+Remaining:\s*([\d.]+)\s*\(w\)`)
	// 接口行，Device 列可能包含空格：Gi1/0/1  auto  on  15.4  Ieee PD  4  30.0
	interfaceRowRe  = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(\S+)\s+([\d.]+)\s+(.+?)\s+(\S+)\s+([\d.]+)$`)
	interfaceNameRe = regexp.MustCompile(`^[A-Za-z]+[\d/.]+$`)
)

// parsePowerInline 解析 show power inline
// 既没有预算表也没有接口表时返回 nil
func parsePowerInline(raw string) *collect.PowerInline {
	var (
		result      collect.PowerInline
		inModules   bool
		inInterface bool
		recognized  bool
	)

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for _, ln := range lines {
		line := strings.TrimSpace(ln)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch {
		case len(fields) >= 4 && strings.EqualFold(fields[0], "Module") && strings.EqualFold(fields[1], "Available"):
			inModules, inInterface, recognized = true, false, true
			continue
		case len(fields) >= 4 && strings.EqualFold(fields[0], "Interface") && strings.EqualFold(fields[1], "Admin"):
			inModules, inInterface, recognized = false, true, true
			continue
		case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "("):
			// 分隔线与单位行
			continue
		}

		if m := legacyBudgetRe.FindStringSubmatch(line); m != nil {
			recognized = true
			result.Modules = append(result.Modules, collect.PowerModule{
				Module:    "0",
				Available: parseWatts(m[1]),
				Used:      parseWatts(m[2]),
				Remaining: parseWatts(m[3]),
			})
			continue
		}

		if inModules {
			if m := moduleRowRe.FindStringSubmatch(line); m != nil {
				// 堆叠汇总行不计入，否则会重复累加
				if strings.HasPrefix(strings.ToLower(m[1]), "total") {
					continue
				}
				result.Modules = append(result.Modules, collect.PowerModule{
					Module:    m[1],
					Available: parseWatts(m[2]),
					Used:      parseWatts(m[3]),
					Remaining: parseWatts(m[4]),
				})
				continue
			}
			inModules = false
		}

		if inInterface {
			m := interfaceRowRe.FindStringSubmatch(line)
			if m == nil || !interfaceNameRe.MatchString(m[1]) {
				continue
			}
			result.Interfaces = append(result.Interfaces, collect.PoEInterface{
				Interface: m[1],
				Admin:     m[2],
				Oper:      m[3],
				Power:     parseWatts(m[4]),
				Device:    strings.TrimSpace(m[5]),
				Class:     m[6],
				Max:       parseWatts(m[7]),
			})
		}
	}

	if !recognized {
		return nil
	}
	return &result
}

func parseWatts(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
