package cisco_ios

import (
	"strings"

	"github.com/sshcollectorpro/apcounter/addone/collect"
)

// Plugin 为 cisco_ios 平台采集插件
type Plugin struct{}

func (p *Plugin) Name() string { return "cisco_ios" }

// SystemCommands 返回 Cisco IOS 需要执行的采集命令
func (p *Plugin) SystemCommands() []string {
	return []string{
		collect.CommandShowVersion,
		collect.CommandShowPowerInline,
	}
}

// Parse 按命令分发到对应的文件级处理函数
func (p *Plugin) Parse(ctx collect.ParseContext, raw string) (collect.ParseOutput, error) {
	out := collect.ParseOutput{Platform: ctx.Platform, Command: ctx.Command, Raw: raw}
	switch normalizeCommand(ctx.Command) {
	case collect.CommandShowPowerInline:
		out.Power = parsePowerInline(raw)
	}
	return out, nil
}

// normalizeCommand 展开常见缩写，例如 sh power inline、sh pow in
func normalizeCommand(cmd string) string {
	fields := strings.Fields(strings.ToLower(cmd))
	if len(fields) == 3 &&
		strings.HasPrefix("show", fields[0]) &&
		strings.HasPrefix("power", fields[1]) &&
		strings.HasPrefix("inline", fields[2]) {
		return collect.CommandShowPowerInline
	}
	return strings.Join(fields, " ")
}

func init() { collect.Register("cisco_ios", &Plugin{}) }
