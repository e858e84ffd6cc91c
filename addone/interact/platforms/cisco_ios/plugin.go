package cisco_ios

import "github.com/sshcollectorpro/apcounter/addone/interact"

// Plugin 为 cisco_ios 平台交互插件
type Plugin struct{}

func (p *Plugin) Name() string { return "cisco_ios" }

func (p *Plugin) Defaults() interact.InteractDefaults {
	// 堆叠交换机的 show power inline 回显较长，命令超时放宽
	return interact.InteractDefaults{
		CommandTimeout: 60,
		PromptTimeout:  10,
		ExitCommands:   []string{"exit"},
	}
}

// TransformCommands 用户模式下先 enable，然后关闭分页，再执行业务命令
func (p *Plugin) TransformCommands(in interact.CommandTransformInput) interact.CommandTransformOutput {
	privileged := false
	if v, ok := in.Metadata["privileged"].(bool); ok {
		privileged = v
	}

	out := make([]string, 0, len(in.Commands)+2)
	if !privileged {
		out = append(out, "enable")
	}
	out = append(out, "terminal length 0")
	out = append(out, in.Commands...)
	return interact.CommandTransformOutput{Commands: out}
}

func init() {
	// 注册到交互插件中心
	interact.Register("cisco_ios", &Plugin{})
}
