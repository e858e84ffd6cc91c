package collect

// 系统内置命令
const (
	CommandShowVersion     = "show version"
	CommandShowPowerInline = "show power inline"
)

// ParseContext 解析上下文
type ParseContext struct {
	Platform string
	Hostname string
	Command  string
}

// ParseOutput 解析输出
// Power 为 nil 表示回显未能识别为结构化数据
type ParseOutput struct {
	Platform string
	Command  string
	Raw      string
	Power    *PowerInline
}

// Structured 是否得到了结构化结果
func (o ParseOutput) Structured() bool { return o.Power != nil }

// CollectPlugin 采集插件接口
type CollectPlugin interface {
	Name() string
	// SystemCommands 返回该平台需要执行的采集命令，按顺序执行
	SystemCommands() []string
	// Parse 将原始命令输出解析为结构化数据
	Parse(ctx ParseContext, raw string) (ParseOutput, error)
}

// DefaultPlugin 系统默认采集插件
type DefaultPlugin struct{}

func (p *DefaultPlugin) Name() string { return "default" }

// SystemCommands 默认平台同样执行两条命令，回显只做原样保留
func (p *DefaultPlugin) SystemCommands() []string {
	return []string{CommandShowVersion, CommandShowPowerInline}
}

func (p *DefaultPlugin) Parse(ctx ParseContext, raw string) (ParseOutput, error) {
	// 默认不解析，直接返回原始数据包裹
	return ParseOutput{
		Platform: ctx.Platform,
		Command:  ctx.Command,
		Raw:      raw,
	}, nil
}
