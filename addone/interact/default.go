package interact

// InteractDefaults 定义交互层的默认运行参数
type InteractDefaults struct {
	CommandTimeout int // 秒，单条命令等待提示符
	PromptTimeout  int // 秒，登录与 enable 阶段
	// ExitCommands 关闭会话前发送的命令
	ExitCommands []string
}

// CommandTransformInput 输入命令与元数据
// Metadata["privileged"] 为 true 表示会话已处于特权模式
type CommandTransformInput struct {
	Commands []string
	Metadata map[string]interface{}
}

// CommandTransformOutput 输出转换后的命令
type CommandTransformOutput struct {
	Commands []string
}

// InteractPlugin 交互插件接口
type InteractPlugin interface {
	// Name 插件名称（如：default、cisco_ios）
	Name() string
	// Defaults 返回插件的默认运行参数
	Defaults() InteractDefaults
	// TransformCommands 根据平台特性转换命令序列（如进入特权模式、关闭分页）
	TransformCommands(in CommandTransformInput) CommandTransformOutput
}

// DefaultPlugin 系统默认交互插件
type DefaultPlugin struct{}

func (p *DefaultPlugin) Name() string { return "default" }

func (p *DefaultPlugin) Defaults() InteractDefaults {
	return InteractDefaults{
		CommandTimeout: 30,
		PromptTimeout:  10,
		ExitCommands:   []string{"exit"},
	}
}

func (p *DefaultPlugin) TransformCommands(in CommandTransformInput) CommandTransformOutput {
	// 默认不做任何转换
	return CommandTransformOutput{Commands: append([]string{}, in.Commands...)}
}
