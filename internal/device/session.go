package device

import (
	"context"
	"fmt"
	"time"

	"github.com/sshcollectorpro/apcounter/addone/interact"
	"github.com/sshcollectorpro/apcounter/pkg/logger"
	"github.com/sshcollectorpro/apcounter/pkg/ssh"
)

// Session 已登录并完成准备的设备会话
type Session interface {
	Run(ctx context.Context, command string) (string, error)
	Close() error
}

// Dialer 打开设备会话
type Dialer interface {
	Open(ctx context.Context, d Descriptor) (Session, error)
}

// SSHDialer 基于 pkg/ssh 的交互式会话
type SSHDialer struct {
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	PromptTimeout  time.Duration
	KeepAlive      time.Duration
}

type sshSession struct {
	client   *ssh.Client
	shell    *ssh.Shell
	hostname string
}

// Open 建立 SSH 连接、打开 shell，并按交互插件执行 enable 与关闭分页
// 任一步失败都会释放已占用的连接
func (d *SSHDialer) Open(ctx context.Context, desc Descriptor) (sess Session, err error) {
	plugin := interact.Get(desc.DeviceType)
	defaults := plugin.Defaults()

	cfg := &ssh.Config{
		Timeout:        d.ConnectTimeout,
		CommandTimeout: d.CommandTimeout,
		PromptTimeout:  d.PromptTimeout,
		KeepAlive:      d.KeepAlive,
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = time.Duration(defaults.CommandTimeout) * time.Second
	}
	if cfg.PromptTimeout <= 0 {
		cfg.PromptTimeout = time.Duration(defaults.PromptTimeout) * time.Second
	}

	client := ssh.NewClient(cfg)
	info := &ssh.ConnectionInfo{
		Host:     desc.Hostname,
		Port:     desc.Port,
		Username: desc.Username,
		Password: desc.Password,
	}
	if err := client.Connect(ctx, info); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = client.Close()
		}
	}()

	shell, err := client.OpenShell(ctx, ssh.ShellOptions{
		EnablePassword: desc.Secret,
		ExitCommands:   defaults.ExitCommands,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			shell.Close()
		}
	}()

	setup := plugin.TransformCommands(interact.CommandTransformInput{
		Metadata: map[string]interface{}{"privileged": shell.Privileged()},
	})
	for _, cmd := range setup.Commands {
		if _, err = shell.Run(ctx, cmd); err != nil {
			return nil, fmt.Errorf("session setup %q: %w", cmd, err)
		}
	}

	logger.WithDevice(desc.Hostname).Debugf("Session ready, prompt hostname %s", shell.Hostname())
	return &sshSession{client: client, shell: shell, hostname: desc.Hostname}, nil
}

func (s *sshSession) Run(ctx context.Context, command string) (string, error) {
	return s.shell.Run(ctx, command)
}

// Close 设备在 exit 后可能先断开连接，连接关闭错误只记 debug
func (s *sshSession) Close() error {
	s.shell.Close()
	if err := s.client.Close(); err != nil {
		logger.WithDevice(s.hostname).Debugf("Close connection: %v", err)
	}
	return nil
}
