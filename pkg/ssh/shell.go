package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/sshcollectorpro/apcounter/internal/util"
)

var (
	// promptRe 交换机提示符，例如 sw1>、sw1#、sw1(config)#
	promptRe = regexp.MustCompile(`^[\w.\-@/:()]+[>#]$`)
	// passwordRe enable 密码提示
	passwordRe = regexp.MustCompile(`(?i)password:\s*$`)
)

// ErrEnableFailed enable 后仍未进入特权模式
var ErrEnableFailed = errors.New("enable failed: privileged prompt not reached")

// ShellOptions 交互会话选项
type ShellOptions struct {
	// EnablePassword 执行 "enable" 时遇到密码提示自动输入
	EnablePassword string
	// ExitCommands 关闭会话前依次发送的命令
	ExitCommands []string
}

// Shell PTY 交互会话，命令串行执行，以提示符分隔输出
type Shell struct {
	session *ssh.Session
	stdin   io.WriteCloser
	opts    ShellOptions

	commandTimeout time.Duration
	promptTimeout  time.Duration

	mu      sync.Mutex
	buf     bytes.Buffer
	readErr error
	notify  chan struct{}
	done    chan struct{}

	// hostname 首个提示符去掉 >/# 后的前缀
	hostname string
	// prompt 最近一次匹配到的提示符行
	prompt string
}

// OpenShell 在已建立的连接上打开 PTY Shell，并等待首个提示符
func (c *Client) OpenShell(ctx context.Context, opts ShellOptions) (*Shell, error) {
	session, err := c.newSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	var ptyErr error
	for _, term := range []string{"vt100", "xterm", "dumb"} {
		if ptyErr = session.RequestPty(term, 0, 511, modes); ptyErr == nil {
			break
		}
	}
	if ptyErr != nil {
		session.Close()
		return nil, fmt.Errorf("failed to request pty: %w", ptyErr)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to get stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to get stdout: %w", err)
	}
	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	s := &Shell{
		session:        session,
		stdin:          stdin,
		opts:           opts,
		commandTimeout: c.config.CommandTimeout,
		promptTimeout:  c.config.PromptTimeout,
		notify:         make(chan struct{}, 1),
		done:           make(chan struct{}),
	}
	go s.readLoop(stdout)

	// 横幅之后设备未必主动输出提示符，先敲一次回车
	if err := s.write(""); err != nil {
		s.Close()
		return nil, err
	}
	if _, err := s.waitFor(ctx, s.promptTimeout, s.endsWithPrompt); err != nil {
		s.Close()
		return nil, fmt.Errorf("waiting for prompt: %w", err)
	}
	s.hostname = strings.TrimRight(s.prompt, ">#")
	return s, nil
}

// Hostname 设备提示符中的主机名
func (s *Shell) Hostname() string { return s.hostname }

// Privileged 当前是否处于特权模式（提示符以 # 结尾）
func (s *Shell) Privileged() bool { return strings.HasSuffix(s.prompt, "#") }

// Run 发送一条命令，返回去掉命令回显与结尾提示符后的输出
// "enable" 单独处理：按需输入 enable 密码并校验进入特权模式
func (s *Shell) Run(ctx context.Context, command string) (string, error) {
	command = strings.TrimSpace(command)
	if strings.EqualFold(command, "enable") {
		return "", s.enable(ctx)
	}

	if err := s.write(command); err != nil {
		return "", err
	}
	text, err := s.waitFor(ctx, s.commandTimeout, s.afterEcho(command, s.endsWithPrompt))
	if err != nil {
		return "", fmt.Errorf("command %q: %w", command, err)
	}
	return commandBody(text, command), nil
}

// afterEcho 只在命令回显之后的内容上做匹配，跳过回显前残留的提示符
func (s *Shell) afterEcho(command string, match func(string) bool) func(string) bool {
	return func(text string) bool {
		idx := strings.Index(text, command)
		if idx < 0 {
			return false
		}
		return match(text[idx+len(command):])
	}
}

func (s *Shell) enable(ctx context.Context) error {
	if s.Privileged() {
		return nil
	}
	if err := s.write("enable"); err != nil {
		return err
	}
	promptOrPassword := func(text string) bool {
		last := lastLine(text)
		if passwordRe.MatchString(last) {
			return true
		}
		return s.endsWithPrompt(text)
	}
	text, err := s.waitFor(ctx, s.promptTimeout, s.afterEcho("enable", promptOrPassword))
	if err != nil {
		return fmt.Errorf("enable: %w", err)
	}
	if passwordRe.MatchString(lastLine(text)) {
		if s.opts.EnablePassword == "" {
			return fmt.Errorf("enable: device asked for a password but no enable secret is configured")
		}
		if err := s.write(s.opts.EnablePassword); err != nil {
			return err
		}
		text, err = s.waitFor(ctx, s.promptTimeout, promptOrPassword)
		if err != nil {
			return fmt.Errorf("enable: %w", err)
		}
		if passwordRe.MatchString(lastLine(text)) {
			// 密码错误时 IOS 会再次提示，这里不重试，避免触发锁定
			return ErrEnableFailed
		}
	}
	if !s.Privileged() {
		return ErrEnableFailed
	}
	return nil
}

// Close 发送退出命令并关闭会话
// 设备在 exit 后通常会先关闭通道，此时的关闭错误没有意义，直接忽略
func (s *Shell) Close() {
	for _, ec := range s.opts.ExitCommands {
		if err := s.write(ec); err != nil {
			break
		}
	}
	_ = s.stdin.Close()
	_ = s.session.Close()
	select {
	case <-s.done:
	case <-time.After(time.Second):
	}
}

func (s *Shell) write(line string) error {
	// 网络设备通常期望 CRLF
	if _, err := s.stdin.Write([]byte(line + "\r\n")); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	return nil
}

func (s *Shell) readLoop(r io.Reader) {
	defer close(s.done)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			s.mu.Lock()
			s.buf.Write(chunk[:n])
			s.mu.Unlock()
			select {
			case s.notify <- struct{}{}:
			default:
			}
		}
		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			return
		}
	}
}

// waitFor 等待已读取内容满足 match，命中后消费缓冲区并返回清洗后的文本
func (s *Shell) waitFor(ctx context.Context, timeout time.Duration, match func(string) bool) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if text, ok := s.consumeIf(match); ok {
			return text, nil
		}
		select {
		case <-s.notify:
		case <-s.done:
			if text, ok := s.consumeIf(match); ok {
				return text, nil
			}
			s.mu.Lock()
			err := s.readErr
			s.mu.Unlock()
			if err == nil || errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", fmt.Errorf("session closed by device: %w", err)
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			return "", fmt.Errorf("no prompt within %s", timeout)
		}
	}
}

func (s *Shell) consumeIf(match func(string) bool) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := sanitize(util.NormalizeNewlines(util.DecodeDeviceOutput(s.buf.Bytes())))
	if !match(text) {
		return "", false
	}
	s.buf.Reset()
	return text, true
}

// endsWithPrompt 最后一个非空行是提示符时命中，并记录该提示符
func (s *Shell) endsWithPrompt(text string) bool {
	last := lastLine(text)
	if !s.isPrompt(last) {
		return false
	}
	s.prompt = last
	return true
}

// isPrompt 已知主机名后要求提示符以主机名开头，避免输出中的 '#' 行被误判
func (s *Shell) isPrompt(line string) bool {
	if !promptRe.MatchString(line) {
		return false
	}
	if s.hostname != "" && !strings.HasPrefix(line, s.hostname) {
		return false
	}
	return true
}

func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// commandBody 去掉命令回显所在行与末行提示符
func commandBody(text, command string) string {
	if idx := strings.Index(text, command); idx >= 0 {
		text = text[idx+len(command):]
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = ""
		}
	}
	lines := strings.Split(text, "\n")

	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if end > 0 {
		end--
	}
	lines = lines[:end]

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	return strings.TrimRight(strings.Join(lines[start:], "\n"), "\n ")
}

// sanitize 移除 ANSI 转义序列与除换行、制表符以外的控制字符
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	skip := false
	for _, r := range s {
		if skip {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				skip = false
			}
			continue
		}
		if r == 0x1b {
			skip = true
			continue
		}
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
