package simulate

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh"

	"github.com/sshcollectorpro/apcounter/pkg/logger"
)

// Config simulate.yaml 配置结构
type Config struct {
	// Listen 监听地址，默认 127.0.0.1
	Listen      string                  `mapstructure:"listen"`
	IdleSeconds int                     `mapstructure:"idle_seconds"`
	Devices     map[string]DeviceConfig `mapstructure:"devices"`
}

// DeviceConfig 单台模拟交换机
type DeviceConfig struct {
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	EnableSecret string `mapstructure:"enable_secret"`
	// Privileged 登录后直接进入特权模式（privilege 15 账号）
	Privileged bool `mapstructure:"privileged"`
	// OutputsDir 命令回显文件目录，文件名为命令本身或空格替换为下划线，后缀 .txt
	OutputsDir string            `mapstructure:"outputs_dir"`
	Outputs    map[string]string `mapstructure:"outputs"`
}

// Device 运行期的模拟设备
type Device struct {
	Hostname     string
	Username     string
	Password     string
	EnableSecret string
	Privileged   bool
	OutputsDir   string
	Outputs      map[string]string
	IdleTimeout  time.Duration
}

// Server 单台模拟交换机的 SSH 服务
type Server struct {
	dev      Device
	listener net.Listener
	hostKey  ssh.Signer
	log      *logrus.Entry

	mu     sync.Mutex
	active int
	wg     sync.WaitGroup
}

// Manager 管理多台模拟交换机
type Manager struct {
	mu      sync.Mutex
	servers map[string]*Server
}

// LoadConfig 读取 simulate.yaml
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetDefault("listen", "127.0.0.1")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read simulate config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simulate config: %w", err)
	}
	if len(cfg.Devices) == 0 {
		return nil, fmt.Errorf("simulate config %s defines no devices", path)
	}
	return &cfg, nil
}

// StartAll 按配置启动全部模拟交换机；任一端口监听失败则停止已启动的并返回错误
func StartAll(cfg *Config) (*Manager, error) {
	m := &Manager{servers: make(map[string]*Server)}

	names := make([]string, 0, len(cfg.Devices))
	for name := range cfg.Devices {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dc := cfg.Devices[name]
		dev := Device{
			Hostname:     name,
			Username:     dc.Username,
			Password:     dc.Password,
			EnableSecret: dc.EnableSecret,
			Privileged:   dc.Privileged,
			OutputsDir:   dc.OutputsDir,
			Outputs:      dc.Outputs,
			IdleTimeout:  time.Duration(cfg.IdleSeconds) * time.Second,
		}
		addr := net.JoinHostPort(cfg.Listen, strconv.Itoa(dc.Port))
		srv, err := Start(addr, dev)
		if err != nil {
			m.Stop()
			return nil, fmt.Errorf("start simulated device %s: %w", name, err)
		}
		m.servers[name] = srv
		logger.WithFields(logrus.Fields{"device": name, "addr": srv.Addr()}).Info("Simulate: device started")
	}
	return m, nil
}

// Servers 返回主机名到服务的映射副本
func (m *Manager) Servers() map[string]*Server {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*Server, len(m.servers))
	for k, v := range m.servers {
		out[k] = v
	}
	return out
}

// Stop 停止所有模拟服务
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, srv := range m.servers {
		srv.Stop()
		logger.WithDevice(name).Info("Simulate: device stopped")
	}
	m.servers = make(map[string]*Server)
}

// Start 在 addr 上启动一台模拟交换机，addr 端口为 0 时随机分配
func Start(addr string, dev Device) (*Server, error) {
	if dev.Hostname == "" {
		return nil, errors.New("simulated device needs a hostname")
	}
	signer, err := newHostKey()
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		dev:      dev,
		listener: ln,
		hostKey:  signer,
		log:      logger.WithDevice(dev.Hostname),
	}
	go s.acceptLoop()
	return s, nil
}

// Addr 实际监听地址
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Port 实际监听端口
func (s *Server) Port() int {
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Stop 关闭监听并等待连接结束
func (s *Server) Stop() {
	_ = s.listener.Close()
	s.wg.Wait()
}

// newHostKey 每次启动生成内存中的 ed25519 主机密钥
func newHostKey() (ssh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to build host key signer: %w", err)
	}
	return signer, nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// listener closed
			return
		}
		s.mu.Lock()
		s.active++
		s.mu.Unlock()

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConn(c)
			s.mu.Lock()
			s.active--
			s.mu.Unlock()
		}(conn)
	}
}

func (s *Server) checkLogin(user, password string) bool {
	if s.dev.Username != "" && user != s.dev.Username {
		return false
	}
	return password == s.dev.Password
}

func (s *Server) handleConn(nc net.Conn) {
	srvCfg := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if s.checkLogin(meta.User(), string(password)) {
				return nil, nil
			}
			s.log.WithField("user", meta.User()).Debug("Simulate: password auth rejected")
			return nil, fmt.Errorf("access denied")
		},
		KeyboardInteractiveCallback: func(meta ssh.ConnMetadata, challenge ssh.KeyboardInteractiveChallenge) (*ssh.Permissions, error) {
			answers, err := challenge(meta.User(), "", []string{"Password: "}, []bool{false})
			if err != nil {
				return nil, err
			}
			if len(answers) == 1 && s.checkLogin(meta.User(), answers[0]) {
				return nil, nil
			}
			return nil, fmt.Errorf("access denied")
		},
	}
	srvCfg.AddHostKey(s.hostKey)

	conn, chans, reqs, err := ssh.NewServerConn(nc, srvCfg)
	if err != nil {
		s.log.WithError(err).Debug("Simulate: SSH handshake failed")
		_ = nc.Close()
		return
	}
	defer conn.Close()
	go ssh.DiscardRequests(reqs)

	var sessions sync.WaitGroup
	for ch := range chans {
		if ch.ChannelType() != "session" {
			_ = ch.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := ch.Accept()
		if err != nil {
			s.log.WithError(err).Warn("Simulate: channel accept failed")
			continue
		}
		sessions.Add(1)
		go func() {
			defer sessions.Done()
			s.handleSession(channel, requests)
			_ = conn.Close()
		}()
	}
	sessions.Wait()
}

func (s *Server) handleSession(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()

	for req := range requests {
		switch req.Type {
		case "pty-req", "env", "window-change":
			_ = req.Reply(true, nil)
		case "shell":
			_ = req.Reply(true, nil)
			go ssh.DiscardRequests(requests)
			s.runShell(channel)
			return
		default:
			// exec 等请求不支持，IOS 采集只走交互式 shell
			_ = req.Reply(false, nil)
		}
	}
}

// runShell 模拟 IOS 行为：回显输入，提示符不带换行，enable 需要密码
func (s *Server) runShell(channel ssh.Channel) {
	privileged := s.dev.Privileged
	prompt := func() {
		suffix := ">"
		if privileged {
			suffix = "#"
		}
		_, _ = io.WriteString(channel, s.dev.Hostname+suffix)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(channel)
		for {
			line, err := reader.ReadString('\n')
			if line != "" || err == nil {
				lines <- strings.TrimRight(line, "\r\n")
			}
			if err != nil {
				return
			}
		}
	}()

	var idle <-chan time.Time
	resetIdle := func() {
		if s.dev.IdleTimeout > 0 {
			idle = time.After(s.dev.IdleTimeout)
		}
	}
	resetIdle()

	_, _ = io.WriteString(channel, "\r\n")
	prompt()

	awaitingSecret := false
	for {
		var line string
		var ok bool
		select {
		case line, ok = <-lines:
			if !ok {
				return
			}
		case <-idle:
			_, _ = io.WriteString(channel, "\r\nSession closed due to idle timeout.\r\n")
			return
		}
		resetIdle()

		if awaitingSecret {
			awaitingSecret = false
			// 密码不回显
			_, _ = io.WriteString(channel, "\r\n")
			if line == s.dev.EnableSecret {
				privileged = true
			} else {
				_, _ = io.WriteString(channel, "% Access denied\r\n\r\n")
			}
			prompt()
			continue
		}

		cmd := strings.TrimSpace(line)
		_, _ = io.WriteString(channel, cmd+"\r\n")
		switch {
		case cmd == "":
		case strings.EqualFold(cmd, "exit") || strings.EqualFold(cmd, "logout"):
			return
		case strings.EqualFold(cmd, "enable"):
			if !privileged {
				_, _ = io.WriteString(channel, "Password: ")
				awaitingSecret = true
				continue
			}
		case strings.HasPrefix(strings.ToLower(cmd), "terminal "):
		default:
			out, found := s.commandOutput(cmd)
			if !found {
				out = "                ^\r\n% Invalid input detected at '^' marker.\r\n\r\n"
			}
			_, _ = io.WriteString(channel, out)
		}
		prompt()
	}
}

// commandOutput 先查内联 outputs，再查 outputs_dir 下的文件
func (s *Server) commandOutput(cmd string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(cmd), " "))
	for k, v := range s.dev.Outputs {
		if strings.ToLower(k) == key {
			return ensureCRLF(v), true
		}
	}
	if s.dev.OutputsDir == "" {
		return "", false
	}
	for _, name := range []string{key, strings.ReplaceAll(key, " ", "_")} {
		bs, err := os.ReadFile(filepath.Join(s.dev.OutputsDir, name+".txt"))
		if err == nil {
			return ensureCRLF(string(bs)), true
		}
	}
	return "", false
}

func ensureCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")
	if !strings.HasSuffix(s, "\r\n") {
		s += "\r\n"
	}
	return s
}
