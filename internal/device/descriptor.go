package device

import (
	"net"
	"strconv"
	"strings"

	"github.com/sshcollectorpro/apcounter/internal/credential"
)

// Descriptor 单台交换机的连接描述，构建后不再修改
type Descriptor struct {
	Hostname   string
	DeviceType string
	Username   string
	Password   string
	// Secret enable 特权密码
	Secret string
	Port   int
}

// Address 返回 host:port
func (d Descriptor) Address() string {
	return net.JoinHostPort(d.Hostname, strconv.Itoa(d.Port))
}

// NewDescriptor 由输入行与共用凭据构建描述
// 输入行为 host:port 时覆盖默认端口；IPv6 需写成 [addr]:port
func NewDescriptor(line, deviceType string, defaultPort int, creds credential.Credentials) Descriptor {
	host, port := splitHostPort(strings.TrimSpace(line), defaultPort)
	return Descriptor{
		Hostname:   host,
		DeviceType: deviceType,
		Username:   creds.Username,
		Password:   creds.Password,
		Secret:     creds.Secret,
		Port:       port,
	}
}

// BuildDescriptors 按输入顺序为每行构建描述
func BuildDescriptors(lines []string, deviceType string, defaultPort int, creds credential.Credentials) []Descriptor {
	out := make([]Descriptor, 0, len(lines))
	for _, line := range lines {
		out = append(out, NewDescriptor(line, deviceType, defaultPort, creds))
	}
	return out
}

func splitHostPort(line string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(line)
	if err != nil {
		return line, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return line, defaultPort
	}
	return host, port
}
