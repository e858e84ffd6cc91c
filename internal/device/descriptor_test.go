package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sshcollectorpro/apcounter/internal/credential"
)

func TestNewDescriptor(t *testing.T) {
	creds := credential.Credentials{Username: "netops", Password: "pw", Secret: "en"}

	d := NewDescriptor(" sw1 ", "cisco_ios", 22, creds)
	assert.Equal(t, Descriptor{Hostname: "sw1", DeviceType: "cisco_ios", Username: "netops", Password: "pw", Secret: "en", Port: 22}, d)
	assert.Equal(t, "sw1:22", d.Address())

	d = NewDescriptor("10.0.0.5:2222", "cisco_ios", 22, creds)
	assert.Equal(t, "10.0.0.5", d.Hostname)
	assert.Equal(t, 2222, d.Port, "host:port 覆盖默认端口")

	d = NewDescriptor("[2001:db8::1]:830", "cisco_ios", 22, creds)
	assert.Equal(t, "2001:db8::1", d.Hostname)
	assert.Equal(t, 830, d.Port)

	d = NewDescriptor("sw1:abc", "cisco_ios", 22, creds)
	assert.Equal(t, "sw1:abc", d.Hostname, "非法端口时整行作为主机名")
	assert.Equal(t, 22, d.Port)
}

func TestBuildDescriptorsKeepsOrder(t *testing.T) {
	ds := BuildDescriptors([]string{"b", "a", "b"}, "cisco_ios", 22, credential.Credentials{})
	assert.Len(t, ds, 3)
	assert.Equal(t, "b", ds[0].Hostname)
	assert.Equal(t, "a", ds[1].Hostname)
	assert.Equal(t, "b", ds[2].Hostname)
}
