package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/sshcollectorpro/apcounter/addone/interact/platforms/cisco_ios"
	"github.com/sshcollectorpro/apcounter/simulate"
)

func TestSSHDialerOpenRunClose(t *testing.T) {
	srv, err := simulate.Start("127.0.0.1:0", simulate.Device{
		Hostname:     "sw1",
		Username:     "netops",
		Password:     "pw",
		EnableSecret: "en",
		Outputs:      map[string]string{"show version": "Model Number : C9300-48P"},
	})
	require.NoError(t, err)
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dialer := &SSHDialer{ConnectTimeout: 3 * time.Second, CommandTimeout: 3 * time.Second, PromptTimeout: 3 * time.Second}
	desc := Descriptor{Hostname: "127.0.0.1", DeviceType: "cisco_ios", Username: "netops", Password: "pw", Secret: "en", Port: srv.Port()}

	sess, err := dialer.Open(ctx, desc)
	require.NoError(t, err)

	out, err := sess.Run(ctx, "show version")
	require.NoError(t, err)
	assert.Equal(t, "Model Number : C9300-48P", out)
	assert.NoError(t, sess.Close())
}

func TestSSHDialerWrongSecret(t *testing.T) {
	srv, err := simulate.Start("127.0.0.1:0", simulate.Device{Hostname: "sw2", Password: "pw", EnableSecret: "en"})
	require.NoError(t, err)
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dialer := &SSHDialer{ConnectTimeout: 3 * time.Second, CommandTimeout: 3 * time.Second, PromptTimeout: 3 * time.Second}
	_, err = dialer.Open(ctx, Descriptor{Hostname: "127.0.0.1", DeviceType: "cisco_ios", Username: "x", Password: "pw", Secret: "bad", Port: srv.Port()})
	assert.ErrorContains(t, err, "enable")
}

func TestSSHDialerUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dialer := &SSHDialer{ConnectTimeout: time.Second}
	_, err := dialer.Open(ctx, Descriptor{Hostname: "127.0.0.1", DeviceType: "cisco_ios", Port: 1})
	assert.Error(t, err)
}
