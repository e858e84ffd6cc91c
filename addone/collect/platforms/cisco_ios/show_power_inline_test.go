package cisco_ios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/apcounter/addone/collect"
)

const c9300PowerInline = `Module   Available     Used     Remaining
          (Watts)     (Watts)    (Watts)
------   ---------   --------   ---------
1           1100.0      30.8      1069.2
2           1100.0       0.0      1100.0
Totals:     2200.0      30.8      2169.2

Interface  Admin  Oper       Power   Device              Class Max
                             (Watts)
---------- ------ ---------- ------- ------------------- ----- ----
Gi1/0/1    auto   on         15.4    C9120AXI-Z          4     30.0
Gi1/0/2    auto   on         15.4    C9120AXI-Z          4     30.0
Gi1/0/3    auto   on         6.3     IP Phone 8845       2     30.0
Gi1/0/4    auto   off        0.0     n/a                 n/a   30.0
`

const legacyPowerInline = `Available:370.0(w)  Used:15.4(w)  Remaining:354.6(w)

Interface Admin  Oper       Power   Device              Class Max
                            (Watts)
--------- ------ ---------- ------- ------------------- ----- ----
Fa0/1     auto   on         15.4    AIR-CAP3702I-Z-K9   4     15.4
`

func TestParsePowerInlineModules(t *testing.T) {
	p := parsePowerInline(c9300PowerInline)
	require.NotNil(t, p, "应识别为结构化结果")

	require.Len(t, p.Modules, 2, "Totals 汇总行不应计入")
	assert.Equal(t, "1", p.Modules[0].Module)
	assert.InDelta(t, 1069.2, p.Modules[0].Remaining, 0.001)
	assert.InDelta(t, 2169.2, p.TotalRemaining(), 0.001)

	require.Len(t, p.Interfaces, 4)
	assert.Equal(t, "Gi1/0/1", p.Interfaces[0].Interface)
	assert.Equal(t, "C9120AXI-Z", p.Interfaces[0].Device)
	assert.Equal(t, "IP Phone 8845", p.Interfaces[2].Device, "Device 列允许包含空格")
	assert.Equal(t, "n/a", p.Interfaces[3].Device)
	assert.InDelta(t, 30.0, p.Interfaces[3].Max, 0.001)
}

func TestParsePowerInlineLegacyBudget(t *testing.T) {
	p := parsePowerInline(legacyPowerInline)
	require.NotNil(t, p)
	require.Len(t, p.Modules, 1)
	assert.InDelta(t, 370.0, p.Modules[0].Available, 0.001)
	assert.InDelta(t, 354.6, p.TotalRemaining(), 0.001)
	require.Len(t, p.Interfaces, 1)
	assert.Equal(t, "AIR-CAP3702I-Z-K9", p.Interfaces[0].Device)
}

func TestParsePowerInlineUnstructured(t *testing.T) {
	assert.Nil(t, parsePowerInline("% Invalid input detected at '^' marker."))
	assert.Nil(t, parsePowerInline(""))
}

func TestPluginParseDispatch(t *testing.T) {
	p := collect.Get("cisco_ios")
	assert.Equal(t, "cisco_ios", p.Name())
	assert.Equal(t, []string{"show version", "show power inline"}, p.SystemCommands())

	out, err := p.Parse(collect.ParseContext{Platform: "cisco_ios", Command: "sh power inline"}, legacyPowerInline)
	require.NoError(t, err)
	assert.True(t, out.Structured(), "缩写命令同样解析")

	out, err = p.Parse(collect.ParseContext{Platform: "cisco_ios", Command: "show version"}, "Cisco IOS Software")
	require.NoError(t, err)
	assert.False(t, out.Structured())
	assert.Equal(t, "Cisco IOS Software", out.Raw)
}

func TestUnknownPlatformFallsBackToDefault(t *testing.T) {
	p := collect.Get("nx_os")
	assert.Equal(t, "default", p.Name())
	out, err := p.Parse(collect.ParseContext{Command: "show power inline"}, c9300PowerInline)
	require.NoError(t, err)
	assert.False(t, out.Structured())
}
