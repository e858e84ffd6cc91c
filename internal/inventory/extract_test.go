package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sshcollectorpro/apcounter/addone/collect"
)

func TestExtractModel(t *testing.T) {
	cases := []struct {
		name    string
		version string
		want    string
	}{
		{
			name:    "model number field",
			version: "Cisco IOS XE Software, Version 17.09.04a\r\nModel Number                       : C9300-48P\r\n",
			want:    "C9300-48P",
		},
		{
			name:    "first line with Cisco, prefix stripped",
			version: "uptime is 3 weeks\nCisco IOS Software, C3750E Software (C3750E-UNIVERSALK9-M), Version 15.2(4)E10\n",
			want:    "C3750E Software (C3750E-UNIVERSALK9-M), Version 15.2(4)E10",
		},
		{
			name:    "first line with Model",
			version: "ROM: Bootstrap\nModel revision number : A0\n",
			want:    "Model revision number : A0",
		},
		{
			name:    "no match",
			version: "% Invalid input detected at '^' marker.",
			want:    "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractModel(tc.version))
		})
	}
}

func TestExtractAPsAndPower(t *testing.T) {
	power := &collect.PowerInline{
		Modules: []collect.PowerModule{{Module: "1", Remaining: 300}, {Module: "2", Remaining: 70}},
		Interfaces: []collect.PoEInterface{
			{Interface: "Gi1/0/1", Device: "AP-Z2"},
			{Interface: "Gi1/0/2", Device: "AP-Z1"},
			{Interface: "Gi1/0/3", Device: "IP Phone 8845"},
			{Interface: "Gi1/0/4", Device: "AP-Z2"},
			{Interface: "Gi1/0/5", Device: "n/a"},
		},
	}

	assert.InDelta(t, 370.0, ExtractPower(power), 0.001)

	aps := ExtractAPs(power)
	assert.Equal(t, []string{"AP-Z2", "AP-Z1"}, aps.Keys(), "键按接口顺序发现")
	assert.Equal(t, 2, aps.Get("AP-Z2"))
	assert.Equal(t, 1, aps.Get("AP-Z1"))
	assert.Equal(t, 3, aps.Total())
}

func TestExtractUnstructured(t *testing.T) {
	row := Extract("sw9",
		collect.ParseOutput{Raw: "Model Number : WS-C2960X-48FPD-L"},
		collect.ParseOutput{Raw: "garbage"})

	assert.Equal(t, "sw9", row.Switch)
	assert.Equal(t, "WS-C2960X-48FPD-L", row.Model)
	assert.Zero(t, row.PowerAvailable, "非结构化回显功率为 0")
	assert.Zero(t, row.TotalAPs())
	assert.NotNil(t, row.APs)
}
