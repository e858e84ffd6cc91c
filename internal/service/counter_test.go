package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/sshcollectorpro/apcounter/addone/collect/platforms/cisco_ios"
	_ "github.com/sshcollectorpro/apcounter/addone/interact/platforms/cisco_ios"
	"github.com/sshcollectorpro/apcounter/internal/config"
	"github.com/sshcollectorpro/apcounter/internal/credential"
	"github.com/sshcollectorpro/apcounter/internal/database"
	"github.com/sshcollectorpro/apcounter/internal/device"
	"github.com/sshcollectorpro/apcounter/internal/model"
	"github.com/sshcollectorpro/apcounter/internal/report"
	"github.com/sshcollectorpro/apcounter/internal/storage"
	"github.com/sshcollectorpro/apcounter/internal/ui"
	"github.com/sshcollectorpro/apcounter/simulate"
)

const sw1Version = `Cisco IOS XE Software, Version 17.09.04a
Cisco IOS Software [Cupertino], Catalyst L3 Switch Software (CAT9K_IOSXE)
Model Number                       : C9300
System Serial Number               : FOC1234X0AB
`

const sw1PowerInline = `Available:370.0(w)  Used:30.8(w)  Remaining:370.0(w)

Interface Admin  Oper       Power   Device              Class Max
                            (Watts)
--------- ------ ---------- ------- ------------------- ----- ----
Gi1/0/1   auto   on         15.4    AP-Z1               4     30.0
Gi1/0/2   auto   on         15.4    AP-Z1               4     30.0
Gi1/0/3   auto   off        0.0     n/a                 n/a   30.0
`

// fakeSession 按命令返回固定回显
type fakeSession struct {
	outputs map[string]string
	closed  *int
}

func (s *fakeSession) Run(_ context.Context, command string) (string, error) {
	out, ok := s.outputs[command]
	if !ok {
		return "", errors.New("unexpected command " + command)
	}
	return out, nil
}

func (s *fakeSession) Close() error {
	*s.closed++
	return nil
}

// fakeDialer 主机名不在 devices 中时连接失败
type fakeDialer struct {
	devices map[string]map[string]string
	opened  []string
	closed  int
}

func (d *fakeDialer) Open(_ context.Context, desc device.Descriptor) (device.Session, error) {
	d.opened = append(d.opened, desc.Hostname)
	outputs, ok := d.devices[desc.Hostname]
	if !ok {
		return nil, errors.New("dial tcp " + desc.Address() + ": connection refused")
	}
	return &fakeSession{outputs: outputs, closed: &d.closed}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Collector.DeviceType = "cisco_ios"
	cfg.Collector.Port = 22
	cfg.Collector.RawPrefix = "raw"
	cfg.Report.Filename = filepath.Join(t.TempDir(), "ap_counts.xlsx")
	cfg.Report.SheetName = report.DefaultSheet
	cfg.Report.Prefix = "reports"
	return cfg
}

func testCreds() credential.Provider {
	return credential.StaticProvider{Creds: credential.Credentials{Username: "netops", Password: "pw", Secret: "en"}}
}

func TestRunScenarioOneFailingDevice(t *testing.T) {
	cfg := testConfig(t)
	dialer := &fakeDialer{devices: map[string]map[string]string{
		"sw1": {"show version": sw1Version, "show power inline": sw1PowerInline},
	}}
	var out bytes.Buffer
	svc := NewCounterService(cfg, dialer, testCreds(), ui.New(&out))

	res, err := svc.Run(context.Background(), []string{"sw1", "sw2"}, "")
	require.NoError(t, err, "单台设备失败不应导致运行失败")

	assert.Equal(t, []string{"sw1", "sw2"}, dialer.opened, "按输入顺序逐台处理")
	assert.Equal(t, 1, dialer.closed, "成功打开的会话必须关闭")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "sw1", res.Rows[0].Switch)
	assert.Equal(t, "C9300", res.Rows[0].Model)
	assert.InDelta(t, 370.0, res.Rows[0].PowerAvailable, 0.001)
	assert.Equal(t, 2, res.GrandTotal)
	assert.Equal(t, 2, res.Totals.Get("AP-Z1"))
	assert.Equal(t, []string{"sw2"}, res.Failed)

	console := out.String()
	assert.Contains(t, console, "Error connecting to sw2")
	assert.Contains(t, console, "Total AP count across all switches: 2")
	assert.Contains(t, console, "AP-Z1: 2")
	assert.Contains(t, console, "Data has been exported to "+cfg.Report.Filename)

	rows, err := report.ReadXLSX(cfg.Report.Filename, "")
	require.NoError(t, err)
	require.Len(t, rows, 2, "表头加一行数据")
	assert.Equal(t, []string{"Switch Name", "Model", "Power Avail.(Watts)", "Total APs in a Cabinet", "AP-Z1"}, rows[0])
	assert.Equal(t, []string{"sw1", "C9300", "370", "2", "2"}, rows[1])
}

func TestRunEmptyInputWritesHeaderOnly(t *testing.T) {
	cfg := testConfig(t)
	dialer := &fakeDialer{}
	var out bytes.Buffer
	svc := NewCounterService(cfg, dialer, testCreds(), ui.New(&out))

	res, err := svc.Run(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.GrandTotal)
	assert.Empty(t, dialer.opened)

	rows, err := report.ReadXLSX(cfg.Report.Filename, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, report.FixedColumns, rows[0])
}

func TestRunUnstructuredPowerKeepsRow(t *testing.T) {
	cfg := testConfig(t)
	dialer := &fakeDialer{devices: map[string]map[string]string{
		"sw3": {
			"show version":      "Cisco IOS Software, C2960 Software (C2960-LANBASEK9-M)\n",
			"show power inline": "% Invalid input detected at '^' marker.",
		},
	}}
	var out bytes.Buffer
	svc := NewCounterService(cfg, dialer, testCreds(), ui.New(&out))

	res, err := svc.Run(context.Background(), []string{"sw3"}, "")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1, "非结构化回显仍保留该行")
	assert.Equal(t, "C2960 Software (C2960-LANBASEK9-M)", res.Rows[0].Model)
	assert.Zero(t, res.Rows[0].PowerAvailable)
	assert.Zero(t, res.Rows[0].TotalAPs())
	assert.Contains(t, out.String(), "Raw response from sw3:")
}

func TestRunCredentialFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	dialer := &fakeDialer{}
	svc := NewCounterService(cfg, dialer, credential.NewFileProvider(filepath.Join(t.TempDir(), "missing.yaml"), ""), ui.New(&bytes.Buffer{}))

	_, err := svc.Run(context.Background(), []string{"sw1"}, "")
	require.Error(t, err)
	assert.Empty(t, dialer.opened, "凭据失败时不应连接任何设备")
	_, statErr := os.Stat(cfg.Report.Filename)
	assert.True(t, os.IsNotExist(statErr), "不应写出报表")
}

func TestRunExportFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	svc := NewCounterService(cfg, &fakeDialer{}, testCreds(), ui.New(&bytes.Buffer{}))

	_, err := svc.Run(context.Background(), nil, filepath.Join(blocker, "out.xlsx"))
	assert.ErrorContains(t, err, "export report")
}

func TestRunCancelledBetweenDevices(t *testing.T) {
	cfg := testConfig(t)
	dialer := &fakeDialer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewCounterService(cfg, dialer, testCreds(), ui.New(&bytes.Buffer{}))

	_, err := svc.Run(ctx, []string{"sw1", "sw2"}, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dialer.opened)
}

func TestRunRecordsHistoryAndArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collector.SaveRaw = true
	cfg.Report.Upload = true
	archive := t.TempDir()

	db, err := database.Open(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "apcounter.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	history := database.NewHistory(db)

	dialer := &fakeDialer{devices: map[string]map[string]string{
		"sw1": {"show version": sw1Version, "show power inline": sw1PowerInline},
	}}
	svc := NewCounterService(cfg, dialer, testCreds(), ui.New(&bytes.Buffer{}),
		WithHistory(history),
		WithStorage(&storage.LocalWriter{BaseDir: archive, MkdirIfMissing: true}),
	)

	res, err := svc.Run(context.Background(), []string{"sw1", "sw2"}, "")
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	assert.True(t, strings.HasPrefix(res.ReportURI, "file://"+archive), "报表应上传到存储")

	runs, err := history.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, 1, runs[0].SuccessCount)
	assert.Equal(t, 1, runs[0].FailedCount)
	assert.Equal(t, 2, runs[0].TotalAPs)

	recs, err := history.DeviceRecords(res.RunID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.DeviceStateRecorded, recs[0].State)
	assert.Equal(t, `[{"ap":"AP-Z1","count":2}]`, recs[0].APCounts)
	assert.Contains(t, recs[0].RawStoreJSON, "show_power_inline.txt")
	assert.Equal(t, model.DeviceStateFailed, recs[1].State)
	assert.Contains(t, recs[1].ErrorMsg, "connection refused")
}

func TestRunAgainstSimulatedSwitch(t *testing.T) {
	srv, err := simulate.Start("127.0.0.1:0", simulate.Device{
		Hostname:     "sw1",
		Username:     "netops",
		Password:     "pw",
		EnableSecret: "en",
		Outputs: map[string]string{
			"show version":      sw1Version,
			"show power inline": sw1PowerInline,
		},
	})
	require.NoError(t, err)
	defer srv.Stop()

	cfg := testConfig(t)
	cfg.Collector.Port = srv.Port()
	dialer := &device.SSHDialer{ConnectTimeout: 3 * time.Second, CommandTimeout: 5 * time.Second, PromptTimeout: 3 * time.Second}
	svc := NewCounterService(cfg, dialer, testCreds(), ui.New(&bytes.Buffer{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	res, err := svc.Run(ctx, []string{"127.0.0.1"}, "")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "C9300", res.Rows[0].Model)
	assert.Equal(t, 2, res.GrandTotal)
}
