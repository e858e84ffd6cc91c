package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sshcollectorpro/apcounter/addone/collect"
	"github.com/sshcollectorpro/apcounter/internal/config"
	"github.com/sshcollectorpro/apcounter/internal/credential"
	"github.com/sshcollectorpro/apcounter/internal/database"
	"github.com/sshcollectorpro/apcounter/internal/device"
	"github.com/sshcollectorpro/apcounter/internal/inventory"
	"github.com/sshcollectorpro/apcounter/internal/model"
	"github.com/sshcollectorpro/apcounter/internal/report"
	"github.com/sshcollectorpro/apcounter/internal/storage"
	"github.com/sshcollectorpro/apcounter/internal/ui"
	"github.com/sshcollectorpro/apcounter/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CounterService AP 统计服务：逐台采集、汇总并导出报表
type CounterService struct {
	config  *config.Config
	dialer  device.Dialer
	creds   credential.Provider
	console *ui.Console
	history *database.History
	writer  storage.Writer
}

// CounterOption 可选依赖
type CounterOption func(*CounterService)

// WithHistory 记录运行历史
func WithHistory(h *database.History) CounterOption {
	return func(s *CounterService) { s.history = h }
}

// WithStorage 归档原始回显与上传报表
func WithStorage(w storage.Writer) CounterOption {
	return func(s *CounterService) { s.writer = w }
}

// NewCounterService 创建统计服务
func NewCounterService(cfg *config.Config, dialer device.Dialer, creds credential.Provider, console *ui.Console, opts ...CounterOption) *CounterService {
	s := &CounterService{config: cfg, dialer: dialer, creds: creds, console: console}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunResult 一次运行的结果
type RunResult struct {
	RunID      string
	Rows       []inventory.DeviceResult
	Totals     *inventory.APCounts
	GrandTotal int
	// Failed 失败设备的主机名，按处理顺序
	Failed     []string
	ReportPath string
	ReportURI  string
	Duration   time.Duration
}

// Run 按输入顺序逐台处理设备，全部处理完后输出汇总并写出报表
// 凭据读取失败与报表写出失败为致命错误；单台设备失败只记录，不影响其他设备
func (s *CounterService) Run(ctx context.Context, hostnames []string, outputPath string) (*RunResult, error) {
	start := time.Now()
	if outputPath == "" {
		outputPath = s.config.Report.Filename
	}

	creds, err := s.creds.Credentials()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	descs := device.BuildDescriptors(hostnames, s.config.Collector.DeviceType, s.config.Collector.Port, creds)

	result := &RunResult{}
	run := s.startRun(len(descs))
	if run != nil {
		result.RunID = run.ID
	}

	agg := inventory.NewAggregator()
	for i, desc := range descs {
		if err := ctx.Err(); err != nil {
			logger.Warnf("Run cancelled after %d of %d devices", i, len(descs))
			s.finishRun(run, agg, result, model.RunStatusCancelled, err.Error())
			return nil, fmt.Errorf("run cancelled: %w", err)
		}

		s.console.DeviceStarted(i+1, len(descs), desc.Hostname)
		row, err := s.processDevice(ctx, run, i+1, desc)
		if err != nil {
			s.console.DeviceError(desc.Hostname, err)
			result.Failed = append(result.Failed, desc.Hostname)
			continue
		}
		agg.Add(row)
		s.console.DeviceResult(row)
	}

	result.Rows = agg.Rows()
	result.Totals = agg.Totals()
	result.GrandTotal = agg.GrandTotal()
	s.console.Summary(result.GrandTotal, result.Totals)

	table := report.Build(result.Rows, agg.Models())
	if err := report.WriteXLSX(outputPath, s.config.Report.SheetName, table); err != nil {
		s.finishRun(run, agg, result, model.RunStatusFailed, err.Error())
		return nil, fmt.Errorf("export report: %w", err)
	}
	result.ReportPath = outputPath
	s.console.Exported(outputPath)

	if s.config.Report.Upload {
		result.ReportURI = s.uploadReport(ctx, run, start, outputPath)
	}

	result.Duration = time.Since(start)
	s.finishRun(run, agg, result, model.RunStatusSuccess, "")
	logger.WithFields(logrus.Fields{
		"devices": len(descs),
		"failed":  len(result.Failed),
		"aps":     result.GrandTotal,
		"elapsed": result.Duration.Round(time.Millisecond).String(),
	}).Info("Run completed")
	return result, nil
}

// processDevice 单台设备：Pending → Connected → Parsed → Recorded，任一步失败转 Failed
// 会话在所有返回路径上关闭
func (s *CounterService) processDevice(ctx context.Context, run *model.Run, seq int, desc device.Descriptor) (row inventory.DeviceResult, err error) {
	log := logger.WithDevice(desc.Hostname)
	started := time.Now()
	rec := &model.DeviceRecord{
		Seq:      seq,
		Hostname: desc.Hostname,
		Port:     desc.Port,
		State:    model.DeviceStatePending,
	}
	defer func() {
		rec.Duration = time.Since(started).Milliseconds()
		if err != nil {
			rec.State = model.DeviceStateFailed
			rec.ErrorMsg = err.Error()
			log.WithField("state", rec.State).Errorf("Device failed: %v", err)
		}
		s.recordDevice(run, rec)
	}()

	sess, err := s.dialer.Open(ctx, desc)
	if err != nil {
		return inventory.DeviceResult{}, err
	}
	defer sess.Close()
	rec.State = model.DeviceStateConnected
	log.Debug("Connected")

	plugin := collect.Get(desc.DeviceType)
	outputs := make(map[string]collect.ParseOutput, 2)
	rawPaths := collect.RawStorePaths{}
	for _, cmd := range plugin.SystemCommands() {
		raw, err := sess.Run(ctx, cmd)
		if err != nil {
			return inventory.DeviceResult{}, err
		}
		logger.DebugCommandOutput(desc.Hostname, cmd, raw, s.config.Collector.DebugEchoLines)
		raw = storage.ApplyLineFilter(s.config.Collector.OutputFilter, raw)

		if uri := s.archiveRaw(ctx, run, desc.Hostname, cmd, raw); uri != "" {
			rawPaths[cmd] = uri
		}

		out, perr := plugin.Parse(collect.ParseContext{Platform: desc.DeviceType, Hostname: desc.Hostname, Command: cmd}, raw)
		if perr != nil {
			log.Warnf("Parse %q failed, keeping raw output: %v", cmd, perr)
			out = collect.ParseOutput{Platform: desc.DeviceType, Command: cmd, Raw: raw}
		}
		outputs[cmd] = out
	}
	rec.State = model.DeviceStateParsed
	rec.RawStoreJSON = rawPaths.Marshal()

	power := outputs[collect.CommandShowPowerInline]
	if !power.Structured() {
		s.console.RawResponse(desc.Hostname, power.Raw)
	}
	row = inventory.Extract(desc.Hostname, outputs[collect.CommandShowVersion], power)

	rec.State = model.DeviceStateRecorded
	rec.Model = row.Model
	rec.PowerAvailable = row.PowerAvailable
	rec.TotalAPs = row.TotalAPs()
	rec.APCounts = database.EncodeCounts(row.APs.Keys(), row.APs.Get)
	log.WithFields(logrus.Fields{"model": row.Model, "aps": rec.TotalAPs}).Info("Device recorded")
	return row, nil
}

// archiveRaw 开启 save_raw 时归档原始回显，失败只告警
func (s *CounterService) archiveRaw(ctx context.Context, run *model.Run, hostname, command, raw string) string {
	if !s.config.Collector.SaveRaw || s.writer == nil {
		return ""
	}
	meta := storage.Meta{Prefix: s.config.Collector.RawPrefix, Device: hostname, Name: command}
	if run != nil {
		meta.RunID, meta.Started = run.ID, run.StartTime
	}
	obj, err := s.writer.Write(ctx, meta, []byte(raw), "")
	if err != nil {
		logger.WithDevice(hostname).Warnf("Archive raw output of %q failed: %v", command, err)
		return ""
	}
	return obj.URI
}

// uploadReport 报表写入存储后端，失败只告警，本地文件已经写出
func (s *CounterService) uploadReport(ctx context.Context, run *model.Run, started time.Time, path string) string {
	if s.writer == nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnf("Read report for upload failed: %v", err)
		return ""
	}
	meta := storage.Meta{Prefix: s.config.Report.Prefix, Started: started, Name: filepath.Base(path)}
	if run != nil {
		meta.RunID = run.ID
	}
	obj, err := s.writer.Write(ctx, meta, data, xlsxContentType)
	if err != nil {
		s.console.Warn(fmt.Sprintf("report upload failed: %v", err))
		return ""
	}
	logger.WithField("uri", obj.URI).Info("Report uploaded")
	return obj.URI
}

// startRun 历史库不可用时不影响统计，只告警并停用历史记录
func (s *CounterService) startRun(hostCount int) *model.Run {
	if s.history == nil {
		return nil
	}
	run, err := s.history.StartRun(hostCount)
	if err != nil {
		logger.Warnf("Run history disabled: %v", err)
		s.history = nil
		return nil
	}
	return run
}

func (s *CounterService) recordDevice(run *model.Run, rec *model.DeviceRecord) {
	if s.history == nil || run == nil {
		return
	}
	rec.RunID = run.ID
	if err := s.history.RecordDevice(rec); err != nil {
		logger.WithDevice(rec.Hostname).Warnf("Save device record failed: %v", err)
	}
}

func (s *CounterService) finishRun(run *model.Run, agg *inventory.Aggregator, result *RunResult, status, errMsg string) {
	if s.history == nil || run == nil {
		return
	}
	run.Status = status
	run.SuccessCount = len(agg.Rows())
	run.FailedCount = len(result.Failed)
	run.TotalAPs = agg.GrandTotal()
	run.ReportPath = result.ReportPath
	run.ReportURI = result.ReportURI
	run.ErrorMsg = errMsg
	if err := s.history.FinishRun(run); err != nil {
		logger.Warnf("Save run %s failed: %v", run.ID, err)
	}
}
