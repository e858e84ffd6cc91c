package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sshcollectorpro/apcounter/internal/model"
)

const retryAttempts = 5

// History 运行历史仓库
type History struct {
	db *gorm.DB
}

// NewHistory 基于已打开的数据库创建仓库
func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// StartRun 创建 running 状态的运行记录
func (h *History) StartRun(hostCount int) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.NewString(),
		Status:    model.RunStatusRunning,
		HostCount: hostCount,
		StartTime: time.Now(),
	}
	err := WithRetry(h.db, func(db *gorm.DB) error {
		return db.Create(run).Error
	}, retryAttempts, 0)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// RecordDevice 保存单台设备结果；apCounts 以 keys 顺序序列化
func (h *History) RecordDevice(rec *model.DeviceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	err := WithRetry(h.db, func(db *gorm.DB) error {
		return db.Create(rec).Error
	}, retryAttempts, 0)
	if err != nil {
		return fmt.Errorf("record device %s: %w", rec.Hostname, err)
	}
	return nil
}

// FinishRun 写入结束状态与统计
func (h *History) FinishRun(run *model.Run) error {
	run.EndTime = time.Now()
	run.Duration = run.EndTime.Sub(run.StartTime).Milliseconds()
	err := WithRetry(h.db, func(db *gorm.DB) error {
		return db.Save(run).Error
	}, retryAttempts, 0)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	return nil
}

// RecentRuns 按开始时间倒序返回最近的运行
func (h *History) RecentRuns(limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []model.Run
	if err := h.db.Order("start_time DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// DeviceRecords 返回一次运行的设备记录，按处理顺序
func (h *History) DeviceRecords(runID string) ([]model.DeviceRecord, error) {
	var recs []model.DeviceRecord
	if err := h.db.Where("run_id = ?", runID).Order("seq ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list device records: %w", err)
	}
	return recs, nil
}

// EncodeCounts 把有序计数编码为 JSON 数组，保留发现顺序
func EncodeCounts(keys []string, get func(string) int) string {
	type pair struct {
		AP    string `json:"ap"`
		Count int    `json:"count"`
	}
	pairs := make([]pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, pair{AP: k, Count: get(k)})
	}
	b, _ := json.Marshal(pairs)
	return string(b)
}
