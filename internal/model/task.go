package model

import (
	"time"
)

// Run 一次统计运行
type Run struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Status       string    `json:"status" gorm:"type:varchar(16);not null;default:'running';index"`
	HostCount    int       `json:"host_count" gorm:"not null;default:0"`
	SuccessCount int       `json:"success_count" gorm:"not null;default:0"`
	FailedCount  int       `json:"failed_count" gorm:"not null;default:0"`
	TotalAPs     int       `json:"total_aps" gorm:"not null;default:0"`
	ReportPath   string    `json:"report_path" gorm:"type:varchar(512)"`
	ReportURI    string    `json:"report_uri" gorm:"type:varchar(512)"`
	ErrorMsg     string    `json:"error_msg" gorm:"type:text"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Duration     int64     `json:"duration"` // 执行时长，毫秒
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 表名
func (Run) TableName() string {
	return "runs"
}

// RunStatus 运行状态枚举
const (
	RunStatusRunning   = "running"
	RunStatusSuccess   = "success"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// DeviceRecord 单台设备在一次运行中的结果
type DeviceRecord struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	RunID          string    `json:"run_id" gorm:"type:varchar(64);not null;index"`
	Seq            int       `json:"seq" gorm:"not null"`
	Hostname       string    `json:"hostname" gorm:"type:varchar(255);not null"`
	Port           int       `json:"port" gorm:"not null;default:22"`
	State          string    `json:"state" gorm:"type:varchar(16);not null"`
	Model          string    `json:"model" gorm:"type:varchar(255)"`
	PowerAvailable float64   `json:"power_available"`
	TotalAPs       int       `json:"total_aps"`
	APCounts       string    `json:"ap_counts" gorm:"type:text"` // JSON，键为 AP 标识
	RawStoreJSON   string    `json:"raw_store" gorm:"type:text"` // JSON，命令 -> 归档路径
	ErrorMsg       string    `json:"error_msg" gorm:"type:text"`
	Duration       int64     `json:"duration"` // 毫秒
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (DeviceRecord) TableName() string {
	return "device_records"
}

// 设备处理状态：Pending → Connected → Parsed → Recorded，或 Pending → Failed
const (
	DeviceStatePending   = "pending"
	DeviceStateConnected = "connected"
	DeviceStateParsed    = "parsed"
	DeviceStateRecorded  = "recorded"
	DeviceStateFailed    = "failed"
)
