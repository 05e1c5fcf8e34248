package model

import (
	"time"

	"gorm.io/datatypes"
)

// RunStatus 运行结果
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunEmpty     RunStatus = "EMPTY"
	RunFailed    RunStatus = "FAILED"
)

// PipelineRun 入库运行日志，每个写库运行一行
type PipelineRun struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunID       string         `gorm:"column:run_id;type:varchar(36);uniqueIndex;not null" json:"run_id"`
	Bookmaker   string         `gorm:"column:bookmaker;type:varchar(64);not null;index:idx_run_campaign" json:"bookmaker"`
	Campaign    string         `gorm:"column:campaign;type:varchar(128);not null;index:idx_run_campaign" json:"campaign"`
	RunDate     time.Time      `gorm:"column:run_date;type:date;not null" json:"run_date"`
	Status      RunStatus      `gorm:"column:status;type:varchar(16);not null" json:"status"`
	ErrorKind   string         `gorm:"column:error_kind;type:varchar(32)" json:"error_kind,omitempty"`
	Error       string         `gorm:"column:error;type:text" json:"error,omitempty"`
	Diagnostics datatypes.JSON `gorm:"column:diagnostics;type:jsonb" json:"diagnostics,omitempty"`
	StartedAt   time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt  *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (PipelineRun) TableName() string { return "pipeline_runs" }
