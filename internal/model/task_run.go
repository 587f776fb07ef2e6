package model

import (
	"time"

	"gorm.io/datatypes"
)

// TaskRun is one execution attempt recorded by a scraper worker. The API
// never writes these rows; the analytics endpoints aggregate them.
type TaskRun struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TaskID     uint64         `gorm:"column:task_id;not null;index:idx_task_runs_task_id" json:"task_id"`
	URL        string         `gorm:"column:url;not null;default:''" json:"url"`
	Status     string         `gorm:"column:status;not null" json:"status"`
	Stats      datatypes.JSON `gorm:"column:stats" json:"stats"`
	StartedAt  *time.Time     `gorm:"column:started_at" json:"started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at"`
	Error      *string        `gorm:"column:error" json:"error"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TaskRun) TableName() string {
	return "task_runs"
}
