package db

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/auctionlab/scrape-tasks-api/internal/errs"
	"github.com/auctionlab/scrape-tasks-api/internal/model"
)

// ScrapeTaskFilter narrows list results. Zero-valued fields are skipped and
// every supplied predicate ANDs with the rest, so an exact timestamp can be
// combined with its range bounds. Range bounds are inclusive on both ends.
type ScrapeTaskFilter struct {
	Site     string
	TaskType string
	Status   string

	ScheduledAt     *time.Time
	ScheduledAtFrom *time.Time
	ScheduledAtTo   *time.Time

	CreatedAt     *time.Time
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

func (f ScrapeTaskFilter) apply(tx *gorm.DB) *gorm.DB {
	if f.Site != "" {
		tx = tx.Where("site = ?", f.Site)
	}
	if f.TaskType != "" {
		tx = tx.Where("task_type = ?", f.TaskType)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.ScheduledAt != nil {
		tx = tx.Where("scheduled_at = ?", *f.ScheduledAt)
	}
	if f.ScheduledAtFrom != nil {
		tx = tx.Where("scheduled_at >= ?", *f.ScheduledAtFrom)
	}
	if f.ScheduledAtTo != nil {
		tx = tx.Where("scheduled_at <= ?", *f.ScheduledAtTo)
	}
	if f.CreatedAt != nil {
		tx = tx.Where("created_at = ?", *f.CreatedAt)
	}
	if f.CreatedAtFrom != nil {
		tx = tx.Where("created_at >= ?", *f.CreatedAtFrom)
	}
	if f.CreatedAtTo != nil {
		tx = tx.Where("created_at <= ?", *f.CreatedAtTo)
	}
	return tx
}

// ListScrapeTasks returns one page of matching tasks plus the full matching
// count; the count ignores limit/offset.
func ListScrapeTasks(filter ScrapeTaskFilter, limit, offset int) ([]model.ScrapeTask, int64, error) {
	tx := filter.apply(db.Model(&model.ScrapeTask{}))
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}
	tasks := make([]model.ScrapeTask, 0, limit)
	err := tx.Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&tasks).Error
	return tasks, total, errors.WithStack(err)
}

func GetScrapeTaskByID(id uint64) (*model.ScrapeTask, error) {
	var task model.ScrapeTask
	if err := db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ScrapeTaskNotFound
		}
		return nil, errors.Wrapf(err, "failed find scrape task %d", id)
	}
	return &task, nil
}

func CreateScrapeTask(t *model.ScrapeTask) error {
	return errors.WithStack(db.Create(t).Error)
}

// UpdateScrapeTask applies a sparse column set and returns the fresh row.
// A nil column value clears it. An empty set still touches updated_at, which
// is what the old deployment did for empty PATCH bodies.
func UpdateScrapeTask(id uint64, updates map[string]interface{}) (*model.ScrapeTask, error) {
	task, err := GetScrapeTaskByID(id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		updates = map[string]interface{}{"updated_at": time.Now()}
	}
	if err := db.Model(task).Updates(updates).Error; err != nil {
		return nil, errors.Wrapf(err, "failed update scrape task %d", id)
	}
	return GetScrapeTaskByID(id)
}

// DeleteScrapeTask removes a task while it is still pending or failed. The
// status guard rides in the DELETE itself so a concurrent status flip cannot
// slip a non-deletable row through; the follow-up read only classifies what
// went wrong.
func DeleteScrapeTask(id uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status IN ?", id, model.DeletableStatuses).Delete(&model.ScrapeTask{})
		if res.Error != nil {
			return errors.WithStack(res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		var n int64
		if err := tx.Model(&model.ScrapeTask{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return errors.WithStack(err)
		}
		if n == 0 {
			return errs.ScrapeTaskNotFound
		}
		return errs.ScrapeTaskNotDeletable
	})
}

// ListNextPendingScrapeTasks returns pending tasks already due at now,
// earliest schedule first. Tasks without a schedule never show up here.
func ListNextPendingScrapeTasks(now time.Time, limit int) ([]model.ScrapeTask, int64, error) {
	return listPendingBySchedule("<=", now, limit)
}

// ListPendingFutureScrapeTasks returns pending tasks still scheduled after
// now, earliest schedule first.
func ListPendingFutureScrapeTasks(now time.Time, limit int) ([]model.ScrapeTask, int64, error) {
	return listPendingBySchedule(">", now, limit)
}

func listPendingBySchedule(op string, now time.Time, limit int) ([]model.ScrapeTask, int64, error) {
	tx := db.Model(&model.ScrapeTask{}).
		Where("status = ?", model.StatusPending).
		Where("scheduled_at IS NOT NULL").
		Where("scheduled_at "+op+" ?", now)
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}
	tasks := make([]model.ScrapeTask, 0, limit)
	err := tx.Order("scheduled_at ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, total, errors.WithStack(err)
}
