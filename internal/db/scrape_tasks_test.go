package db_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/auctionlab/scrape-tasks-api/internal/db"
	"github.com/auctionlab/scrape-tasks-api/internal/errs"
	"github.com/auctionlab/scrape-tasks-api/internal/model"
)

// setupDB points the package at a fresh in-memory database. The database is
// named after the test so parallel packages never share state.
func setupDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	db.Init(gdb)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
}

func newTask(mutate ...func(*model.ScrapeTask)) *model.ScrapeTask {
	task := &model.ScrapeTask{
		Site:        model.SiteEasylive,
		URL:         "https://www.easyliveauction.com/catalogue/123/456/sale",
		TaskType:    model.TaskTypeListing,
		Status:      model.StatusPending,
		MaxAttempts: 5,
		Meta:        datatypes.JSON([]byte(`{}`)),
	}
	for _, m := range mutate {
		m(task)
	}
	return task
}

func seedTask(t *testing.T, mutate ...func(*model.ScrapeTask)) *model.ScrapeTask {
	t.Helper()
	task := newTask(mutate...)
	require.NoError(t, db.CreateScrapeTask(task))
	return task
}

func TestCreateScrapeTaskAssignsIDAndTimestamps(t *testing.T) {
	setupDB(t)
	task := seedTask(t)
	assert.NotZero(t, task.ID)
	assert.False(t, task.CreatedAt.IsZero())
	assert.False(t, task.UpdatedAt.IsZero())
}

func TestCreateScrapeTaskKeepsZeroMaxAttempts(t *testing.T) {
	setupDB(t)
	task := seedTask(t, func(s *model.ScrapeTask) { s.MaxAttempts = 0 })
	assert.Equal(t, 0, task.MaxAttempts, "create must not rewrite the struct")

	got, err := db.GetScrapeTaskByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.MaxAttempts)
	assert.Equal(t, 0, got.Attempts)
}

func TestGetScrapeTaskByID(t *testing.T) {
	setupDB(t)
	seeded := seedTask(t, func(s *model.ScrapeTask) { s.Site = "example.com" })

	got, err := db.GetScrapeTaskByID(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "example.com", got.Site)
	assert.Equal(t, model.TaskTypeListing, got.TaskType)

	_, err = db.GetScrapeTaskByID(seeded.ID + 100)
	assert.True(t, errs.IsScrapeTaskNotFound(err))
}

func TestListScrapeTasksFilters(t *testing.T) {
	setupDB(t)
	seedTask(t)
	seedTask(t, func(s *model.ScrapeTask) {
		s.Site = model.SiteTheSaleroom
		s.Status = model.StatusRunning
	})
	seedTask(t, func(s *model.ScrapeTask) {
		s.TaskType = model.TaskTypeCatalogue
		s.Status = model.StatusRunning
	})

	items, total, err := db.ListScrapeTasks(db.ScrapeTaskFilter{Site: model.SiteEasylive}, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	items, total, err = db.ListScrapeTasks(db.ScrapeTaskFilter{
		Site:   model.SiteEasylive,
		Status: model.StatusRunning,
	}, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, model.TaskTypeCatalogue, items[0].TaskType)

	items, total, err = db.ListScrapeTasks(db.ScrapeTaskFilter{Status: model.StatusDone}, 100, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListScrapeTasksPaging(t *testing.T) {
	setupDB(t)
	for i := 0; i < 5; i++ {
		seedTask(t)
	}

	items, total, err := db.ListScrapeTasks(db.ScrapeTaskFilter{}, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, items, 2)
	first := items[0].ID

	items, total, err = db.ListScrapeTasks(db.ScrapeTaskFilter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, items, 2)
	assert.Greater(t, items[0].ID, first)

	items, total, err = db.ListScrapeTasks(db.ScrapeTaskFilter{}, 2, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Empty(t, items)
}

func TestListScrapeTasksCreatedAtRange(t *testing.T) {
	setupDB(t)
	t10 := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	t12 := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	t14 := time.Date(2025, 8, 1, 14, 0, 0, 0, time.UTC)
	seedTask(t, func(s *model.ScrapeTask) { s.CreatedAt = t10 })
	seedTask(t, func(s *model.ScrapeTask) { s.CreatedAt = t12 })
	seedTask(t, func(s *model.ScrapeTask) { s.CreatedAt = t14 })

	_, total, err := db.ListScrapeTasks(db.ScrapeTaskFilter{CreatedAtFrom: &t12}, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "from bound is inclusive")

	_, total, err = db.ListScrapeTasks(db.ScrapeTaskFilter{CreatedAtTo: &t12}, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "to bound is inclusive")

	_, total, err = db.ListScrapeTasks(db.ScrapeTaskFilter{CreatedAtFrom: &t12, CreatedAtTo: &t12}, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = db.ListScrapeTasks(db.ScrapeTaskFilter{CreatedAt: &t14}, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestListScrapeTasksScheduledAtRange(t *testing.T) {
	setupDB(t)
	morning := time.Date(2025, 8, 2, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 8, 2, 21, 0, 0, 0, time.UTC)
	seedTask(t, func(s *model.ScrapeTask) { s.ScheduledAt = &morning })
	seedTask(t, func(s *model.ScrapeTask) { s.ScheduledAt = &evening })
	seedTask(t)

	items, total, err := db.ListScrapeTasks(db.ScrapeTaskFilter{
		ScheduledAtFrom: &morning,
		ScheduledAtTo:   &morning,
	}, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].ScheduledAt)
	assert.True(t, items[0].ScheduledAt.Equal(morning))

	_, total, err = db.ListScrapeTasks(db.ScrapeTaskFilter{ScheduledAtFrom: &morning}, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "tasks without a schedule never match")
}

func TestUpdateScrapeTask(t *testing.T) {
	setupDB(t)
	locked := time.Date(2025, 8, 3, 8, 0, 0, 0, time.UTC)
	task := seedTask(t, func(s *model.ScrapeTask) { s.LockedAt = &locked })

	updated, err := db.UpdateScrapeTask(task.ID, map[string]interface{}{
		"status":     model.StatusFailed,
		"last_error": "timeout fetching catalogue",
		"attempts":   3,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, updated.Status)
	require.NotNil(t, updated.LastError)
	assert.Equal(t, "timeout fetching catalogue", *updated.LastError)
	assert.Equal(t, 3, updated.Attempts)
	require.NotNil(t, updated.LockedAt)

	updated, err = db.UpdateScrapeTask(task.ID, map[string]interface{}{"locked_at": nil})
	require.NoError(t, err)
	assert.Nil(t, updated.LockedAt)

	_, err = db.UpdateScrapeTask(task.ID, map[string]interface{}{})
	require.NoError(t, err)

	_, err = db.UpdateScrapeTask(task.ID+100, map[string]interface{}{"status": model.StatusDone})
	assert.True(t, errs.IsScrapeTaskNotFound(err))
}

func TestDeleteScrapeTask(t *testing.T) {
	setupDB(t)
	pending := seedTask(t)
	failed := seedTask(t, func(s *model.ScrapeTask) { s.Status = model.StatusFailed })
	running := seedTask(t, func(s *model.ScrapeTask) { s.Status = model.StatusRunning })
	done := seedTask(t, func(s *model.ScrapeTask) { s.Status = model.StatusDone })

	require.NoError(t, db.DeleteScrapeTask(pending.ID))
	_, err := db.GetScrapeTaskByID(pending.ID)
	assert.True(t, errs.IsScrapeTaskNotFound(err))

	require.NoError(t, db.DeleteScrapeTask(failed.ID))

	err = db.DeleteScrapeTask(running.ID)
	assert.True(t, errs.IsScrapeTaskNotDeletable(err))
	_, err = db.GetScrapeTaskByID(running.ID)
	assert.NoError(t, err)

	err = db.DeleteScrapeTask(done.ID)
	assert.True(t, errs.IsScrapeTaskNotDeletable(err))

	err = db.DeleteScrapeTask(pending.ID)
	assert.True(t, errs.IsScrapeTaskNotFound(err))
}

func TestListPendingBySchedule(t *testing.T) {
	setupDB(t)
	now := time.Date(2025, 8, 4, 12, 0, 0, 0, time.UTC)
	early := now.Add(-2 * time.Hour)
	atNow := now
	future := now.Add(3 * time.Hour)

	first := seedTask(t, func(s *model.ScrapeTask) { s.ScheduledAt = &early })
	second := seedTask(t, func(s *model.ScrapeTask) { s.ScheduledAt = &atNow })
	seedTask(t, func(s *model.ScrapeTask) { s.ScheduledAt = &future })
	seedTask(t)
	seedTask(t, func(s *model.ScrapeTask) {
		s.ScheduledAt = &early
		s.Status = model.StatusRunning
	})

	items, total, err := db.ListNextPendingScrapeTasks(now, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "due means scheduled at or before now")
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)

	items, total, err = db.ListPendingFutureScrapeTasks(now, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].ScheduledAt)
	assert.True(t, items[0].ScheduledAt.Equal(future))
}

func TestCountScrapeTasksByStatus(t *testing.T) {
	setupDB(t)
	seedTask(t)
	seedTask(t)
	seedTask(t, func(s *model.ScrapeTask) { s.Status = model.StatusRunning })
	seedTask(t, func(s *model.ScrapeTask) { s.Status = model.StatusDone })
	seedTask(t, func(s *model.ScrapeTask) { s.Status = model.StatusFailed })
	seedTask(t, func(s *model.ScrapeTask) { s.Status = model.StatusFailed })

	summary, err := db.CountScrapeTasksByStatus()
	require.NoError(t, err)
	assert.EqualValues(t, 6, summary.Total)
	assert.EqualValues(t, 2, summary.Pending)
	assert.EqualValues(t, 1, summary.Running)
	assert.EqualValues(t, 1, summary.Done)
	assert.EqualValues(t, 2, summary.Failed)
}
