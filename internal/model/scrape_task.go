package model

import (
	"time"

	"gorm.io/datatypes"
)

// Task lifecycle states. Only StatusPending and StatusFailed rows may be
// deleted.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Scrape task kinds.
const (
	TaskTypeDiscover     = "discover"
	TaskTypeListing      = "listing"
	TaskTypeRescrape     = "rescrape"
	TaskTypeCatalogue    = "catalogue"
	TaskTypeAuctionTimes = "auction_times"
)

// Sites the scrapers currently cover. Listed by the enums endpoint so clients
// can populate forms, but site is not validated against this set: onboarding
// a new site must not require an API release.
const (
	SiteEasylive    = "easylive"
	SiteTheSaleroom = "the_saleroom"
)

var (
	Statuses  = []string{StatusPending, StatusRunning, StatusDone, StatusFailed}
	TaskTypes = []string{TaskTypeDiscover, TaskTypeListing, TaskTypeRescrape, TaskTypeCatalogue, TaskTypeAuctionTimes}
	Sites     = []string{SiteEasylive, SiteTheSaleroom}

	DeletableStatuses = []string{StatusPending, StatusFailed}
)

// ScrapeTask is one scheduled scraping job. Rows are created and managed
// through this API; the scraper workers pick them up, bump attempts and
// append task_runs.
type ScrapeTask struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Site        string         `gorm:"column:site;not null;index:idx_scrape_tasks_site" json:"site"`
	URL         string         `gorm:"column:url;not null;default:''" json:"url"`
	TaskType    string         `gorm:"column:task_type;not null;index:idx_scrape_tasks_task_type" json:"task_type"`
	Status      string         `gorm:"column:status;not null;index:idx_scrape_tasks_status" json:"status"`
	ScheduledAt *time.Time     `gorm:"column:scheduled_at;index:idx_scrape_tasks_scheduled_at" json:"scheduled_at"`
	LockedAt    *time.Time     `gorm:"column:locked_at" json:"locked_at"`
	// No gorm default tags on the retry counters: gorm swaps an explicit
	// zero for the tagged default on insert, and max_attempts 0 (never
	// retry) must survive a create. The create handler defaults omitted
	// fields to 0 and 5.
	Attempts    int            `gorm:"column:attempts;not null" json:"attempts"`
	MaxAttempts int            `gorm:"column:max_attempts;not null" json:"max_attempts"`
	LastError   *string        `gorm:"column:last_error" json:"last_error"`
	Meta        datatypes.JSON `gorm:"column:meta;not null" json:"meta"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime;index:idx_scrape_tasks_created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ScrapeTask) TableName() string {
	return "scrape_tasks"
}
