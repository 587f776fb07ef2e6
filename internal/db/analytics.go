package db

import (
	"github.com/pkg/errors"

	"github.com/auctionlab/scrape-tasks-api/internal/model"
)

// ScrapeTaskStatusSummary counts tasks per lifecycle state.
type ScrapeTaskStatusSummary struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Running int64 `json:"running"`
	Done    int64 `json:"done"`
	Failed  int64 `json:"failed"`
}

func CountScrapeTasksByStatus() (ScrapeTaskStatusSummary, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := db.Model(&model.ScrapeTask{}).
		Select("status, COUNT(id) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return ScrapeTaskStatusSummary{}, errors.WithStack(err)
	}
	var summary ScrapeTaskStatusSummary
	for _, row := range rows {
		summary.Total += row.N
		switch row.Status {
		case model.StatusPending:
			summary.Pending = row.N
		case model.StatusRunning:
			summary.Running = row.N
		case model.StatusDone:
			summary.Done = row.N
		case model.StatusFailed:
			summary.Failed = row.N
		}
	}
	return summary, nil
}

// EasyliveAuctionRow aggregates catalogue runs for one easylive auction URL.
// AuctioneerName and HammerPricesFound stay null until the lot-level rollup
// lands; they are kept so the response shape matches what clients already
// parse.
type EasyliveAuctionRow struct {
	AuctioneerName    *string `json:"auctioneer_name"`
	CatalogueID       string  `gorm:"column:catalogue_id" json:"catalogue_id"`
	AuctionID         string  `gorm:"column:auction_id" json:"auction_id"`
	Slug              *string `gorm:"column:slug" json:"slug"`
	RunCount          int64   `gorm:"column:run_count" json:"run_count"`
	LotsScraped       *int64  `gorm:"column:lots_scraped" json:"lots_scraped"`
	HammerPricesFound *int64  `json:"hammer_prices_found"`
}

// ListEasyliveAuctionAnalytics rolls catalogue task runs up per auction,
// busiest auctions first. split_part and the jsonb operator make this
// postgres-only.
func ListEasyliveAuctionAnalytics(limit int) ([]EasyliveAuctionRow, error) {
	rows := make([]EasyliveAuctionRow, 0, limit)
	err := db.Raw(`
		WITH base AS (
		    SELECT
		        split_part(tr.url, '?', 1) AS url_no_query,
		        tr.stats
		    FROM scrape_tasks st
		    JOIN task_runs tr ON tr.task_id = st.id
		    WHERE st.task_type = ?
		      AND st.site = ?
		      AND tr.url LIKE '%/catalogue/%'
		)
		SELECT
		    url_no_query,
		    split_part(split_part(url_no_query, 'catalogue/', 2), '/', 1) AS catalogue_id,
		    split_part(split_part(url_no_query, 'catalogue/', 2), '/', 2) AS auction_id,
		    NULLIF(split_part(split_part(url_no_query, 'catalogue/', 2), '/', 3), '') AS slug,
		    COUNT(*) AS run_count,
		    SUM((stats->>'lots_found')::int) AS lots_scraped
		FROM base
		GROUP BY 1, 2, 3, 4
		ORDER BY lots_scraped DESC NULLS LAST
		LIMIT ?`,
		model.TaskTypeCatalogue, model.SiteEasylive, limit).
		Scan(&rows).Error
	return rows, errors.WithStack(err)
}
