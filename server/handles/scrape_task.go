package handles

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/auctionlab/scrape-tasks-api/internal/db"
	"github.com/auctionlab/scrape-tasks-api/internal/errs"
	"github.com/auctionlab/scrape-tasks-api/internal/model"
	"github.com/auctionlab/scrape-tasks-api/pkg/utils"
	"github.com/auctionlab/scrape-tasks-api/server/common"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	maxPendingLimit  = 500
)

// timeLayouts are the timestamp shapes the old deployment tolerated in
// requests. Responses always use RFC3339.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseAPITime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, want RFC3339", s)
}

// apiTime is a request-side time.Time accepting every layout in timeLayouts.
type apiTime struct {
	time.Time
}

func (t *apiTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := utils.Json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := parseAPITime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t *apiTime) timePtr() *time.Time {
	if t == nil {
		return nil
	}
	tt := t.Time
	return &tt
}

type scrapeTaskListResp struct {
	Total int64              `json:"total"`
	Items []model.ScrapeTask `json:"items"`
}

type scrapeTaskListQuery struct {
	filter db.ScrapeTaskFilter
	limit  int
	offset int
}

func parseScrapeTaskListQuery(c *gin.Context) (scrapeTaskListQuery, error) {
	q := scrapeTaskListQuery{
		limit:  queryLimit(c, defaultListLimit, maxListLimit),
		offset: queryOffset(c),
	}
	q.filter.Site = c.Query("site")
	if v := c.Query("task_type"); v != "" {
		if !utils.SliceContains(model.TaskTypes, v) {
			return q, fmt.Errorf("task_type must be one of: %s", strings.Join(model.TaskTypes, ", "))
		}
		q.filter.TaskType = v
	}
	if v := c.Query("status"); v != "" {
		if !utils.SliceContains(model.Statuses, v) {
			return q, fmt.Errorf("status must be one of: %s", strings.Join(model.Statuses, ", "))
		}
		q.filter.Status = v
	}
	var err error
	if q.filter.ScheduledAt, err = queryTime(c, "scheduled_at"); err != nil {
		return q, err
	}
	if q.filter.ScheduledAtFrom, err = queryTime(c, "scheduled_at_from"); err != nil {
		return q, err
	}
	if q.filter.ScheduledAtTo, err = queryTime(c, "scheduled_at_to"); err != nil {
		return q, err
	}
	if q.filter.CreatedAt, err = queryTime(c, "created_at"); err != nil {
		return q, err
	}
	if q.filter.CreatedAtFrom, err = queryTime(c, "created_at_from"); err != nil {
		return q, err
	}
	if q.filter.CreatedAtTo, err = queryTime(c, "created_at_to"); err != nil {
		return q, err
	}
	return q, nil
}

func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseAPITime(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", name, err.Error())
	}
	return &t, nil
}

func queryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}

func queryOffset(c *gin.Context) int {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return offset
}

func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.ErrorStrResp(c, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func respondScrapeTaskErr(c *gin.Context, err error) {
	switch {
	case errs.IsScrapeTaskNotFound(err):
		common.ErrorStrResp(c, http.StatusNotFound, "Not found")
	case errs.IsScrapeTaskNotDeletable(err):
		common.ErrorStrResp(c, http.StatusConflict, "Only pending or failed tasks can be deleted")
	default:
		common.ErrorResp(c, http.StatusInternalServerError, err)
	}
}

// ListScrapeTasks serves GET /scrape_tasks. Every supplied filter must hold
// for every returned item; total counts all matches regardless of paging.
func ListScrapeTasks(c *gin.Context) {
	q, err := parseScrapeTaskListQuery(c)
	if err != nil {
		common.ErrorStrResp(c, http.StatusBadRequest, err.Error())
		return
	}
	tasks, total, err := db.ListScrapeTasks(q.filter, q.limit, q.offset)
	if err != nil {
		common.ErrorResp(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, scrapeTaskListResp{Total: total, Items: tasks})
}

// GetScrapeTask serves GET /scrape_tasks/:id.
func GetScrapeTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := db.GetScrapeTaskByID(id)
	if err != nil {
		respondScrapeTaskErr(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type createScrapeTaskReq struct {
	Site        string                 `json:"site" binding:"required"`
	URL         string                 `json:"url"`
	TaskType    string                 `json:"task_type" binding:"required"`
	Status      string                 `json:"status"`
	ScheduledAt *apiTime               `json:"scheduled_at" binding:"required"`
	LockedAt    *apiTime               `json:"locked_at"`
	Attempts    *int                   `json:"attempts" binding:"omitempty,min=0"`
	MaxAttempts *int                   `json:"max_attempts" binding:"omitempty,min=0"`
	LastError   *string                `json:"last_error"`
	Meta        map[string]interface{} `json:"meta"`
}

// CreateScrapeTask serves POST /scrape_tasks. The server assigns id,
// created_at and updated_at; anything the client sends for those is dropped
// by the request schema.
func CreateScrapeTask(c *gin.Context) {
	var req createScrapeTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorStrResp(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status == "" {
		req.Status = model.StatusPending
	}
	if !utils.SliceContains(model.Statuses, req.Status) {
		common.ErrorStrResp(c, http.StatusBadRequest, "status must be one of: "+strings.Join(model.Statuses, ", "))
		return
	}
	if !utils.SliceContains(model.TaskTypes, req.TaskType) {
		common.ErrorStrResp(c, http.StatusBadRequest, "task_type must be one of: "+strings.Join(model.TaskTypes, ", "))
		return
	}
	meta, err := marshalMeta(req.Meta)
	if err != nil {
		common.ErrorResp(c, http.StatusInternalServerError, err)
		return
	}
	task := model.ScrapeTask{
		Site:        req.Site,
		URL:         req.URL,
		TaskType:    req.TaskType,
		Status:      req.Status,
		ScheduledAt: req.ScheduledAt.timePtr(),
		LockedAt:    req.LockedAt.timePtr(),
		Attempts:    0,
		MaxAttempts: 5,
		LastError:   req.LastError,
		Meta:        meta,
	}
	if req.Attempts != nil {
		task.Attempts = *req.Attempts
	}
	if req.MaxAttempts != nil {
		task.MaxAttempts = *req.MaxAttempts
	}
	if err := db.CreateScrapeTask(&task); err != nil {
		common.ErrorResp(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateScrapeTask serves PATCH /scrape_tasks/:id with exclude-unset
// semantics: only keys present in the body are applied. id, created_at,
// updated_at and unknown keys are silently ignored.
func UpdateScrapeTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		common.ErrorStrResp(c, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	updates, err := buildScrapeTaskUpdates(body)
	if err != nil {
		common.ErrorStrResp(c, http.StatusBadRequest, err.Error())
		return
	}
	task, err := db.UpdateScrapeTask(id, updates)
	if err != nil {
		respondScrapeTaskErr(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// buildScrapeTaskUpdates turns a sparse PATCH body into gorm column updates.
// A JSON null clears nullable columns, is rejected for non-nullable ones and
// is dropped for meta, matching the old deployment.
func buildScrapeTaskUpdates(body map[string]json.RawMessage) (map[string]interface{}, error) {
	updates := make(map[string]interface{}, len(body))
	for name, raw := range body {
		switch name {
		case "site", "url":
			if isJSONNull(raw) {
				return nil, fmt.Errorf("%s cannot be null", name)
			}
			s, err := unmarshalString(raw)
			if err != nil {
				return nil, fmt.Errorf("%s must be a string", name)
			}
			if name == "site" && s == "" {
				return nil, fmt.Errorf("site cannot be empty")
			}
			updates[name] = s
		case "task_type":
			s, err := unmarshalString(raw)
			if err != nil || !utils.SliceContains(model.TaskTypes, s) {
				return nil, fmt.Errorf("task_type must be one of: %s", strings.Join(model.TaskTypes, ", "))
			}
			updates[name] = s
		case "status":
			s, err := unmarshalString(raw)
			if err != nil || !utils.SliceContains(model.Statuses, s) {
				return nil, fmt.Errorf("status must be one of: %s", strings.Join(model.Statuses, ", "))
			}
			updates[name] = s
		case "scheduled_at", "locked_at":
			if isJSONNull(raw) {
				updates[name] = nil
				continue
			}
			s, err := unmarshalString(raw)
			if err != nil {
				return nil, fmt.Errorf("%s must be a timestamp or null", name)
			}
			t, err := parseAPITime(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %s", name, err.Error())
			}
			updates[name] = t
		case "attempts", "max_attempts":
			if isJSONNull(raw) {
				return nil, fmt.Errorf("%s cannot be null", name)
			}
			var n int
			if err := utils.Json.Unmarshal(raw, &n); err != nil {
				return nil, fmt.Errorf("%s must be an integer", name)
			}
			if n < 0 {
				return nil, fmt.Errorf("%s must not be negative", name)
			}
			updates[name] = n
		case "last_error":
			if isJSONNull(raw) {
				updates[name] = nil
				continue
			}
			s, err := unmarshalString(raw)
			if err != nil {
				return nil, fmt.Errorf("last_error must be a string or null")
			}
			updates[name] = s
		case "meta":
			if isJSONNull(raw) {
				continue
			}
			var m map[string]interface{}
			if err := utils.Json.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("meta must be an object")
			}
			meta, err := marshalMeta(m)
			if err != nil {
				return nil, err
			}
			updates[name] = meta
		default:
			// id, created_at, updated_at and unknown keys
		}
	}
	return updates, nil
}

// DeleteScrapeTask serves DELETE /scrape_tasks/:id; only pending or failed
// rows go away.
func DeleteScrapeTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := db.DeleteScrapeTask(id); err != nil {
		respondScrapeTaskErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetScrapeTaskEnums serves GET /scrape_tasks/enums: the exact value sets the
// write paths validate against, for clients to populate forms.
func GetScrapeTaskEnums(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"site":      model.Sites,
		"task_type": model.TaskTypes,
		"status":    model.Statuses,
	})
}

// ListNextPendingScrapeTasks serves GET /scrape_tasks/next_pending: pending
// tasks already due, earliest first, for workers polling for work.
func ListNextPendingScrapeTasks(c *gin.Context) {
	limit := queryLimit(c, defaultListLimit, maxPendingLimit)
	tasks, total, err := db.ListNextPendingScrapeTasks(time.Now().UTC(), limit)
	if err != nil {
		common.ErrorResp(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, scrapeTaskListResp{Total: total, Items: tasks})
}

// ListPendingFutureScrapeTasks serves GET /analytics/scrape_tasks/pending_future:
// pending tasks scheduled after now, earliest first.
func ListPendingFutureScrapeTasks(c *gin.Context) {
	limit := queryLimit(c, defaultListLimit, maxPendingLimit)
	tasks, total, err := db.ListPendingFutureScrapeTasks(time.Now().UTC(), limit)
	if err != nil {
		common.ErrorResp(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, scrapeTaskListResp{Total: total, Items: tasks})
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func unmarshalString(raw json.RawMessage) (string, error) {
	var s string
	err := utils.Json.Unmarshal(raw, &s)
	return s, err
}

func marshalMeta(m map[string]interface{}) (datatypes.JSON, error) {
	if m == nil {
		m = map[string]interface{}{}
	}
	raw, err := utils.Json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
