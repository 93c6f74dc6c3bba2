package imports

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"reddit-ingest/common"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// RunResponse is the JSON form of a ledger entry.
type RunResponse struct {
	RunID         string             `json:"run_id"`
	File          string             `json:"file"`
	Table         string             `json:"table"`
	Kind          string             `json:"kind"`
	Status        string             `json:"status"`
	TotalLines    int64              `json:"total_lines"`
	AcceptedLines int64              `json:"accepted_lines"`
	FilteredLines int64              `json:"filtered_lines"`
	InvalidLines  int64              `json:"invalid_lines"`
	BytesRead     int64              `json:"bytes_read"`
	BytesTotal    int64              `json:"bytes_total"`
	MaxCreatedUTC int64              `json:"max_created_utc"`
	Failure       string             `json:"failure,omitempty"`
	Errors        []common.LineError `json:"errors,omitempty"`
	CreatedAt     string             `json:"created_at"`
	UpdatedAt     string             `json:"updated_at"`
	CompletedAt   *string            `json:"completed_at,omitempty"`
}

func newRunResponse(run *common.IngestRun, withErrors bool) RunResponse {
	resp := RunResponse{
		RunID:         run.ID,
		File:          run.File,
		Table:         run.Table,
		Kind:          run.Kind,
		Status:        run.Status,
		TotalLines:    run.TotalLines,
		AcceptedLines: run.AcceptedLines,
		FilteredLines: run.FilteredLines,
		InvalidLines:  run.InvalidLines,
		BytesRead:     run.BytesRead,
		BytesTotal:    run.BytesTotal,
		MaxCreatedUTC: run.MaxCreatedUTC,
		Failure:       run.Failure,
		CreatedAt:     run.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     run.UpdatedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		completed := run.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	if withErrors {
		if errs, err := common.ParseLineErrors(run.Errors); err == nil {
			resp.Errors = errs
		}
	}
	return resp
}

// RegisterRoutes mounts the run ledger endpoints on rg.
func RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", ListRuns)
	rg.GET("/:run_id", GetRun)
}

// ListRuns returns the newest runs first. Query parameters: status, file,
// limit.
func ListRuns(c *gin.Context) {
	db := common.GetDB()

	limit := defaultRunLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRunLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	query := db.Order("created_at DESC").Limit(limit)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if file := c.Query("file"); file != "" {
		query = query.Where("file = ?", file)
	}

	var runs []common.IngestRun
	if err := query.Find(&runs).Error; err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for i := range runs {
		resp = append(resp, newRunResponse(&runs[i], false))
	}
	c.Set("rows_processed", len(resp))
	c.JSON(http.StatusOK, gin.H{"runs": resp})
}

// GetRun returns one run with its recorded decode errors.
func GetRun(c *gin.Context) {
	db := common.GetDB()

	var run common.IngestRun
	err := db.Where("id = ?", c.Param("run_id")).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}

	c.Set("rows_processed", int(run.AcceptedLines))
	c.JSON(http.StatusOK, newRunResponse(&run, true))
}
