package exports

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"reddit-ingest/common"
)

// RegisterRoutes mounts the export endpoint on rg.
func RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", StreamExport)
}

// StreamExport streams every row of a table as CSV or NDJSON.
// Query parameters: table (required), format (csv|ndjson, default csv).
func StreamExport(c *gin.Context) {
	table := c.Query("table")
	format := c.DefaultQuery("format", FormatCSV)

	if table == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "table parameter is required"})
		return
	}
	if !ValidFormat(format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid format, must be: csv or ndjson"})
		return
	}

	db := common.GetDB()
	ok, err := TableExists(c.Request.Context(), db, table)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up table"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}

	c.Header("Content-Type", ContentType(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", FileName(table, format)))

	c.Status(http.StatusOK)
	n, err := WriteTable(c.Request.Context(), db, table, format, c.Writer)
	if err != nil {
		c.Error(err)
	}
	c.Writer.Flush()
	c.Set("rows_processed", int(n))
}
