package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/util"
)

// LogHandler serves the audit log: paginated listing plus CSV and XLSX
// export of a profile's full history.
type LogHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewLogHandler(db *gorm.DB, pageSize int) *LogHandler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &LogHandler{DB: db, PageSize: pageSize}
}

type logResp struct {
	ID            string  `json:"id"`
	Timestamp     string  `json:"timestamp"`
	Type          string  `json:"log_type"`
	TaskID        *string `json:"task_id"`
	RewardID      *string `json:"reward_id"`
	GoldDelta     string  `json:"gold_delta"`
	UserGold      string  `json:"user_gold"`
	CountDelta    *string `json:"count_delta"`
	DurationSecs  *int64  `json:"duration_seconds"`
	TitleSnapshot string  `json:"title_snapshot"`
}

func toLogResp(l *models.LogEntry) logResp {
	resp := logResp{
		ID:            l.ID.String(),
		Timestamp:     l.Timestamp.Format(time.RFC3339),
		Type:          string(l.Type),
		GoldDelta:     l.GoldDelta.StringFixed(2),
		UserGold:      l.UserGold.StringFixed(2),
		TitleSnapshot: l.TitleSnapshot,
	}
	if l.TaskID != nil {
		s := l.TaskID.String()
		resp.TaskID = &s
	}
	if l.RewardID != nil {
		s := l.RewardID.String()
		resp.RewardID = &s
	}
	if l.CountDelta != nil {
		s := l.CountDelta.StringFixed(2)
		resp.CountDelta = &s
	}
	if l.Duration != nil {
		secs := int64(l.Duration.Seconds())
		resp.DurationSecs = &secs
	}
	return resp
}

// logQuery builds the filtered, ordered query for a profile's log. Newest
// first; ties broken by creation order so pagination stays stable.
func (h *LogHandler) logQuery(c *gin.Context, profile *models.Profile) (*gorm.DB, bool) {
	q := h.DB.Model(&models.LogEntry{}).Where("profile_id = ?", profile.ID)

	if logType := c.Query("log_type"); logType != "" {
		if !models.LogType(logType).IsValid() {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid log_type")
			return nil, false
		}
		q = q.Where("type = ?", logType)
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid from date")
			return nil, false
		}
		q = q.Where("timestamp >= ?", t)
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid to date")
			return nil, false
		}
		q = q.Where("timestamp < ?", t.AddDate(0, 0, 1))
	}
	return q.Order("timestamp DESC, created_at DESC"), true
}

func (h *LogHandler) List(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	profileID, ok := profileIDFromQuery(c)
	if !ok {
		return
	}
	profile, ok := ownedProfile(c, h.DB, account, profileID)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if pageSize < 1 || pageSize > 200 {
		pageSize = h.PageSize
	}

	q, ok := h.logQuery(c, profile)
	if !ok {
		return
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "log query failed")
		return
	}

	var entries []models.LogEntry
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "log query failed")
		return
	}

	resp := make([]logResp, 0, len(entries))
	for i := range entries {
		resp = append(resp, toLogResp(&entries[i]))
	}
	util.Success(c, util.Response{
		"logs":      resp,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

var exportHeader = []string{
	"timestamp", "log_type", "title", "gold_delta", "user_gold",
	"count_delta", "duration_seconds", "task_id", "reward_id",
}

func exportRow(l *models.LogEntry) []string {
	row := []string{
		l.Timestamp.Format(time.RFC3339),
		string(l.Type),
		l.TitleSnapshot,
		l.GoldDelta.StringFixed(2),
		l.UserGold.StringFixed(2),
		"", "", "", "",
	}
	if l.CountDelta != nil {
		row[5] = l.CountDelta.StringFixed(2)
	}
	if l.Duration != nil {
		row[6] = strconv.FormatInt(int64(l.Duration.Seconds()), 10)
	}
	if l.TaskID != nil {
		row[7] = l.TaskID.String()
	}
	if l.RewardID != nil {
		row[8] = l.RewardID.String()
	}
	return row
}

func (h *LogHandler) exportEntries(c *gin.Context) ([]models.LogEntry, *models.Profile, bool) {
	account, ok := currentAccount(c)
	if !ok {
		return nil, nil, false
	}
	profileID, ok := profileIDFromQuery(c)
	if !ok {
		return nil, nil, false
	}
	profile, ok := ownedProfile(c, h.DB, account, profileID)
	if !ok {
		return nil, nil, false
	}
	q, ok := h.logQuery(c, profile)
	if !ok {
		return nil, nil, false
	}
	// Export is oldest-first so the file reads as a running ledger.
	var entries []models.LogEntry
	if err := q.Order("timestamp ASC, created_at ASC").Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "log query failed")
		return nil, nil, false
	}
	return entries, profile, true
}

// ExportCSV streams the profile's log as a CSV attachment.
func (h *LogHandler) ExportCSV(c *gin.Context) {
	entries, profile, ok := h.exportEntries(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("log-%s-%s.csv", profile.Name, time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeader)
	for i := range entries {
		_ = w.Write(exportRow(&entries[i]))
	}
	w.Flush()
}

// ExportXLSX streams the profile's log as an Excel workbook.
func (h *LogHandler) ExportXLSX(c *gin.Context) {
	entries, profile, ok := h.exportEntries(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Log"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, name)
	}
	for i := range entries {
		row := exportRow(&entries[i])
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("log-%s-%s.xlsx", profile.Name, time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
