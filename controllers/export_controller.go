package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/models"
)

type exportReq struct {
	Format string `json:"format"` // csv | xlsx
}

/* ========== POST /api/:vertical/export/:studentId (teacher) ========== */

// CreateExport queues a background export of one student's full document
// (answers, word counts and review states per section).
func CreateExport(c *gin.Context) {
	vertical := c.Param("vertical")

	studentID, err := strconv.Atoi(c.Param("studentId"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid student id"})
		return
	}
	var student models.User
	if err := config.DB.First(&student, studentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return
	}

	var req exportReq
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Payload is invalid"})
		return
	}
	if req.Format == "" {
		req.Format = "csv"
	}
	if req.Format != "csv" && req.Format != "xlsx" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "format must be csv or xlsx"})
		return
	}

	jobID := uuid.New().String()
	job := models.ExportJob{
		JobID:     jobID,
		Vertical:  vertical,
		StudentID: uint(studentID),
		Format:    req.Format,
		Status:    "queued",
	}
	config.DB.Create(&job)

	go processExportJob(jobID)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": "queued",
	})
}

/* ========== GET /api/exports/:job_id ========== */

func GetExport(c *gin.Context) {
	jobID := c.Param("job_id")
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "DB error"})
		return
	}

	if job.Status == "done" && job.FilePath != nil {
		c.FileAttachment(*job.FilePath, path.Base(*job.FilePath))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
		"error":  job.ErrorMsg,
	})
}

type exportRow struct {
	Section   string
	Group     string
	Label     string
	Value     string
	WordCount int
	Status    string
	Edited    string
}

func processExportJob(jobID string) {
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		return
	}
	config.DB.Model(&job).Update("status", "processing")

	rows, err := collectExportRows(job)
	if err != nil {
		em := err.Error()
		config.DB.Model(&job).Updates(map[string]interface{}{"status": "failed", "error_msg": em})
		return
	}

	outDir := "./exports"
	os.MkdirAll(outDir, 0755)
	outPath := path.Join(outDir, fmt.Sprintf("export_%s.%s", job.JobID, job.Format))

	if job.Format == "xlsx" {
		err = writeExportXLSX(outPath, rows)
	} else {
		err = writeExportCSV(outPath, rows)
	}
	if err != nil {
		em := err.Error()
		config.DB.Model(&job).Updates(map[string]interface{}{"status": "failed", "error_msg": em})
		return
	}

	config.DB.Model(&job).Updates(map[string]interface{}{"status": "done", "file_path": outPath})
}

func collectExportRows(job models.ExportJob) ([]exportRow, error) {
	var sections []models.Section
	if err := config.DB.Where("vertical = ?", job.Vertical).
		Order("sort_order ASC, id ASC").Find(&sections).Error; err != nil {
		return nil, err
	}

	var out []exportRow
	for _, section := range sections {
		var questions []models.TemplateQuestion
		if err := config.DB.
			Where("section_id = ? AND is_archived = ?", section.ID, false).
			Order("sort_order ASC, id ASC").Find(&questions).Error; err != nil {
			return nil, err
		}

		responses := Responses.LoadResponses(job.StudentID, section.ID)

		for _, q := range questions {
			row := exportRow{
				Section: section.Title,
				Label:   q.Label,
			}
			if q.GroupID != nil {
				var g models.CustomGroup
				if err := config.DB.First(&g, *q.GroupID).Error; err == nil {
					row.Group = g.Name
				}
			}
			if r, ok := responses[q.ID]; ok {
				row.Value = r.Value
				row.WordCount = r.WordCount
				row.Status = string(r.Status)
				if !r.LastEdited.IsZero() {
					row.Edited = r.LastEdited.Format(time.RFC3339)
				}
			} else {
				row.Status = "blank"
			}
			out = append(out, row)
		}
	}
	return out, nil
}

var exportHeader = []string{"section", "group", "question", "answer", "word_count", "status", "last_edited"}

func writeExportCSV(outPath string, rows []exportRow) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Section, r.Group, r.Label, r.Value, strconv.Itoa(r.WordCount), r.Status, r.Edited}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeExportXLSX(outPath string, rows []exportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, r := range rows {
		values := []interface{}{r.Section, r.Group, r.Label, r.Value, r.WordCount, r.Status, r.Edited}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return f.SaveAs(outPath)
}
