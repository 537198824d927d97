package controllers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spdteam/dashboard-server/middleware"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/utils"
)

/* ========== POST /api/upload/image ========== */

// UploadImage stores an image and returns its storage descriptor. Unlike text
// edits, uploads are not debounced: when a question_id rides along, the
// response record is patched immediately on success.
func UploadImage(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file received"})
		return
	}
	if err := validateImage(fileHeader); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	descriptor, err := utils.UploadImage(fileHeader, uuid.New().String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"path": descriptor.Path,
		"name": descriptor.Name,
		"type": descriptor.Type,
		"size": descriptor.Size,
		"mime": descriptor.Mime,
	}

	if qidStr := c.PostForm("question_id"); qidStr != "" && u.Role == models.RoleStudent {
		qid, err := strconv.Atoi(qidStr)
		if err != nil || qid <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question_id"})
			return
		}
		raw, _ := json.Marshal(descriptor)
		record, err := Responses.AttachImage(u.ID, uint(qid), string(raw))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload stored but response patch failed"})
			return
		}
		resp["response_id"] = record.ID
	}

	c.JSON(http.StatusOK, resp)
}

func validateImage(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > 10<<20 {
		return fmt.Errorf("file exceeds the 10MB limit")
	}

	allowedTypes := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	// sniff only the first 512 bytes
	buffer := make([]byte, 512)
	if _, err := file.Read(buffer); err != nil {
		return err
	}

	contentType := http.DetectContentType(buffer)
	if !allowedTypes[contentType] {
		return fmt.Errorf("unsupported image type %s", contentType)
	}
	return nil
}
