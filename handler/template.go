package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/arshiyakhan02/contract-agent/service"
	"github.com/gin-gonic/gin"
)

// TemplateHandler manages contract template uploads
type TemplateHandler struct {
	documents service.DocumentStore
}

func NewTemplateHandler(documents service.DocumentStore) *TemplateHandler {
	return &TemplateHandler{documents: documents}
}

// Upload stores a contract template for later filling
func (h *TemplateHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".txt" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF and TXT templates are allowed"})
		return
	}

	contentType := "application/pdf"
	if ext == ".txt" {
		contentType = "text/plain"
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	ref, err := h.documents.Put(c.Request.Context(), header.Filename, data, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store template: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"filename": header.Filename,
		"ref":      ref,
		"size":     len(data),
	})
}
