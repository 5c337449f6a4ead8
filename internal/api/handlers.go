package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docstructgo/internal/extract"
	"docstructgo/internal/fileutil"
	"docstructgo/internal/inference"
	"docstructgo/internal/models"
	"docstructgo/internal/storage"
)

// PipelineRunner starts the asynchronous conversion pipeline for an
// accepted upload.
type PipelineRunner interface {
	Process(conversionID int64, tempPath, fileType, outputStructure, processingMode string)
}

// Handler wires HTTP routes to the conversion store and pipeline.
type Handler struct {
	store          *storage.MemoryStore
	runner         PipelineRunner
	uploadsDir     string
	maxUploadBytes int64
}

// NewHandler constructs a Handler instance.
func NewHandler(store *storage.MemoryStore, runner PipelineRunner, uploadsDir string, maxUploadBytes int64) *Handler {
	return &Handler{
		store:          store,
		runner:         runner,
		uploadsDir:     uploadsDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/conversions", h.listConversions)
	api.GET("/conversions/:id", h.getConversion)
	api.POST("/conversions", h.createConversion)
	api.DELETE("/conversions/:id", h.deleteConversion)
	api.GET("/conversions/:id/download", h.downloadConversion)
}

var allowedFileTypes = map[string]struct{}{
	extract.MimePDF:  {},
	extract.MimeDOCX: {},
}

func (h *Handler) listConversions(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List())
}

func (h *Handler) getConversion(c *gin.Context) {
	id, ok := conversionID(c)
	if !ok {
		return
	}
	conv, err := h.store.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversion not found"})
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *Handler) createConversion(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	fileType := file.Header.Get("Content-Type")
	if _, ok := allowedFileTypes[fileType]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF and DOCX files are supported"})
		return
	}

	outputStructure := c.DefaultPostForm("outputStructure", inference.StructureAutoDetect)
	if outputStructure != inference.StructureAutoDetect {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("outputStructure %q is not implemented, use %q", outputStructure, inference.StructureAutoDetect),
		})
		return
	}
	processingMode := c.DefaultPostForm("processingMode", inference.ModeFast)

	if err := fileutil.EnsureDir(h.uploadsDir); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create uploads directory failed"})
		return
	}
	storedName := uuid.NewString() + filepath.Ext(file.Filename)
	destPath := filepath.Join(h.uploadsDir, storedName)
	if err := c.SaveUploadedFile(file, destPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}

	conv := h.store.Create(models.Conversion{
		Filename:     storedName,
		OriginalName: filepath.Base(file.Filename),
		FileType:     fileType,
		FileSize:     file.Size,
	})

	// The pipeline runs independently of this request; the caller polls
	// the record until it reaches a terminal status.
	go h.runner.Process(conv.ID, destPath, fileType, outputStructure, processingMode)

	log.Info().
		Int64("conversion_id", conv.ID).
		Str("original_name", conv.OriginalName).
		Int64("size", conv.FileSize).
		Msg("upload accepted")
	c.JSON(http.StatusOK, conv)
}

func (h *Handler) deleteConversion(c *gin.Context) {
	id, ok := conversionID(c)
	if !ok {
		return
	}
	// Deletion is coupled to output cleanup so completed conversions do not
	// leave orphaned files behind.
	if conv, err := h.store.Get(id); err == nil && conv.OutputFilePath != nil {
		if err := os.Remove(*conv.OutputFilePath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", *conv.OutputFilePath).Msg("remove output file failed")
		}
	}
	h.store.Delete(id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) downloadConversion(c *gin.Context) {
	id, ok := conversionID(c)
	if !ok {
		return
	}
	conv, err := h.store.Get(id)
	if err != nil || conv.JSONOutput == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversion or JSON output not found"})
		return
	}

	attachmentName := conv.OriginalName + ".json"
	if conv.OutputFilePath != nil && fileutil.FileExists(*conv.OutputFilePath) {
		c.FileAttachment(*conv.OutputFilePath, attachmentName)
		return
	}

	data, err := json.MarshalIndent(conv.JSONOutput, "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode output failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachmentName))
	c.Data(http.StatusOK, "application/json", data)
}

func conversionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversion id"})
		return 0, false
	}
	return id, true
}
