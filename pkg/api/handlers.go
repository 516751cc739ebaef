package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/layerpipe/layerpipe/pkg/geo"
	"github.com/layerpipe/layerpipe/pkg/messages"
	"github.com/layerpipe/layerpipe/pkg/metadata"
)

// UploadResponse acknowledges an accepted upload. success:true means
// "accepted", not "ready"; clients poll the status endpoint for the outcome.
type UploadResponse struct {
	Success  bool   `json:"success"`
	LayerID  string `json:"layerId"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	Message  string `json:"message"`
}

func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(messages.RespNoFileUploaded))
		return
	}
	if fileHeader.Size > s.env.MaxUploadBytes() {
		c.JSON(http.StatusRequestEntityTooLarge, errorBody(messages.RespFileTooLarge))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("unable to open uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to read file content"))
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, errorBody(messages.RespEmptyFile))
		return
	}

	fileName := filepath.Base(fileHeader.Filename)
	s.logger.Info("upload received",
		"fileName", fileName,
		"size", humanize.Bytes(uint64(len(data))),
		"type", mimetype.Detect(data).String())

	layerID, err := s.ingestor.AcceptUpload(data, fileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Success:  true,
		LayerID:  layerID,
		FileName: fileName,
		FileSize: int64(len(data)),
		Message:  messages.MsgUploadAccepted,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	rec, ok := s.store.Get(c.Param("layerId"))
	if !ok {
		notFound(c, messages.RespLayerNotFound)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleImage(c *gin.Context) {
	layerID := c.Param("layerId")
	filename := c.Param("filename")

	// The layer directory is the only namespace this route may serve from.
	// Both parameters can smuggle separators, so both are pinned to a single
	// path element.
	if layerID != filepath.Base(layerID) || strings.Contains(layerID, "..") {
		c.JSON(http.StatusBadRequest, errorBody(messages.RespInvalidFilename))
		return
	}
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		c.JSON(http.StatusBadRequest, errorBody(messages.RespInvalidFilename))
		return
	}

	data, err := afero.ReadFile(s.fs, filepath.Join(s.env.LayersRoot(), layerID, filename))
	if err != nil {
		notFound(c, messages.RespImageNotFound)
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

func (s *Server) handleReprocess(c *gin.Context) {
	layerID := c.Param("layerId")

	rec, err := metadata.Reprocess(s.fs, s.store, s.env.LayersRoot(), layerID, s.logger)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			notFound(c, messages.RespMetadataNotFound)
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "layer": rec})
}

type repairBoundsRequest struct {
	Bounds geo.Bounds `json:"bounds" binding:"required"`
}

func (s *Server) handleRepairBounds(c *gin.Context) {
	var req repairBoundsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Bounds.IsZero() {
		c.JSON(http.StatusBadRequest, errorBody(messages.RespInvalidBounds))
		return
	}

	err := metadata.RepairBounds(s.store, c.Param("layerId"), req.Bounds, s.logger)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		notFound(c, messages.RespLayerNotFound)
	case errors.Is(err, metadata.ErrNotProcessed):
		c.JSON(http.StatusConflict, errorBody(err.Error()))
	case err != nil:
		c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) handleDebugLayers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count":  s.store.Len(),
		"layers": s.store.List(),
	})
}

func (s *Server) handleClearLayers(c *gin.Context) {
	cleared := s.store.Clear()
	s.logger.Warn("registry cleared via debug endpoint", "cleared", cleared)
	c.JSON(http.StatusOK, gin.H{"success": true, "cleared": cleared})
}

type fsEntry struct {
	Path    string `json:"path"`
	Size    string `json:"size"`
	IsDir   bool   `json:"isDir"`
	ModTime string `json:"modTime"`
}

func (s *Server) handleDebugFilesystem(c *gin.Context) {
	root := s.env.LayersRoot()
	entries := []fsEntry{}

	err := afero.Walk(s.fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil // skip unreadable entries, keep walking
		}
		entries = append(entries, fsEntry{
			Path:    strings.TrimPrefix(path, root),
			Size:    humanize.Bytes(uint64(info.Size())),
			IsDir:   info.IsDir(),
			ModTime: info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
		return nil
	})
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"root": root, "entries": entries, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"root": root, "entries": entries})
}
