package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/middleware"
	"github.com/basit/forumfiles-backend/internal/services"
	"github.com/basit/forumfiles-backend/internal/services/dto"
)

type FileHandler struct {
	files   services.FileService
	maxSize int64
}

func NewFileHandler(files services.FileService, maxSize int64) *FileHandler {
	return &FileHandler{files: files, maxSize: maxSize}
}

func (h *FileHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/public", h.ListPublic)
	public.GET("/public/:id/download", h.DownloadPublic)

	protected.POST("/upload", h.Upload)
	protected.GET("/my-files", h.ListMine)
	protected.GET("/:id", h.Get)
	protected.GET("/:id/download", h.Download)
	protected.DELETE("/:id", h.Delete)
}

func (h *FileHandler) Upload(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("No file provided"))
		return
	}

	src, err := header.Open()
	if err != nil {
		apperrors.Respond(c, apperrors.InternalError(err))
		return
	}
	defer src.Close()

	// one extra byte so the validator sees an oversized payload instead of
	// a silently truncated one
	content, err := io.ReadAll(io.LimitReader(src, h.maxSize+1))
	if err != nil {
		apperrors.Respond(c, apperrors.InternalError(err))
		return
	}

	in := &services.UploadInput{
		OwnerID:     claims.UserID,
		Filename:    header.Filename,
		Description: c.PostForm("description"),
		Structured:  c.PostForm("structured") == "true",
		IsPublic:    c.PostForm("isPublic") == "true",
		Content:     content,
	}

	file, err := h.files.Upload(c.Request.Context(), in)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": file})
}

func (h *FileHandler) ListMine(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	page, limit := pageParams(c)
	files, total, err := h.files.ListMine(claims.UserID, page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files":      files,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *FileHandler) Get(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid file ID"))
		return
	}

	file, err := h.files.Get(claims.UserID, fileID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": file})
}

func (h *FileHandler) Download(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid file ID"))
		return
	}

	file, rc, err := h.files.Download(c.Request.Context(), claims.UserID, fileID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	defer rc.Close()

	streamFile(c, file.OriginalName, file.ContentType, file.FileSize, rc)
}

func (h *FileHandler) Delete(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid file ID"))
		return
	}

	if err := h.files.Delete(c.Request.Context(), claims.UserID, fileID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

func (h *FileHandler) ListPublic(c *gin.Context) {
	files, err := h.files.ListPublic()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *FileHandler) DownloadPublic(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid file ID"))
		return
	}

	file, rc, err := h.files.DownloadPublic(c.Request.Context(), fileID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	defer rc.Close()

	streamFile(c, file.OriginalName, file.ContentType, file.FileSize, rc)
}

// streamFile writes an attachment response. Errors after the first byte
// cannot change the status code anymore, so they are not reported.
func streamFile(c *gin.Context, filename, contentType string, size int64, r io.Reader) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)
	if size > 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}
	c.Status(http.StatusOK)
	io.Copy(c.Writer, r) //nolint:errcheck
}

func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
