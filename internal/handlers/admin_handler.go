package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/middleware"
	"github.com/basit/forumfiles-backend/internal/repositories"
	"github.com/basit/forumfiles-backend/internal/services"
	"github.com/basit/forumfiles-backend/internal/services/dto"
)

type AdminHandler struct {
	admin       services.AdminService
	files       services.FileService
	links       services.LinkService
	frontendURL string
	maxSize     int64
}

func NewAdminHandler(admin services.AdminService, files services.FileService, links services.LinkService, frontendURL string, maxSize int64) *AdminHandler {
	return &AdminHandler{admin: admin, files: files, links: links, frontendURL: frontendURL, maxSize: maxSize}
}

func (h *AdminHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/users", h.ListUsers)
	g.PUT("/users/:id/status", h.ToggleUserStatus)
	g.DELETE("/users/:id", h.DeleteUser)
	g.PUT("/users/:id/make-admin", h.MakeAdmin)
	g.PUT("/users/:id/remove-admin", h.RemoveAdmin)
	g.GET("/admins", h.ListAdmins)

	g.GET("/files", h.ListFiles)
	g.DELETE("/files/:id", h.DeleteFile)
	g.POST("/share-file", h.ShareFile)

	g.POST("/public-files", h.UploadPublicFile)
	g.GET("/public-files", h.ListPublicFiles)
	g.DELETE("/public-files/:id", h.DeletePublicFile)

	g.POST("/generate-link", h.GenerateLink)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)
	users, total, err := h.admin.ListUsers(page, limit, c.Query("search"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *AdminHandler) ToggleUserStatus(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid user ID"))
		return
	}

	var req dto.ToggleUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationError("isActive is required"))
		return
	}

	if err := h.admin.SetUserActive(claims.UserID, targetID, *req.IsActive); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User status updated"})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid user ID"))
		return
	}

	user, err := h.admin.DeleteUser(claims.UserID, targetID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
		"user":    dto.NewUserInfo(user),
	})
}

func (h *AdminHandler) MakeAdmin(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid user ID"))
		return
	}

	user, err := h.admin.MakeAdmin(targetID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User promoted to admin",
		"user":    dto.NewUserInfo(user),
	})
}

func (h *AdminHandler) RemoveAdmin(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid user ID"))
		return
	}

	user, err := h.admin.RemoveAdmin(claims.UserID, targetID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Admin role removed",
		"user":    dto.NewUserInfo(user),
	})
}

func (h *AdminHandler) ListAdmins(c *gin.Context) {
	admins, err := h.admin.ListAdmins()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	infos := make([]dto.UserInfo, 0, len(admins))
	for i := range admins {
		infos = append(infos, dto.NewUserInfo(&admins[i]))
	}
	c.JSON(http.StatusOK, gin.H{"admins": infos})
}

func (h *AdminHandler) ListFiles(c *gin.Context) {
	page, limit := pageParams(c)

	filter := repositories.FileFilter{Search: c.Query("search")}
	if raw := c.Query("userId"); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			apperrors.Respond(c, apperrors.ValidationError("Invalid user ID"))
			return
		}
		filter.UserID = &ownerID
	}

	files, total, err := h.admin.ListFiles(page, limit, filter)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files":      files,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *AdminHandler) DeleteFile(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid file ID"))
		return
	}

	if err := h.admin.DeleteFile(c.Request.Context(), fileID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

func (h *AdminHandler) ShareFile(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	var req dto.ShareFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationError("fileId and recipientEmail are required"))
		return
	}

	if err := h.admin.ShareFile(claims.UserID, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File shared successfully"})
}

func (h *AdminHandler) UploadPublicFile(c *gin.Context) {
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
		IsPublic:    true,
		Content:     content,
	}

	file, err := h.files.Upload(c.Request.Context(), in)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": file})
}

func (h *AdminHandler) ListPublicFiles(c *gin.Context) {
	files, err := h.files.ListPublic()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *AdminHandler) DeletePublicFile(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid file ID"))
		return
	}

	if err := h.admin.DeletePublicFile(c.Request.Context(), fileID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

func (h *AdminHandler) GenerateLink(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthenticated)
		return
	}

	var req dto.GenerateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationError("fileId is required"))
		return
	}

	fileID, err := uuid.Parse(req.FileID)
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Invalid file ID"))
		return
	}

	result, err := h.links.Issue(fileID, claims.UserID, req.ExpiresIn, req.MaxDownloads)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	resp := dto.GenerateLinkResponse{
		Link:     fmt.Sprintf("%s/public/link/%s", h.frontendURL, result.LinkCode),
		LinkCode: result.LinkCode,
		Password: result.Password,
	}
	if result.ExpiresAt != nil {
		s := result.ExpiresAt.UTC().Format(time.RFC3339)
		resp.ExpiresAt = &s
	}
	c.JSON(http.StatusCreated, resp)
}
