package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/basit/forumfiles-backend/internal/apperrors"
	"github.com/basit/forumfiles-backend/internal/services"
)

type PublicHandler struct {
	links       services.LinkService
	frontendURL string
}

func NewPublicHandler(links services.LinkService, frontendURL string) *PublicHandler {
	return &PublicHandler{links: links, frontendURL: frontendURL}
}

func (h *PublicHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/link/:linkCode", h.Resolve)
	g.POST("/link/:linkCode/download", h.Download)
	g.GET("/link/:linkCode/qr", h.QRCode)
}

// Resolve serves the landing page metadata. Expired and exhausted links
// still disclose their metadata so the page can say why the download is
// unavailable; absent and deactivated codes do not.
func (h *PublicHandler) Resolve(c *gin.Context) {
	info, err := h.links.Resolve(c.Param("linkCode"))
	if err != nil {
		if appErr := apperrors.From(err); appErr != nil && appErr.Code == apperrors.CodeGone && info != nil {
			c.JSON(http.StatusGone, gin.H{"link": info, "error": appErr})
			return
		}
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": info})
}

type redeemRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *PublicHandler) Download(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationError("Password is required"))
		return
	}

	file, rc, err := h.links.Redeem(c.Request.Context(), c.Param("linkCode"), req.Password)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	defer rc.Close()

	streamFile(c, file.OriginalName, file.ContentType, file.FileSize, rc)
}

// QRCode renders the public landing URL as a PNG. It does not check the
// link state: a QR for a dead link resolves to the landing page, which
// reports the state itself.
func (h *PublicHandler) QRCode(c *gin.Context) {
	url := fmt.Sprintf("%s/public/link/%s", h.frontendURL, c.Param("linkCode"))
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		apperrors.Respond(c, apperrors.InternalError(err))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
