package dto

type GenerateLinkRequest struct {
	FileID       string `json:"fileId" binding:"required"`
	ExpiresIn    int    `json:"expiresIn"` // hours: 0 (never), 24, 72, 168
	MaxDownloads *int64 `json:"maxDownloads"`
}

type GenerateLinkResponse struct {
	Link      string  `json:"link"`
	LinkCode  string  `json:"linkCode"`
	Password  string  `json:"password"`
	ExpiresAt *string `json:"expiresAt"`
}

type ShareFileRequest struct {
	FileID         string `json:"fileId" binding:"required"`
	RecipientEmail string `json:"recipientEmail" binding:"required"`
	Message        string `json:"message"`
}

type ToggleUserStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// AdminUserInfo extends the user shape with file aggregates.
type AdminUserInfo struct {
	UserInfo
	FilesCount    int64  `json:"filesCount"`
	TotalFileSize int64  `json:"totalFileSize"`
	CreatedAt     string `json:"createdAt"`
}
