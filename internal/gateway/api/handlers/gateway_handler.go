package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"

	"video2mp3_service/internal/gateway/app"
	"video2mp3_service/internal/gateway/domain"
	"video2mp3_service/pkg/logger"
	"video2mp3_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// GatewayHandler 處理 gateway 相關的 HTTP 請求
type GatewayHandler struct {
	Usecase app.GatewayUseCase
	Auth    app.AuthService
}

// NewGatewayHandler create gateway handler
func NewGatewayHandler(usecase app.GatewayUseCase, auth app.AuthService) *GatewayHandler {
	return &GatewayHandler{
		Usecase: usecase,
		Auth:    auth,
	}
}

// Login proxy login to the auth service, the token is returned as a plain body
func (h *GatewayHandler) Login(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing credentials"})
	}

	token, status, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).SendString(token)
}

// Register proxy register to the auth service
func (h *GatewayHandler) Register(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}

	res, status, err := h.Auth.Register(req.Email, req.Password)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(status).JSON(fiber.Map{
		"message": res.Message,
		"token":   res.Token,
	})
}

// Upload accept exactly one video file and queue it for conversion
func (h *GatewayHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":        "exactly 1 file required",
			"content_type": c.Get(fiber.HeaderContentType),
		})
	}

	// count every file across all multipart fields before touching storage
	fileCount := 0
	fieldNames := make([]string, 0, len(form.File))
	var fileHeader *multipart.FileHeader
	for field, headers := range form.File {
		fieldNames = append(fieldNames, field)
		fileCount += len(headers)
		if fileHeader == nil && len(headers) > 0 {
			fileHeader = headers[0]
		}
	}

	if fileCount != 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":          "exactly 1 file required",
			"files_received": fieldNames,
			"file_count":     fileCount,
			"content_type":   c.Get(fiber.HeaderContentType),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Log.Errorf("開啟上傳檔案失敗:", err)
		return c.Status(fiber.StatusInternalServerError).JSON("internal server error")
	}
	defer file.Close()

	username, _ := c.Locals(middlewares.TokenUsername).(string)
	if username == "" {
		username = "unknown"
	}

	res, err := h.Usecase.UploadVideo(c.UserContext(), domain.UploadVideoReq{
		FileName: fileHeader.Filename,
		File:     file,
		Username: username,
	})
	if err != nil {
		if errors.Is(err, domain.ErrQueuePublish) {
			return c.Status(fiber.StatusInternalServerError).JSON("internal server error. Error deleting video")
		}
		return c.Status(fiber.StatusInternalServerError).JSON("internal server error. Error Uploading to GridFS")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   res.Message,
		"video_fid": res.VideoFid,
	})
}

// Download stream a converted MP3 back to the caller
func (h *GatewayHandler) Download(c *fiber.Ctx) error {
	fid := c.Query("fid")
	if fid == "" {
		return c.Status(fiber.StatusBadRequest).JSON("fid is required")
	}

	res, err := h.Usecase.DownloadMP3(c.UserContext(), fid)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON("internal server error")
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.FileName))

	// SendStream copies in bounded chunks, large files never sit in memory
	if res.Length > 0 {
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(res.Length, 10))
		return c.SendStream(res.Content, int(res.Length))
	}
	return c.SendStream(res.Content)
}

// HealthCheck liveness probe endpoint
func (h *GatewayHandler) HealthCheck(c *fiber.Ctx) error {
	return c.SendString("OK")
}
