package app

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	errprocess "video2mp3_service/pkg/err"

	"github.com/gofiber/fiber/v2"
)

// AuthService proxy surface of the external auth collaborator
type AuthService interface {
	Login(email, password string) (token string, status int, err error)
	Register(email, password string) (res *RegisterRes, status int, err error)
	Validate(authorization string) (username string, admin bool, err error)
}

// RegisterRes auth service register response shape
type RegisterRes struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Error   string `json:"error"`
}

// tokenData auth service validate response shape
type tokenData struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Exp      int64  `json:"exp"`
	Iat      int64  `json:"iat"`
	Admin    bool   `json:"admin"`
	Sub      string `json:"sub"`
}

// AuthClient HTTP client for the external auth service
type AuthClient struct {
	baseURL string
}

// NewAuthClient create a client for the auth service at address (host:port)
func NewAuthClient(address string) *AuthClient {
	return &AuthClient{baseURL: "http://" + address}
}

// Login forward credentials as Basic auth, the token comes back as the raw body
func (a *AuthClient) Login(email, password string) (string, int, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(email + ":" + password))

	agent := fiber.Post(a.baseURL + "/api/login")
	agent.Set(fiber.HeaderAuthorization, "Basic "+basic)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fiber.StatusInternalServerError, errprocess.Set(fmt.Sprintf("auth service unavailable: %v", errs[0]))
	}
	if code < 200 || code >= 300 {
		return "", code, fmt.Errorf("invalid credentials")
	}
	return string(body), code, nil
}

// Register forward the registration request, passing the upstream body through
func (a *AuthClient) Register(email, password string) (*RegisterRes, int, error) {
	agent := fiber.Post(a.baseURL + "/api/register")
	agent.JSON(fiber.Map{
		"email":    email,
		"password": password,
	})

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fiber.StatusInternalServerError, errprocess.Set(fmt.Sprintf("auth service unavailable: %v", errs[0]))
	}

	var res RegisterRes
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fiber.StatusInternalServerError, errprocess.Set(fmt.Sprintf("auth service bad response: %v", err))
	}
	if code < 200 || code >= 300 {
		return nil, code, fmt.Errorf("registration failed: %s", res.Error)
	}
	if res.Message == "" {
		res.Message = "user created successfully"
	}
	return &res, code, nil
}

// Validate forward the Authorization header to the auth service and resolve
// the requester identity from the validated claims
func (a *AuthClient) Validate(authorization string) (string, bool, error) {
	agent := fiber.Post(a.baseURL + "/api/validate")
	agent.Set(fiber.HeaderAuthorization, authorization)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", false, fmt.Errorf("auth service unavailable: %v", errs[0])
	}
	if code < 200 || code >= 300 {
		return "", false, fmt.Errorf("not authorized")
	}

	var data tokenData
	if err := json.Unmarshal(body, &data); err != nil {
		return "", false, fmt.Errorf("auth service bad response: %v", err)
	}

	username := data.Username
	if username == "" {
		username = data.Email
	}
	if username == "" {
		username = "unknown"
	}
	return username, data.Admin, nil
}
