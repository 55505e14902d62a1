package httpHandler

import (
	"errors"
	"net/http"

	"health-monitor/auth"
	"health-monitor/logging"
	"health-monitor/middlewares"
	"health-monitor/usecases"

	"github.com/gin-gonic/gin"
)

const invalidLoginMessage = "Invalid username or password"

type AuthHandler struct {
	useCase      *usecases.AuthUseCase
	issuer       *auth.Issuer
	session      *middlewares.Session
	secureCookie bool
}

func NewAuthHandler(useCase *usecases.AuthUseCase, issuer *auth.Issuer, session *middlewares.Session, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		useCase:      useCase,
		issuer:       issuer,
		session:      session,
		secureCookie: secureCookie,
	}
}

type CredentialsRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterPage handles GET /register
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{"Form": ""})
}

// Register handles POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{"Error": "Username and password are required", "Form": ""})
		return
	}

	if _, err := h.useCase.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		status, msg := registerError(err)
		if status == http.StatusInternalServerError {
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("registration failed")
		}
		c.HTML(status, "register.html", gin.H{"Error": msg, "Form": req.Username})
		return
	}

	c.Redirect(http.StatusFound, "/login")
}

// LoginPage handles GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Form": ""})
}

// Login handles POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Error": invalidLoginMessage, "Form": ""})
		return
	}

	token, err := h.login(c, req)
	if err != nil {
		status, msg := loginError(err)
		c.HTML(status, "login.html", gin.H{"Error": msg, "Form": req.Username})
		return
	}

	h.session.SetCookie(c, token, h.secureCookie)
	c.Redirect(http.StatusFound, "/dashboard")
}

// Logout handles GET /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.session.ClearCookie(c, h.secureCookie)
	c.Redirect(http.StatusFound, "/login")
}

// APIRegister handles POST /api/v1/auth/register
func (h *AuthHandler) APIRegister(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := h.useCase.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		status, msg := registerError(err)
		if status == http.StatusInternalServerError {
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("registration failed")
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"data":    user,
	})
}

// APILogin handles POST /api/v1/auth/login
func (h *AuthHandler) APILogin(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, err := h.login(c, req)
	if err != nil {
		status, msg := loginError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(h.issuer.TTL().Seconds()),
	})
}

func (h *AuthHandler) login(c *gin.Context, req CredentialsRequest) (string, error) {
	user, err := h.useCase.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		return "", err
	}
	token, err := h.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return "", err
	}
	logging.Ctx(c.Request.Context()).Info().Uint("user_id", user.ID).Msg("user logged in")
	return token, nil
}

func registerError(err error) (int, string) {
	switch {
	case errors.Is(err, usecases.ErrUsernameTaken):
		return http.StatusConflict, "Username already exists"
	case errors.Is(err, usecases.ErrMissingCredentials):
		return http.StatusBadRequest, "Username and password are required"
	case errors.Is(err, usecases.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password must be at most 72 bytes"
	default:
		return http.StatusInternalServerError, "Registration failed"
	}
}

func loginError(err error) (int, string) {
	if errors.Is(err, usecases.ErrInvalidCredentials) {
		return http.StatusUnauthorized, invalidLoginMessage
	}
	return http.StatusInternalServerError, "Login failed"
}
