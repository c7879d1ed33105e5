// README: Auth handlers: challenge lifecycle, phone OTP, driver email auth and /me.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"transporter/internal/http/middleware"
	"transporter/internal/modules/appstore"
	"transporter/internal/modules/auth"
)

// Authenticator is implemented by auth.Service.
type Authenticator interface {
	AcquireChallenge(ctx context.Context, scope, token string) (auth.Challenge, error)
	ReleaseChallenge(ctx context.Context, scope string) error
	RequestCode(ctx context.Context, cmd auth.RequestCodeCommand) (auth.CodeHandle, error)
	VerifyCode(ctx context.Context, cmd auth.VerifyCodeCommand) (auth.Identity, error)
	DriverSignUp(ctx context.Context, cmd auth.EmailCommand) (auth.Identity, error)
	DriverSignIn(ctx context.Context, cmd auth.EmailCommand) (auth.Identity, error)
}

type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(svc Authenticator) *AuthHandler {
	return &AuthHandler{auth: svc}
}

type challengeReq struct {
	Scope string `json:"scope"`
	Token string `json:"token"`
}

type requestCodeReq struct {
	Scope string `json:"scope"`
	Phone string `json:"phone"`
}

type verifyCodeReq struct {
	VerificationID string `json:"verification_id"`
	Phone          string `json:"phone"`
	Code           string `json:"code"`
}

type emailReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResp struct {
	Success     bool      `json:"success"`
	Token       string    `json:"token"`
	User        auth.User `json:"user"`
	RedirectURL string    `json:"redirect_url"`
}

func (h *AuthHandler) AcquireChallenge(c *gin.Context) {
	var req challengeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ch, err := h.auth.AcquireChallenge(c.Request.Context(), req.Scope, req.Token)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, ch)
}

func (h *AuthHandler) ReleaseChallenge(c *gin.Context) {
	if err := h.auth.ReleaseChallenge(c.Request.Context(), c.Param("scope")); err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req requestCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	handle, err := h.auth.RequestCode(c.Request.Context(), auth.RequestCodeCommand{Scope: req.Scope, Phone: req.Phone})
	if err != nil {
		writeAuthError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, handle)
}

func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req verifyCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.auth.VerifyCode(c.Request.Context(), auth.VerifyCodeCommand{
		VerificationID: req.VerificationID,
		Phone:          req.Phone,
		Code:           req.Code,
	})
	if err != nil {
		writeAuthError(c, err)
		return
	}
	h.writeSignIn(c, http.StatusOK, id, appstore.AppCustomer)
}

func (h *AuthHandler) DriverSignUp(c *gin.Context) {
	h.driver(c, http.StatusCreated, h.auth.DriverSignUp)
}

func (h *AuthHandler) DriverSignIn(c *gin.Context) {
	h.driver(c, http.StatusOK, h.auth.DriverSignIn)
}

func (h *AuthHandler) driver(c *gin.Context, status int, fn func(context.Context, auth.EmailCommand) (auth.Identity, error)) {
	var req emailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := fn(c.Request.Context(), auth.EmailCommand{Email: req.Email, Password: req.Password})
	if err != nil {
		writeAuthError(c, err)
		return
	}
	h.writeSignIn(c, status, id, appstore.AppDriver)
}

func (h *AuthHandler) writeSignIn(c *gin.Context, status int, id auth.Identity, app appstore.App) {
	url, _ := appstore.StoreURL(app, c.Request.UserAgent())
	writeJSON(c, status, signInResp{Success: true, Token: id.Token, User: id.User, RedirectURL: url})
}

// Me returns the profile stored with the caller's session.
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.CallerIdentity(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"user": id.User})
}
