package api

import (
	"net/http"

	"duck-storefront/internal/models"
	"duck-storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CredentialsRequest is the login, registration and password reset payload
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// publicAccount strips the password before an account leaves the service
func publicAccount(a *models.Account) models.Account {
	out := *a
	out.PlainPassword = ""
	return out
}

func bindCredentials(c *gin.Context) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return req, false
	}
	return req, true
}

// login handles session creation
func (h *Handler) login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	res, err := h.deps.Storefront.Login(c.Request.Context(), req.Username, req.Password, h.sink(c))
	if err != nil {
		fail(c, err)
		return
	}

	token, err := h.deps.Tokens.Issue(res.Session.ID)
	if err != nil {
		h.logger.Error("Failed to issue session token", zap.Error(err))
		respond(c, http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}
	c.SetCookie(sessionCookie, token, int(h.deps.Tokens.TTL().Seconds()), "/", "", h.deps.SecureCookies, true)

	respond(c, http.StatusOK, gin.H{
		"token":    token,
		"redirect": res.Redirect,
		"account":  publicAccount(&res.Session.Account),
	})
}

// logout handles session removal
func (h *Handler) logout(c *gin.Context) {
	if s, ok := currentSession(c).Get(); ok {
		if err := h.deps.Storefront.Logout(c.Request.Context(), s.ID); err != nil {
			fail(c, err)
			return
		}
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", h.deps.SecureCookies, true)
	c.Status(http.StatusNoContent)
}

// register handles account creation
func (h *Handler) register(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	account, err := h.deps.Storefront.Register(c.Request.Context(), req.Username, req.Password, h.sink(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"account": publicAccount(account)})
}

// resetPassword handles password changes by username
func (h *Handler) resetPassword(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	if err := h.deps.Storefront.ResetPassword(c.Request.Context(), req.Username, req.Password, h.sink(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

// getProfile returns the buyer's account
func (h *Handler) getProfile(c *gin.Context) {
	flow := service.NewFlow(c.Request.Context())
	defer flow.Close()

	account, err := h.deps.Storefront.GetProfile(c.Request.Context(), flow, currentSession(c), h.sink(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"account": publicAccount(account)})
}

// updateProfile changes shipping and payment details
func (h *Handler) updateProfile(c *gin.Context) {
	var update service.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	flow := service.NewFlow(c.Request.Context())
	defer flow.Close()

	account, err := h.deps.Storefront.UpdateProfile(c.Request.Context(), flow, currentSession(c), update, h.sink(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"account": publicAccount(account)})
}
