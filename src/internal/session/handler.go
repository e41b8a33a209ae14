package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wellmind-session-svc/src/clients"
	"wellmind-session-svc/src/internal/config"
)

type Handler interface {
	Login(c *gin.Context)
	Register(c *gin.Context)
	Logout(c *gin.Context)
	GetSession(c *gin.Context)
	UpdateTimeout(c *gin.Context)
	UpdateSponsor(c *gin.Context)
}

// ConversationResetter discards conversation state that must not outlive the
// session. Satisfied by the chat pipeline.
type ConversationResetter interface {
	Reset()
}

type handler struct {
	config        *config.Configuration
	manager       *Manager
	authClient    *clients.AuthClient
	conversations ConversationResetter
}

func NewHandler(cfg *config.Configuration, manager *Manager, authClient *clients.AuthClient, conversations ConversationResetter) Handler {
	return &handler{
		config:        cfg,
		manager:       manager,
		authClient:    authClient,
		conversations: conversations,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Country  string `json:"country"`
}

type timeoutRequest struct {
	Minutes int `json:"minutes"`
}

type sponsorRequest struct {
	Sponsor bool `json:"sponsor"`
}

func (h *handler) Login(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	result, err := h.authClient.Login(ctx, &clients.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		logrus.WithError(err).WithField("email", req.Email).Warn("Login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	h.manager.Login(ctx, LoginParams{
		Email:   req.Email,
		Token:   result.Token,
		Sponsor: result.Sponsor,
		Profile: Profile{
			Name:    result.Name,
			Gender:  result.Gender,
			Country: result.Country,
		},
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":   result.Token,
			"session": h.manager.Snapshot(),
		},
		"message": "Logged in successfully",
	})
}

func (h *handler) Register(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	result, err := h.authClient.Register(ctx, &clients.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Gender:   req.Gender,
		Country:  req.Country,
	})
	if err != nil {
		logrus.WithError(err).WithField("email", req.Email).Warn("Registration failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.manager.Login(ctx, LoginParams{
		Email:   req.Email,
		Token:   result.Token,
		Sponsor: result.Sponsor,
		Profile: Profile{
			Name:    result.Name,
			Gender:  result.Gender,
			Country: result.Country,
		},
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"token":   result.Token,
			"session": h.manager.Snapshot(),
		},
		"message": "Registered successfully",
	})
}

func (h *handler) Logout(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	h.manager.Logout(ctx)
	h.conversations.Reset()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out",
	})
}

func (h *handler) GetSession(c *gin.Context) {
	state := h.manager.State()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"state":    state,
			"loggedIn": state == StateLoggedIn,
			"session":  h.manager.Snapshot(),
		},
	})
}

func (h *handler) UpdateTimeout(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req timeoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Minutes value is required"})
		return
	}

	h.manager.SetSessionTimeoutMinutes(ctx, req.Minutes)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.manager.Snapshot(),
		"message": "Session timeout updated",
	})
}

func (h *handler) UpdateSponsor(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req sponsorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sponsor value is required"})
		return
	}

	h.manager.SetSponsor(ctx, req.Sponsor)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.manager.Snapshot(),
		"message": "Sponsor flag updated",
	})
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}
