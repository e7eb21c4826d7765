package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"identity-service/internal/domain"
	"identity-service/internal/repository"
	"identity-service/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts service.AccountService
	logger   *logrus.Logger
}

func NewHandler(accounts service.AccountService, logger *logrus.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(requestLogger(h.logger))

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}

	router.GET("/users", h.listUsers)
	router.GET("/users/:userId", h.getUser)
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type registerRequest struct {
	FullName string  `json:"fullName"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Bio      *string `json:"bio"`
	DOB      *string `json:"dob"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation Error",
			"detail":  []service.FieldError{{Field: "body", Message: "Request body must be valid JSON"}},
		})
		return
	}

	err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
		DOB:      req.DOB,
	})
	if err != nil {
		var verrs service.ValidationError
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Validation Error", "detail": verrs})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Success"})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Login Failed"})
		return
	}

	tok, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrLoginFailed) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Login Failed"})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Success", "data": gin.H{"token": tok}})
}

func (h *Handler) listUsers(c *gin.Context) {
	accounts, err := h.accounts.ListAll(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}

	if len(accounts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	resp := make([]AccountResponse, len(accounts))
	for i := range accounts {
		resp[i] = accountToResponse(accounts[i])
	}
	c.JSON(http.StatusOK, gin.H{"message": "Success", "data": resp})
}

func (h *Handler) getUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Success", "data": accountToResponse(*account)})
}

// internalError logs the cause and answers with a generic body so internals
// never leak to the caller.
func (h *Handler) internalError(c *gin.Context, err error) {
	h.logger.WithField("request_id", RequestID(c)).Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
}

// AccountResponse is the outward shape of an account. The password hash is
// never part of it.
type AccountResponse struct {
	ID        int64   `json:"id"`
	FullName  string  `json:"fullName"`
	Email     string  `json:"email"`
	Bio       *string `json:"bio,omitempty"`
	DOB       *string `json:"dob,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

func accountToResponse(account domain.Account) AccountResponse {
	resp := AccountResponse{
		ID:        account.ID,
		FullName:  account.FullName,
		Email:     account.Email,
		Bio:       account.Bio,
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
	}
	if account.DOB != nil {
		v := account.DOB.Format("2006-01-02")
		resp.DOB = &v
	}
	return resp
}
