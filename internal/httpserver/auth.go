package httpserver

import (
	"errors"
	"net/http"

	"bizadmin/internal/domain"
	authsvc "bizadmin/internal/service/auth"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *handlers) register(c *gin.Context) {
	var in authsvc.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	u, err := h.deps.AuthSvc.Register(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *handlers) login(c *gin.Context) {
	var in loginRequest
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	if in.Email == "" || in.Password == "" {
		h.writeError(c, domain.NewValidationError("", "email and password required"))
		return
	}
	u, token, err := h.deps.AuthSvc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, User: u})
}

func (h *handlers) me(c *gin.Context) {
	id := identityFrom(c)
	if id == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, id)
}
