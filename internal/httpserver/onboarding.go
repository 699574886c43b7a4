package httpserver

import (
	"net/http"

	"bizadmin/internal/domain"
	"bizadmin/internal/schema"
	onboardingsvc "bizadmin/internal/service/onboarding"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type statusRequest struct {
	Status string `json:"status"`
}

// bindOnboarding checks the raw body against the onboarding schema before binding.
func bindOnboarding(c *gin.Context, dst interface{}) error {
	body, err := c.GetRawData()
	if err != nil {
		return domain.NewValidationError("", "could not read request body")
	}
	if len(body) == 0 {
		return domain.NewValidationError("", "request body required")
	}
	if err := schema.ValidateOnboarding(c.Request.Context(), body); err != nil {
		return err
	}
	return bindError(binding.JSON.BindBody(body, dst))
}

func (h *handlers) listProjects(c *gin.Context) {
	list, err := h.deps.OnboardingSvc.Projects(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) createOnboarding(c *gin.Context) {
	var in onboardingsvc.CreateInput
	if err := bindOnboarding(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	created, err := h.deps.OnboardingSvc.Create(c.Request.Context(), in, identityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) getOnboarding(c *gin.Context) {
	o, err := h.deps.OnboardingSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) updateOnboarding(c *gin.Context) {
	var in onboardingsvc.PatchInput
	if err := bindOnboarding(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	updated, err := h.deps.OnboardingSvc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) updateOnboardingStatus(c *gin.Context) {
	var in statusRequest
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	o, err := h.deps.OnboardingSvc.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
