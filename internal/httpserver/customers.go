package httpserver

import (
	"net/http"

	customersvc "bizadmin/internal/service/customer"
	"github.com/gin-gonic/gin"
)

func (h *handlers) listCustomers(c *gin.Context) {
	list, err := h.deps.CustomerSvc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) createCustomer(c *gin.Context) {
	var in customersvc.Input
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	created, err := h.deps.CustomerSvc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) getCustomer(c *gin.Context) {
	cust, err := h.deps.CustomerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *handlers) updateCustomer(c *gin.Context) {
	var in customersvc.Input
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	updated, err := h.deps.CustomerSvc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) addContact(c *gin.Context) {
	var in customersvc.ContactInput
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	contact, err := h.deps.CustomerSvc.AddContact(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *handlers) customerOnboardings(c *gin.Context) {
	list, err := h.deps.CustomerSvc.Onboardings(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) customerCalculations(c *gin.Context) {
	list, err := h.deps.CustomerSvc.Calculations(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
