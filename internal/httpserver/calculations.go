package httpserver

import (
	"fmt"
	"net/http"

	"bizadmin/internal/delivery"
	"bizadmin/internal/domain"
	calcsvc "bizadmin/internal/service/calculation"
	"github.com/gin-gonic/gin"
)

type lineItemView struct {
	domain.LineItem
	EffectiveRate float64 `json:"effective_rate"`
	LineTotal     float64 `json:"line_total"`
}

// calculationView adds the read-time derived amounts to a stored calculation.
type calculationView struct {
	domain.Calculation
	Items      []lineItemView `json:"dienstleistungen"`
	NetTotal   float64        `json:"net_total"`
	VATAmount  float64        `json:"vat_amount"`
	GrossTotal float64        `json:"gross_total"`
}

func toCalculationView(c domain.Calculation) calculationView {
	items := make([]lineItemView, 0, len(c.Items))
	for _, li := range c.Items {
		items = append(items, lineItemView{
			LineItem:      li,
			EffectiveRate: li.EffectiveRate(c.HourlyRate),
			LineTotal:     li.Total(c.HourlyRate),
		})
	}
	return calculationView{
		Calculation: c,
		Items:       items,
		NetTotal:    c.NetTotal(),
		VATAmount:   c.VATAmount(),
		GrossTotal:  c.GrossTotal(),
	}
}

func (h *handlers) listCalculations(c *gin.Context) {
	list, err := h.deps.CalculationSvc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) createCalculation(c *gin.Context) {
	var in calcsvc.CreateInput
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	created, err := h.deps.CalculationSvc.Create(c.Request.Context(), in, identityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCalculationView(*created))
}

func (h *handlers) calculationStats(c *gin.Context) {
	stats, err := h.deps.CalculationSvc.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handlers) getCalculation(c *gin.Context) {
	calc, err := h.deps.CalculationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCalculationView(*calc))
}

func (h *handlers) updateCalculation(c *gin.Context) {
	var in calcsvc.PatchInput
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	updated, err := h.deps.CalculationSvc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCalculationView(*updated))
}

func (h *handlers) updateCalculationStatus(c *gin.Context) {
	var in statusRequest
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	calc, err := h.deps.CalculationSvc.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCalculationView(*calc))
}

func (h *handlers) calculationPDF(c *gin.Context) {
	pdf, calc, err := h.deps.CalculationSvc.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, delivery.FileName(*calc)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *handlers) sendCalculation(c *gin.Context) {
	var in calcsvc.SendInput
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.deps.CalculationSvc.SendByEmail(c.Request.Context(), c.Param("id"), in); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
