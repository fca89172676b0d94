package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/haggleops/haggle/api/http/presenter"
	"github.com/haggleops/haggle/pkg/negotiation"
)

// SavingsHandler serves the aggregate views over saved negotiations.
type SavingsHandler struct {
	uc negotiation.UseCase
}

func NewSavingsHandler(uc negotiation.UseCase) *SavingsHandler {
	return &SavingsHandler{uc: uc}
}

// Summary recomputes savings aggregates from the full record set.
// @Summary Savings summary
// @Tags    savings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} negotiation.SavingsSummary
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /negotiations/summary [get]
func (h *SavingsHandler) Summary(c *fiber.Ctx) error {
	ownerID, err := ownerFromLocals(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "cannot identify user")
	}
	sum, err := h.uc.Summary(c.Context(), ownerID)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to compute summary")
	}
	return presenter.JSON(c, http.StatusOK, sum)
}

// Funnel returns event counts per negotiation stage.
// @Summary Negotiation funnel
// @Tags    savings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /negotiations/funnel [get]
func (h *SavingsHandler) Funnel(c *fiber.Ctx) error {
	ownerID, err := ownerFromLocals(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "cannot identify user")
	}
	funnel, err := h.uc.Funnel(c.Context(), ownerID)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to load funnel")
	}
	return presenter.JSON(c, http.StatusOK, funnel)
}

// Export streams the caller's negotiation history as CSV.
// @Summary Export negotiations as CSV
// @Tags    savings
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV body"
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /negotiations/export [get]
func (h *SavingsHandler) Export(c *fiber.Ctx) error {
	ownerID, err := ownerFromLocals(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "cannot identify user")
	}
	records, err := h.uc.All(c.Context(), ownerID)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to load negotiations")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Date", "Service Type", "Original Price", "Final Price", "Savings", "Annual Savings", "Strategy", "Success"})
	for _, r := range records {
		success := "No"
		if r.Success {
			success = "Yes"
		}
		_ = w.Write([]string{
			r.CreatedAt.Format(time.RFC3339),
			r.Context.ServiceType,
			fmt.Sprintf("%.2f", r.Context.CurrentPrice),
			fmt.Sprintf("%.2f", r.FinalPrice),
			fmt.Sprintf("%.2f", r.Savings),
			fmt.Sprintf("%.2f", r.AnnualSavings),
			string(r.Proposal.Strategy),
			success,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to build CSV")
	}

	filename := fmt.Sprintf("haggle_export_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(http.StatusOK).Send(buf.Bytes())
}
