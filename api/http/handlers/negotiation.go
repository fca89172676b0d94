package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/haggleops/haggle/api/http/presenter"
	"github.com/haggleops/haggle/pkg/llm"
	"github.com/haggleops/haggle/pkg/negotiation"
)

type NegotiationHandler struct {
	uc negotiation.UseCase
}

func NewNegotiationHandler(uc negotiation.UseCase) *NegotiationHandler {
	return &NegotiationHandler{uc: uc}
}

type contextRequest struct {
	VendorMessage string  `json:"vendorMessage"`
	CurrentPrice  float64 `json:"currentPrice"`
	TargetPrice   float64 `json:"targetPrice"`
	PricePeriod   string  `json:"pricePeriod"`
	ServiceType   string  `json:"serviceType"`
	Relationship  string  `json:"relationship"`
}

// toDomain validates the request. Target above current is allowed (a
// negotiation may seek non-price terms), prices just have to be positive.
func (r contextRequest) toDomain() (negotiation.Context, error) {
	if strings.TrimSpace(r.VendorMessage) == "" {
		return negotiation.Context{}, errors.New("vendorMessage is required")
	}
	if r.CurrentPrice <= 0 || r.TargetPrice <= 0 {
		return negotiation.Context{}, errors.New("currentPrice and targetPrice must be positive")
	}
	period := negotiation.PricePeriod(strings.ToLower(strings.TrimSpace(r.PricePeriod)))
	switch period {
	case "":
		period = negotiation.PeriodMonthly
	case negotiation.PeriodMonthly, negotiation.PeriodAnnual:
	default:
		return negotiation.Context{}, errors.New("pricePeriod must be monthly or annual")
	}
	return negotiation.Context{
		VendorMessage: r.VendorMessage,
		CurrentPrice:  r.CurrentPrice,
		TargetPrice:   r.TargetPrice,
		PricePeriod:   period,
		ServiceType:   strings.TrimSpace(r.ServiceType),
		Relationship:  strings.TrimSpace(r.Relationship),
	}, nil
}

func ownerFromLocals(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, _ := c.Locals("userId").(string)
	return uuid.Parse(userIDStr)
}

// engineError maps model-client failures to a retry-capable response.
func engineError(c *fiber.Ctx, err error) error {
	if errors.Is(err, llm.ErrEngineUnavailable) {
		return presenter.Error(c, http.StatusBadGateway, "language model backend is unreachable; check engine configuration and connectivity, then retry")
	}
	if errors.Is(err, llm.ErrEngineResponse) {
		return presenter.Error(c, http.StatusBadGateway, "language model backend rejected the request: "+err.Error())
	}
	return presenter.Error(c, http.StatusInternalServerError, "proposal generation failed")
}

// Proposals drafts three counter-offer strategies for a negotiation context.
// @Summary Generate counter-offer proposals
// @Tags    negotiation
// @Accept  json
// @Produce json
// @Param   input body contextRequest true "negotiation context"
// @Security BearerAuth
// @Success 200 {object} negotiation.ProposalSet
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /negotiations/proposals [post]
func (h *NegotiationHandler) Proposals(c *fiber.Ctx) error {
	var req contextRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	nc, err := req.toDomain()
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}
	ownerID, err := ownerFromLocals(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "cannot identify user")
	}

	set, err := h.uc.GenerateProposals(c.Context(), ownerID, nc)
	if err != nil {
		return engineError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, set)
}

type simulateRequest struct {
	Context  contextRequest       `json:"context"`
	Proposal negotiation.Proposal `json:"proposal"`
}

// Simulate role-plays the vendor's likely reply to a chosen proposal.
// @Summary Simulate the vendor's reply
// @Tags    negotiation
// @Accept  json
// @Produce json
// @Param   input body simulateRequest true "context plus the chosen proposal"
// @Security BearerAuth
// @Success 200 {object} negotiation.VendorSimulation
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /negotiations/simulate [post]
func (h *NegotiationHandler) Simulate(c *fiber.Ctx) error {
	var req simulateRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	nc, err := req.Context.toDomain()
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Proposal.Message) == "" {
		return presenter.Error(c, http.StatusBadRequest, "proposal.message is required")
	}
	ownerID, err := ownerFromLocals(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "cannot identify user")
	}

	sim, err := h.uc.SimulateVendorResponse(c.Context(), ownerID, nc, req.Proposal)
	if err != nil {
		return engineError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, sim)
}

type saveRequest struct {
	Context    contextRequest                `json:"context"`
	Proposal   negotiation.Proposal          `json:"proposal"`
	Simulation *negotiation.VendorSimulation `json:"simulation,omitempty"`
	FinalPrice float64                       `json:"finalPrice"`
	Success    *bool                         `json:"success,omitempty"`
}

// Save persists one completed negotiation.
// @Summary Save a completed negotiation
// @Tags    negotiation
// @Accept  json
// @Produce json
// @Param   input body saveRequest true "negotiation outcome"
// @Security BearerAuth
// @Success 201 {object} map[string]string
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 503 {object} presenter.ErrorResponse
// @Router  /negotiations [post]
func (h *NegotiationHandler) Save(c *fiber.Ctx) error {
	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	nc, err := req.Context.toDomain()
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}
	if req.FinalPrice <= 0 {
		return presenter.Error(c, http.StatusBadRequest, "finalPrice must be positive")
	}
	validStrategy := false
	for _, s := range negotiation.Strategies {
		if req.Proposal.Strategy == s {
			validStrategy = true
		}
	}
	if !validStrategy {
		return presenter.Error(c, http.StatusBadRequest, "proposal.strategy must be one of polite, firm, term_swap")
	}
	ownerID, err := ownerFromLocals(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "cannot identify user")
	}

	success := req.FinalPrice < nc.CurrentPrice
	if req.Success != nil {
		success = *req.Success
	}
	id, err := h.uc.Save(c.Context(), negotiation.Record{
		OwnerID:    ownerID,
		Context:    nc,
		Proposal:   req.Proposal,
		Simulation: req.Simulation,
		FinalPrice: req.FinalPrice,
		Success:    success,
	})
	if err != nil {
		if errors.Is(err, negotiation.ErrStorageUnavailable) {
			return presenter.Error(c, http.StatusServiceUnavailable, "could not persist the negotiation; the record store is unavailable, retry the save")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to save negotiation")
	}
	return presenter.JSON(c, http.StatusCreated, fiber.Map{"id": id.String()})
}

// List returns the caller's negotiation history, newest first.
// @Summary List saved negotiations
// @Tags    negotiation
// @Produce json
// @Param   limit  query int false "page size (default 50)"
// @Param   offset query int false "page offset"
// @Security BearerAuth
// @Success 200 {array} negotiation.Record
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /negotiations [get]
func (h *NegotiationHandler) List(c *fiber.Ctx) error {
	ownerID, err := ownerFromLocals(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "cannot identify user")
	}
	limit, offset := parseLimitOffset(c, 50)
	items, err := h.uc.List(c.Context(), ownerID, limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to list negotiations")
	}
	return presenter.JSON(c, http.StatusOK, items)
}
