package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/haggleops/haggle/pkg/llm"
)

// LLMHandler exposes the engine self-test probe for pre-flight diagnostics.
// The main pipeline never calls it.
type LLMHandler struct {
	gen llm.TextGenerator
}

func NewLLMHandler(gen llm.TextGenerator) *LLMHandler { return &LLMHandler{gen: gen} }

// SelfTest runs a minimal generation call against the configured backend.
// @Summary Engine self-test
// @Tags    llm
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router  /llm/selftest [get]
func (h *LLMHandler) SelfTest(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()
	ok, message := h.gen.SelfTest(ctx)
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"ok": ok, "message": message})
}
