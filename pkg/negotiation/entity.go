package negotiation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Strategy is one of the three fixed negotiation postures. All three are
// always generated together.
type Strategy string

const (
	StrategyPolite   Strategy = "polite"
	StrategyFirm     Strategy = "firm"
	StrategyTermSwap Strategy = "term_swap"
)

// Strategies lists the postures in generation order.
var Strategies = []Strategy{StrategyPolite, StrategyFirm, StrategyTermSwap}

// PricePeriod qualifies the context prices. Anything other than "monthly" is
// treated as already-annual during aggregation.
type PricePeriod string

const (
	PeriodMonthly PricePeriod = "monthly"
	PeriodAnnual  PricePeriod = "annual"
)

// AnnualFactor converts a per-period amount to an annual one.
func (p PricePeriod) AnnualFactor() float64 {
	if p == PeriodMonthly {
		return 12
	}
	return 1
}

// Unit is the human-readable period noun used in generated messages.
func (p PricePeriod) Unit() string {
	if p == PeriodMonthly {
		return "month"
	}
	return "year"
}

// Context carries everything the agent needs about one negotiation session.
// Immutable once built; target <= current is expected but not enforced, since
// a negotiation may seek a non-price term.
type Context struct {
	VendorMessage string      `json:"vendorMessage"`
	CurrentPrice  float64     `json:"currentPrice"`
	TargetPrice   float64     `json:"targetPrice"`
	PricePeriod   PricePeriod `json:"pricePeriod"`
	ServiceType   string      `json:"serviceType"`
	Relationship  string      `json:"relationship"`
}

// Proposal is one strategy's concrete counter-offer. Degraded marks a
// proposal whose structured fields fell back to safe defaults; callers must
// surface that as a warning, not hide it.
type Proposal struct {
	Strategy Strategy `json:"strategy"`
	Price    float64  `json:"price"`
	Message  string   `json:"message"`
	Terms    []string `json:"terms,omitempty"`
	Degraded bool     `json:"degraded"`
}

// ProposalSet is the result of one generation call: exactly one proposal per
// strategy, in Strategies order, plus the raw model output.
type ProposalSet struct {
	Proposals []Proposal `json:"proposals"`
	Raw       string     `json:"raw"`
	Degraded  bool       `json:"degraded"`
}

// Outcome categorizes a simulated vendor reply.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeCountered Outcome = "countered"
	OutcomeRejected  Outcome = "rejected"
)

// VendorSimulation is a non-authoritative preview of the vendor's likely
// reaction to one chosen proposal. CounterPrice is meaningful only when the
// outcome is countered.
type VendorSimulation struct {
	Outcome      Outcome `json:"outcome"`
	CounterPrice float64 `json:"counterPrice,omitempty"`
	Reply        string  `json:"reply"`
	Degraded     bool    `json:"degraded"`
}

// Record is the persisted unit of a completed negotiation. Append-only:
// never mutated after creation.
type Record struct {
	ID            uuid.UUID         `json:"id"`
	OwnerID       uuid.UUID         `json:"-"`
	Context       Context           `json:"context"`
	Proposal      Proposal          `json:"proposal"`
	Simulation    *VendorSimulation `json:"simulation,omitempty"`
	FinalPrice    float64           `json:"finalPrice"`
	Savings       float64           `json:"savings"`
	AnnualSavings float64           `json:"annualSavings"`
	Success       bool              `json:"success"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Funnel stages recorded for analytics.
const (
	StageProposalsGenerated = "proposals_generated"
	StageSimulated          = "simulated"
	StageSaved              = "saved"
)

// Event is one funnel data point.
type Event struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"-"`
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupStats aggregates records sharing one grouping key.
type GroupStats struct {
	Count              int     `json:"count"`
	TotalAnnualSavings float64 `json:"totalAnnualSavings"`
	AvgAnnualSavings   float64 `json:"avgAnnualSavings"`
	SuccessRate        float64 `json:"successRate"`
}

// SavingsSummary is derived on demand from the full record set and never
// persisted, so it cannot go stale.
type SavingsSummary struct {
	TotalAnnualSavings float64                 `json:"totalAnnualSavings"`
	AvgAnnualSavings   float64                 `json:"avgAnnualSavings"`
	Count              int                     `json:"count"`
	SuccessCount       int                     `json:"successCount"`
	SuccessRate        float64                 `json:"successRate"`
	ByStrategy         map[Strategy]GroupStats `json:"byStrategy"`
	ByServiceType      map[string]GroupStats   `json:"byServiceType"`
}

// ErrStorageUnavailable: the persistence layer failed a write or scan. Fatal
// to the current action only; reported to the caller, never dropped.
var ErrStorageUnavailable = errors.New("negotiation store unavailable")

// Repository is the persistence port: durable append plus full-scan reads.
type Repository interface {
	Create(ctx context.Context, r Record) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Record, error)
	// AllByOwner returns every record for aggregation and export.
	AllByOwner(ctx context.Context, ownerID uuid.UUID) ([]Record, error)
	LogEvent(ctx context.Context, e Event) error
	Funnel(ctx context.Context, ownerID uuid.UUID) (map[string]int, error)
}
