package negotiation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UseCase covers the full negotiation workflow: draft proposals, simulate the
// vendor, persist the outcome, aggregate savings.
type UseCase interface {
	GenerateProposals(ctx context.Context, ownerID uuid.UUID, nc Context) (ProposalSet, error)
	SimulateVendorResponse(ctx context.Context, ownerID uuid.UUID, nc Context, p Proposal) (VendorSimulation, error)
	Save(ctx context.Context, r Record) (uuid.UUID, error)
	List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Record, error)
	All(ctx context.Context, ownerID uuid.UUID) ([]Record, error)
	Summary(ctx context.Context, ownerID uuid.UUID) (SavingsSummary, error)
	Funnel(ctx context.Context, ownerID uuid.UUID) (map[string]int, error)
}

type service struct {
	repo  Repository
	agent *Agent
}

func NewService(repo Repository, agent *Agent) UseCase {
	return &service{repo: repo, agent: agent}
}

func (s *service) GenerateProposals(ctx context.Context, ownerID uuid.UUID, nc Context) (ProposalSet, error) {
	set, err := s.agent.GenerateProposals(ctx, nc)
	if err != nil {
		return ProposalSet{}, err
	}
	s.logStage(ctx, ownerID, StageProposalsGenerated)
	return set, nil
}

func (s *service) SimulateVendorResponse(ctx context.Context, ownerID uuid.UUID, nc Context, p Proposal) (VendorSimulation, error) {
	sim, err := s.agent.SimulateVendorResponse(ctx, nc, p)
	if err != nil {
		return VendorSimulation{}, err
	}
	s.logStage(ctx, ownerID, StageSimulated)
	return sim, nil
}

// Save appends one completed negotiation. Savings are derived from the
// context and final price here so stored figures stay consistent regardless
// of what the client sent.
func (s *service) Save(ctx context.Context, r Record) (uuid.UUID, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Savings = r.Context.CurrentPrice - r.FinalPrice
	r.AnnualSavings = r.Savings * r.Context.PricePeriod.AnnualFactor()
	if err := s.repo.Create(ctx, r); err != nil {
		return uuid.Nil, err
	}
	s.logStage(ctx, r.OwnerID, StageSaved)
	return r.ID, nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Record, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *service) All(ctx context.Context, ownerID uuid.UUID) ([]Record, error) {
	return s.repo.AllByOwner(ctx, ownerID)
}

// Summary scans all of the owner's records and aggregates on demand; nothing
// here is ever persisted, so the figures cannot go stale.
func (s *service) Summary(ctx context.Context, ownerID uuid.UUID) (SavingsSummary, error) {
	records, err := s.repo.AllByOwner(ctx, ownerID)
	if err != nil {
		return SavingsSummary{}, err
	}

	sum := SavingsSummary{
		ByStrategy:    make(map[Strategy]GroupStats),
		ByServiceType: make(map[string]GroupStats),
	}
	byStrategySuccess := make(map[Strategy]int)
	byServiceSuccess := make(map[string]int)

	for _, r := range records {
		// Normalization rule: monthly savings x12; anything else is
		// treated as already-annual.
		annual := r.Savings * r.Context.PricePeriod.AnnualFactor()

		sum.Count++
		sum.TotalAnnualSavings += annual
		if r.Success {
			sum.SuccessCount++
		}

		st := sum.ByStrategy[r.Proposal.Strategy]
		st.Count++
		st.TotalAnnualSavings += annual
		sum.ByStrategy[r.Proposal.Strategy] = st
		if r.Success {
			byStrategySuccess[r.Proposal.Strategy]++
		}

		sv := sum.ByServiceType[r.Context.ServiceType]
		sv.Count++
		sv.TotalAnnualSavings += annual
		sum.ByServiceType[r.Context.ServiceType] = sv
		if r.Success {
			byServiceSuccess[r.Context.ServiceType]++
		}
	}

	if sum.Count > 0 {
		sum.AvgAnnualSavings = sum.TotalAnnualSavings / float64(sum.Count)
		sum.SuccessRate = float64(sum.SuccessCount) / float64(sum.Count)
	}
	for k, st := range sum.ByStrategy {
		st.AvgAnnualSavings = st.TotalAnnualSavings / float64(st.Count)
		st.SuccessRate = float64(byStrategySuccess[k]) / float64(st.Count)
		sum.ByStrategy[k] = st
	}
	for k, sv := range sum.ByServiceType {
		sv.AvgAnnualSavings = sv.TotalAnnualSavings / float64(sv.Count)
		sv.SuccessRate = float64(byServiceSuccess[k]) / float64(sv.Count)
		sum.ByServiceType[k] = sv
	}
	return sum, nil
}

func (s *service) Funnel(ctx context.Context, ownerID uuid.UUID) (map[string]int, error) {
	return s.repo.Funnel(ctx, ownerID)
}

// logStage records a funnel event; analytics are best-effort and never fail
// the main action.
func (s *service) logStage(ctx context.Context, ownerID uuid.UUID, stage string) {
	_ = s.repo.LogEvent(ctx, Event{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Stage:     stage,
		CreatedAt: time.Now().UTC(),
	})
}
