package negotiation

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
)

// memRepo is an in-memory Repository for tests.
type memRepo struct {
	records []Record
	events  []Event
	failAll error
}

func (m *memRepo) Create(_ context.Context, r Record) error {
	if m.failAll != nil {
		return m.failAll
	}
	m.records = append(m.records, r)
	return nil
}

func (m *memRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]Record, error) {
	all, _ := m.AllByOwner(context.Background(), ownerID)
	if offset >= len(all) {
		return []Record{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memRepo) AllByOwner(_ context.Context, ownerID uuid.UUID) ([]Record, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	out := []Record{}
	for _, r := range m.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) LogEvent(_ context.Context, e Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memRepo) Funnel(_ context.Context, ownerID uuid.UUID) (map[string]int, error) {
	out := map[string]int{}
	for _, e := range m.events {
		if e.OwnerID == ownerID {
			out[e.Stage]++
		}
	}
	return out, nil
}

func newTestService(repo Repository) UseCase {
	gen := &scriptedGenerator{outputs: []string{wellFormedOutput}}
	return NewService(repo, NewAgent(gen))
}

func makeRecord(owner uuid.UUID, strategy Strategy, serviceType string, period PricePeriod, current, final float64, success bool) Record {
	return Record{
		OwnerID: owner,
		Context: Context{
			VendorMessage: "renewal notice",
			CurrentPrice:  current,
			TargetPrice:   final,
			PricePeriod:   period,
			ServiceType:   serviceType,
		},
		Proposal:   Proposal{Strategy: strategy, Price: final, Message: "counter"},
		FinalPrice: final,
		Success:    success,
	}
}

func TestSummaryEmptySet(t *testing.T) {
	svc := newTestService(&memRepo{})
	sum, err := svc.Summary(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.TotalAnnualSavings != 0 || sum.SuccessRate != 0 || sum.Count != 0 {
		t.Errorf("empty set must aggregate to zeros, got %+v", sum)
	}
}

func TestSummaryAnnualization(t *testing.T) {
	owner := uuid.New()
	repo := &memRepo{}
	svc := newTestService(repo)

	// one monthly record with $100 savings, one annual with $600
	if _, err := svc.Save(context.Background(), makeRecord(owner, StrategyPolite, "SaaS", PeriodMonthly, 500, 400, true)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := svc.Save(context.Background(), makeRecord(owner, StrategyFirm, "Insurance", PeriodAnnual, 2000, 1400, true)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	sum, err := svc.Summary(context.Background(), owner)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.TotalAnnualSavings != 1800 {
		t.Errorf("total annual savings = %v, want 1800 (100x12 + 600)", sum.TotalAnnualSavings)
	}
	if sum.Count != 2 || sum.SuccessRate != 1 {
		t.Errorf("count=%d rate=%v", sum.Count, sum.SuccessRate)
	}
	if sum.AvgAnnualSavings != 900 {
		t.Errorf("avg = %v, want 900", sum.AvgAnnualSavings)
	}
}

func TestSummaryBreakdowns(t *testing.T) {
	owner := uuid.New()
	svc := newTestService(&memRepo{})
	ctx := context.Background()

	_, _ = svc.Save(ctx, makeRecord(owner, StrategyPolite, "SaaS", PeriodMonthly, 500, 450, true))
	_, _ = svc.Save(ctx, makeRecord(owner, StrategyPolite, "SaaS", PeriodMonthly, 300, 300, false))
	_, _ = svc.Save(ctx, makeRecord(owner, StrategyTermSwap, "Hosting", PeriodAnnual, 1200, 1000, true))

	sum, err := svc.Summary(ctx, owner)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	polite := sum.ByStrategy[StrategyPolite]
	if polite.Count != 2 {
		t.Errorf("polite count = %d", polite.Count)
	}
	if polite.TotalAnnualSavings != 600 {
		t.Errorf("polite total = %v, want 600 (50x12)", polite.TotalAnnualSavings)
	}
	if polite.SuccessRate != 0.5 {
		t.Errorf("polite success rate = %v, want 0.5", polite.SuccessRate)
	}

	hosting := sum.ByServiceType["Hosting"]
	if hosting.Count != 1 || hosting.TotalAnnualSavings != 200 {
		t.Errorf("hosting stats = %+v", hosting)
	}
	if _, ok := sum.ByStrategy[StrategyFirm]; ok {
		t.Error("unused strategy must not appear in the breakdown")
	}
}

func TestSaveDerivesSavingsAndReadsItsWrites(t *testing.T) {
	owner := uuid.New()
	repo := &memRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	rec := makeRecord(owner, StrategyFirm, "SaaS", PeriodMonthly, 500, 420, true)
	rec.Savings = 12345 // client-sent figures are ignored
	rec.AnnualSavings = 99999

	id, err := svc.Save(ctx, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("Save must return a non-nil id")
	}

	// read-your-writes: the record is visible to an immediate summary
	sum, err := svc.Summary(ctx, owner)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Count != 1 {
		t.Fatalf("saved record not visible, count = %d", sum.Count)
	}
	if math.Abs(sum.TotalAnnualSavings-960) > 1e-9 {
		t.Errorf("total = %v, want 960 (80x12)", sum.TotalAnnualSavings)
	}

	stored := repo.records[0]
	if stored.Savings != 80 || stored.AnnualSavings != 960 {
		t.Errorf("stored savings = %v/%v, want 80/960", stored.Savings, stored.AnnualSavings)
	}
	if stored.CreatedAt.IsZero() {
		t.Error("CreatedAt must be filled on save")
	}
}

func TestSavePropagatesStorageErrors(t *testing.T) {
	repo := &memRepo{failAll: ErrStorageUnavailable}
	svc := newTestService(repo)

	_, err := svc.Save(context.Background(), makeRecord(uuid.New(), StrategyPolite, "SaaS", PeriodMonthly, 500, 400, true))
	if err == nil {
		t.Fatal("storage failures must surface, never drop silently")
	}
}

func TestWorkflowLogsFunnelStages(t *testing.T) {
	owner := uuid.New()
	repo := &memRepo{}
	gen := &scriptedGenerator{outputs: []string{wellFormedOutput, "OUTCOME: countered\nPRICE: $460\nREPLY:\nWe can meet at $460."}}
	svc := NewService(repo, NewAgent(gen))
	ctx := context.Background()

	nc := testContext()
	set, err := svc.GenerateProposals(ctx, owner, nc)
	if err != nil {
		t.Fatalf("GenerateProposals: %v", err)
	}
	if _, err := svc.SimulateVendorResponse(ctx, owner, nc, set.Proposals[0]); err != nil {
		t.Fatalf("SimulateVendorResponse: %v", err)
	}
	if _, err := svc.Save(ctx, makeRecord(owner, StrategyPolite, "SaaS", PeriodMonthly, 500, 460, true)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	funnel, err := svc.Funnel(ctx, owner)
	if err != nil {
		t.Fatalf("Funnel: %v", err)
	}
	for _, stage := range []string{StageProposalsGenerated, StageSimulated, StageSaved} {
		if funnel[stage] != 1 {
			t.Errorf("funnel[%s] = %d, want 1", stage, funnel[stage])
		}
	}
}

func TestAnnualFactor(t *testing.T) {
	if f := PeriodMonthly.AnnualFactor(); f != 12 {
		t.Errorf("monthly factor = %v", f)
	}
	if f := PeriodAnnual.AnnualFactor(); f != 1 {
		t.Errorf("annual factor = %v", f)
	}
	// unknown periods are treated as already-annual
	if f := PricePeriod("weekly").AnnualFactor(); f != 1 {
		t.Errorf("unknown period factor = %v", f)
	}
}
