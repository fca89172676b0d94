package negotiation

import (
	"strings"
	"testing"
)

const wellFormedOutput = `### STRATEGY: polite
PRICE: $450
TERMS: quarterly billing; case study
MESSAGE:
Thank you for the renewal notice. We value the partnership and would love to land at $450/month.

### STRATEGY: firm
PRICE: $420.50
MESSAGE:
We have budget approval for $420.50 per month. Please confirm whether you can match this rate.

### STRATEGY: term_swap
PRICE: $500
TERMS: 24-month commitment; public case study
MESSAGE:
Instead of a discount, we can commit for 24 months at the current rate.`

func TestSplitSectionsFindsAllStrategies(t *testing.T) {
	sections := splitSections(wellFormedOutput)
	for _, s := range Strategies {
		if sections[s] == "" {
			t.Fatalf("missing section for %s", s)
		}
	}
	if !strings.Contains(sections[StrategyFirm], "budget approval") {
		t.Errorf("firm section has wrong body: %q", sections[StrategyFirm])
	}
}

func TestSplitSectionsKeepsFirstDuplicate(t *testing.T) {
	raw := "### STRATEGY: polite\nPRICE: $100\nMESSAGE:\nfirst\n\n### STRATEGY: polite\nPRICE: $200\nMESSAGE:\nsecond"
	sections := splitSections(raw)
	if !strings.Contains(sections[StrategyPolite], "first") {
		t.Errorf("expected first polite section to win, got %q", sections[StrategyPolite])
	}
}

func TestParseSection(t *testing.T) {
	sections := splitSections(wellFormedOutput)

	p, ok := parseSection(StrategyPolite, sections[StrategyPolite])
	if !ok {
		t.Fatal("polite section should parse")
	}
	if p.Price != 450 {
		t.Errorf("price = %v, want 450", p.Price)
	}
	if len(p.Terms) != 2 || p.Terms[0] != "quarterly billing" {
		t.Errorf("terms = %v", p.Terms)
	}
	if !strings.Contains(p.Message, "value the partnership") {
		t.Errorf("message = %q", p.Message)
	}

	p, ok = parseSection(StrategyFirm, sections[StrategyFirm])
	if !ok || p.Price != 420.50 {
		t.Errorf("firm: ok=%v price=%v, want 420.50", ok, p.Price)
	}
}

func TestParseSectionWithoutMessageMarker(t *testing.T) {
	section := "PRICE: $300\nWe would like to propose a renewal at the quoted price."
	p, ok := parseSection(StrategyPolite, section)
	if !ok {
		t.Fatal("section should parse")
	}
	if p.Price != 300 {
		t.Errorf("price = %v", p.Price)
	}
	if strings.Contains(p.Message, "PRICE:") {
		t.Errorf("field line leaked into message: %q", p.Message)
	}
	if !strings.Contains(p.Message, "propose a renewal") {
		t.Errorf("message = %q", p.Message)
	}
}

func TestParseSectionRejectsPricelessOrEmpty(t *testing.T) {
	if _, ok := parseSection(StrategyFirm, "MESSAGE:\nno number here at all"); ok {
		t.Error("priceless section must not parse")
	}
	if _, ok := parseSection(StrategyFirm, ""); ok {
		t.Error("empty section must not parse")
	}
	if _, ok := parseSection(StrategyFirm, "PRICE: $100"); ok {
		t.Error("bodyless section must not parse")
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"PRICE: $450", 450},
		{"we can do $1,250.75 per month", 1250.75},
		{"around $ 99", 99},
		{"no currency at all", 0},
		{"100 dollars without a sign", 0},
	}
	for _, tc := range tests {
		if got := extractPrice(tc.in); got != tc.want {
			t.Errorf("extractPrice(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSimulationOutcomeLine(t *testing.T) {
	nc := Context{CurrentPrice: 500, TargetPrice: 400, PricePeriod: PeriodMonthly}
	raw := "OUTCOME: countered\nPRICE: $460\nREPLY:\nWe can offer $460/month as a compromise."
	sim := parseSimulation(raw, nc)
	if sim.Outcome != OutcomeCountered {
		t.Errorf("outcome = %s", sim.Outcome)
	}
	if sim.CounterPrice != 460 {
		t.Errorf("counterPrice = %v, want 460", sim.CounterPrice)
	}
	if sim.Degraded {
		t.Error("recognized outcome must not be degraded")
	}
	if !strings.Contains(sim.Reply, "compromise") {
		t.Errorf("reply = %q", sim.Reply)
	}
}

func TestParseSimulationOutcomeVocabulary(t *testing.T) {
	nc := Context{CurrentPrice: 500, TargetPrice: 400, PricePeriod: PeriodMonthly}
	tests := []struct {
		raw  string
		want Outcome
	}{
		{"OUTCOME: accepted\nREPLY:\nDeal, we will honor that price.", OutcomeAccepted},
		{"OUTCOME: rejected\nREPLY:\nWe cannot move on price.", OutcomeRejected},
		{"We are happy to accept your proposal as written.", OutcomeAccepted},
		{"Unfortunately we must decline this request.", OutcomeRejected},
		{"Here is a revised offer of $475/month.", OutcomeCountered},
	}
	for _, tc := range tests {
		if sim := parseSimulation(tc.raw, nc); sim.Outcome != tc.want {
			t.Errorf("parseSimulation(%q).Outcome = %s, want %s", tc.raw, sim.Outcome, tc.want)
		}
	}
}

func TestParseSimulationUnknownVocabularyDegrades(t *testing.T) {
	nc := Context{CurrentPrice: 500, TargetPrice: 400, PricePeriod: PeriodMonthly}
	raw := "Thank you for reaching out, our team will evaluate internally."
	sim := parseSimulation(raw, nc)
	if sim.Outcome != OutcomeCountered {
		t.Errorf("outcome = %s, want countered", sim.Outcome)
	}
	if !sim.Degraded {
		t.Error("unknown vocabulary must flag the simulation degraded")
	}
	if sim.Reply != raw {
		t.Errorf("raw reply not preserved: %q", sim.Reply)
	}
}

func TestParseSimulationEmptyOutputFallsBack(t *testing.T) {
	nc := Context{CurrentPrice: 500, TargetPrice: 400, PricePeriod: PeriodMonthly}
	sim := parseSimulation("   ", nc)
	if !sim.Degraded || sim.Outcome != OutcomeCountered {
		t.Errorf("got %+v", sim)
	}
	if sim.Reply == "" {
		t.Error("fallback reply must be non-empty")
	}
	if sim.CounterPrice != 450 {
		t.Errorf("fallback counter = %v, want the mid-range 450", sim.CounterPrice)
	}
}
