package negotiation

import (
	"regexp"
	"strconv"
	"strings"
)

// Best-effort extraction of structured proposals from free-text model output.
// Parsing never errors: each strategy resolves to either a parsed proposal or
// a degraded fallback, per the tagged-outcome contract.

var (
	sectionRe = regexp.MustCompile(`(?mi)^#*\s*STRATEGY:\s*(polite|firm|term_swap)\b.*$`)
	priceRe   = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	priceLine = regexp.MustCompile(`(?mi)^\s*PRICE:.*$`)
	termsLine = regexp.MustCompile(`(?mi)^\s*TERMS:\s*(.+)$`)
	msgMark   = regexp.MustCompile(`(?mi)^\s*MESSAGE:\s*`)
	outcomeLn = regexp.MustCompile(`(?mi)^\s*OUTCOME:\s*(.+)$`)
	replyMark = regexp.MustCompile(`(?mi)^\s*REPLY:\s*`)
)

// splitSections locates each strategy's block by its marker token. A strategy
// that appears more than once keeps its first block.
func splitSections(raw string) map[Strategy]string {
	out := make(map[Strategy]string, len(Strategies))
	locs := sectionRe.FindAllStringSubmatchIndex(raw, -1)
	for i, loc := range locs {
		tag := Strategy(strings.ToLower(raw[loc[2]:loc[3]]))
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, seen := out[tag]; !seen {
			out[tag] = strings.TrimSpace(raw[loc[1]:end])
		}
	}
	return out
}

// parseSection extracts one proposal from its section text. ok is false when
// the section lacks a recognizable price or a message body.
func parseSection(s Strategy, section string) (Proposal, bool) {
	p := Proposal{Strategy: s}

	if m := priceLine.FindString(section); m != "" {
		p.Price = extractPrice(m)
	}
	if p.Price == 0 {
		// fall back to the first recognizable currency pattern anywhere
		p.Price = extractPrice(section)
	}

	if m := termsLine.FindStringSubmatch(section); m != nil {
		for _, t := range strings.Split(m[1], ";") {
			if t = strings.TrimSpace(t); t != "" {
				p.Terms = append(p.Terms, t)
			}
		}
	}

	if loc := msgMark.FindStringIndex(section); loc != nil {
		p.Message = strings.TrimSpace(section[loc[1]:])
	} else {
		// no MESSAGE marker: treat everything except the field lines as body
		body := priceLine.ReplaceAllString(section, "")
		body = termsLine.ReplaceAllString(body, "")
		p.Message = strings.TrimSpace(body)
	}

	return p, p.Price > 0 && p.Message != ""
}

// extractPrice returns the first currency amount in the text, or 0.
func extractPrice(text string) float64 {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// Outcome vocabulary: checked in order, first hit wins.
var outcomeWords = []struct {
	word    string
	outcome Outcome
}{
	{"accepted", OutcomeAccepted},
	{"accept", OutcomeAccepted},
	{"agreed", OutcomeAccepted},
	{"agree", OutcomeAccepted},
	{"rejected", OutcomeRejected},
	{"reject", OutcomeRejected},
	{"declined", OutcomeRejected},
	{"decline", OutcomeRejected},
	{"refuse", OutcomeRejected},
	{"countered", OutcomeCountered},
	{"counter", OutcomeCountered},
	{"revised", OutcomeCountered},
	{"compromise", OutcomeCountered},
}

func matchOutcome(text string) (Outcome, bool) {
	lower := strings.ToLower(text)
	for _, w := range outcomeWords {
		if strings.Contains(lower, w.word) {
			return w.outcome, true
		}
	}
	return OutcomeCountered, false
}

// parseSimulation turns raw role-play output into a VendorSimulation. It
// never fails: unrecognized vocabulary degrades to countered with the literal
// reply preserved, and empty output degrades to a deterministic fallback.
func parseSimulation(raw string, nc Context) VendorSimulation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		reply, price := fallbackReply(nc)
		return VendorSimulation{
			Outcome:      OutcomeCountered,
			CounterPrice: price,
			Reply:        reply,
			Degraded:     true,
		}
	}

	sim := VendorSimulation{Outcome: OutcomeCountered}

	recognized := false
	if m := outcomeLn.FindStringSubmatch(raw); m != nil {
		sim.Outcome, recognized = matchOutcome(m[1])
	}
	if !recognized {
		sim.Outcome, recognized = matchOutcome(raw)
	}
	sim.Degraded = !recognized

	if loc := replyMark.FindStringIndex(raw); loc != nil {
		sim.Reply = strings.TrimSpace(raw[loc[1]:])
	} else {
		sim.Reply = raw
	}
	if sim.Reply == "" {
		sim.Reply = raw
	}

	if sim.Outcome == OutcomeCountered {
		sim.CounterPrice = extractPrice(raw)
	}
	return sim
}
