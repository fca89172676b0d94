package negotiation

import (
	"context"
	"log"
	"strings"

	"github.com/haggleops/haggle/pkg/llm"
)

// Agent turns a negotiation context into structured counter-offer proposals
// and vendor-reply simulations. It is stateless: every call is independent
// and the caller supplies the chosen proposal explicitly.
type Agent struct {
	gen llm.TextGenerator
}

func NewAgent(gen llm.TextGenerator) *Agent {
	return &Agent{gen: gen}
}

// GenerateProposals asks the model for all three strategy sections in one
// call and parses them into a ProposalSet. Engine errors propagate unchanged;
// parse trouble never fails the call. A strategy whose section stays
// unparseable after one stricter regeneration is synthesized as a flagged
// fallback: tag present, price = target price, body = the raw section text
// when one was found.
func (a *Agent) GenerateProposals(ctx context.Context, nc Context) (ProposalSet, error) {
	prompt := proposalPrompt(nc)
	raw, err := a.gen.Generate(ctx, systemPrompt, prompt, llm.Options{Temperature: 0.65, MaxTokens: 2000})
	if err != nil {
		return ProposalSet{}, err
	}

	sections := splitSections(raw)
	parsed := make(map[Strategy]Proposal, len(Strategies))
	allOK := true
	for _, s := range Strategies {
		p, ok := parseSection(s, sections[s])
		if ok {
			parsed[s] = p
		} else {
			allOK = false
		}
	}

	if !allOK {
		// Single regeneration with stricter formatting instructions.
		raw2, err2 := a.gen.Generate(ctx, systemPrompt, prompt+"\n\n"+strictFormatNote, llm.Options{Temperature: 0.6, MaxTokens: 2000})
		if err2 != nil {
			// The first call already produced output to degrade from.
			log.Printf("proposal regeneration failed, degrading: %v", err2)
		} else {
			sections2 := splitSections(raw2)
			for _, s := range Strategies {
				if _, ok := parsed[s]; ok {
					continue
				}
				if p, ok := parseSection(s, sections2[s]); ok {
					parsed[s] = p
				} else if _, found := sections[s]; !found {
					// prefer a section over nothing for the fallback body
					sections[s] = sections2[s]
				}
			}
			raw = raw + "\n\n--- regeneration ---\n\n" + raw2
		}
	}

	set := ProposalSet{Proposals: make([]Proposal, 0, len(Strategies)), Raw: raw}
	for _, s := range Strategies {
		p, ok := parsed[s]
		if !ok {
			p = fallbackProposal(s, nc, sections[s])
			set.Degraded = true
		}
		set.Proposals = append(set.Proposals, p)
	}
	return set, nil
}

// fallbackProposal keeps the pipeline usable when parsing fails for good:
// target price as the ask, the unparsed section text as the body when there
// is one, a strategy template otherwise.
func fallbackProposal(s Strategy, nc Context, rawSection string) Proposal {
	msg := strings.TrimSpace(rawSection)
	if msg == "" {
		msg = fallbackMessage(s, nc)
	}
	return Proposal{
		Strategy: s,
		Price:    nc.TargetPrice,
		Message:  msg,
		Degraded: true,
	}
}

// SimulateVendorResponse role-plays the vendor reacting to one chosen
// proposal. The simulation is advisory: ambiguous output degrades to the
// conservative countered category instead of erroring.
func (a *Agent) SimulateVendorResponse(ctx context.Context, nc Context, p Proposal) (VendorSimulation, error) {
	raw, err := a.gen.Generate(ctx, vendorSystemPrompt, simulationPrompt(nc, p), llm.Options{Temperature: 0.5, MaxTokens: 1200})
	if err != nil {
		return VendorSimulation{}, err
	}
	return parseSimulation(raw, nc), nil
}
