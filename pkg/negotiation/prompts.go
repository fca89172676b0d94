package negotiation

import (
	"fmt"
	"strings"
)

// Prompt text for the agent. The section markers below are a contract with
// the parser: templates must keep them exactly as the parser expects.

const systemPrompt = `You are an expert negotiation consultant with 20+ years of experience in B2B vendor negotiations.

Your expertise includes:
- SaaS and technology service negotiations
- Understanding vendor psychology and business pressures
- Crafting persuasive yet respectful communication
- Balancing relationship preservation with cost savings
- Recognizing negotiation leverage and timing

Follow the requested output format exactly. Do not add prose outside the requested sections.`

const vendorSystemPrompt = `You are simulating a vendor's response to a negotiation. Be realistic and consider business factors: margins, retention value, competitive pressure, relationship length and quarter-end pressures. Follow the requested output format exactly.`

// sectionMarker prefixes each strategy block in the model output.
const sectionMarker = "### STRATEGY:"

// strictFormatNote is appended on the single regeneration attempt after a
// parse failure.
const strictFormatNote = `IMPORTANT: Follow the output format EXACTLY. Emit all three "### STRATEGY:" sections (polite, firm, term_swap), each with a "PRICE:" line containing a dollar amount and a "MESSAGE:" block. No text outside the sections.`

var strategyBriefs = map[Strategy]string{
	StrategyPolite:   "collaborative and relationship-preserving; a warm counter-offer that emphasizes partnership",
	StrategyFirm:     "direct and leverage-driven; cites market rates and a firm budget ceiling with a clear deadline",
	StrategyTermSwap: "keeps or slightly moves the price but trades non-price terms (longer commitment, case study, referrals, payment terms)",
}

// proposalPrompt renders the single user prompt that requests all three
// strategy sections in one call.
func proposalPrompt(nc Context) string {
	var b strings.Builder
	b.WriteString("Analyze this negotiation scenario and draft one counter-offer per strategy.\n\n")
	b.WriteString("<context>\n")
	fmt.Fprintf(&b, "  <vendor_message>%s</vendor_message>\n", nc.VendorMessage)
	fmt.Fprintf(&b, "  <current_price>$%.2f/%s</current_price>\n", nc.CurrentPrice, nc.PricePeriod.Unit())
	fmt.Fprintf(&b, "  <target_price>$%.2f/%s</target_price>\n", nc.TargetPrice, nc.PricePeriod.Unit())
	fmt.Fprintf(&b, "  <service_type>%s</service_type>\n", nc.ServiceType)
	fmt.Fprintf(&b, "  <relationship_length>%s</relationship_length>\n", nc.Relationship)
	b.WriteString("</context>\n\n")
	b.WriteString("Strategies:\n")
	for _, s := range Strategies {
		fmt.Fprintf(&b, "- %s: %s\n", s, strategyBriefs[s])
	}
	b.WriteString(`
Output format, repeated for each strategy in the order polite, firm, term_swap:

### STRATEGY: <strategy name>
PRICE: $<proposed price as a number>
TERMS: <optional semicolon-separated non-price terms, omit the line if none>
MESSAGE:
<the full counter-offer message to send the vendor, max 140 words, no invented facts>
`)
	return b.String()
}

// simulationPrompt asks the model to role-play the vendor reacting to one
// chosen proposal.
func simulationPrompt(nc Context, p Proposal) string {
	var b strings.Builder
	b.WriteString("Role-play the vendor replying to this customer counter-offer.\n\n")
	b.WriteString("<context>\n")
	fmt.Fprintf(&b, "  <vendor_message>%s</vendor_message>\n", nc.VendorMessage)
	fmt.Fprintf(&b, "  <customer_proposal>%s</customer_proposal>\n", p.Message)
	fmt.Fprintf(&b, "  <original_price>$%.2f/%s</original_price>\n", nc.CurrentPrice, nc.PricePeriod.Unit())
	fmt.Fprintf(&b, "  <target_price>$%.2f/%s</target_price>\n", nc.TargetPrice, nc.PricePeriod.Unit())
	fmt.Fprintf(&b, "  <service_type>%s</service_type>\n", nc.ServiceType)
	fmt.Fprintf(&b, "  <relationship_length>%s</relationship_length>\n", nc.Relationship)
	b.WriteString("</context>\n\n")
	b.WriteString(`Be realistic: vendors typically concede 15-35% of the requested discount on the first reply.

Output format:

OUTCOME: <one of: accepted, countered, rejected>
PRICE: $<the price the vendor offers, if countering>
REPLY:
<the vendor's email reply>
`)
	return b.String()
}

// fallbackMessages fill in a proposal when the model output stays unparseable
// after the strict regeneration. Keyed by strategy, parameterized by context.
func fallbackMessage(s Strategy, nc Context) string {
	price := fmt.Sprintf("$%.2f/%s", nc.TargetPrice, nc.PricePeriod.Unit())
	switch s {
	case StrategyFirm:
		return fmt.Sprintf("I've received your renewal quote. Based on our research of current market rates and competitive offerings, we have budget approval for %s for this service. Please let me know if you can match this rate.", price)
	case StrategyTermSwap:
		return fmt.Sprintf("Thanks for the renewal information. Instead of the standard terms, would you consider a longer commitment, a case study, or other value-adds in exchange for a rate around %s? What creative options might work for both of us?", price)
	default:
		return fmt.Sprintf("Thank you for the renewal information. We've really valued our partnership. Given our current budget planning and the competitive landscape, I was wondering if there might be some flexibility in the pricing, around %s. I'd love to discuss options that work for both of us.", price)
	}
}

// fallbackReply stands in for an unusable vendor simulation: a deterministic
// mid-range concession.
func fallbackReply(nc Context) (string, float64) {
	concession := (nc.CurrentPrice - nc.TargetPrice) / 2
	price := nc.CurrentPrice - concession
	reply := fmt.Sprintf("Thank you for your proposal. After reviewing our options, we can offer a revised rate of $%.2f/%s. This reflects our commitment to our partnership while maintaining our service quality standards.", price, nc.PricePeriod.Unit())
	return reply, price
}
