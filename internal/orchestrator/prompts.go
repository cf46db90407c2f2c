package orchestrator

import (
	"fmt"

	"venturelens/internal/store"
)

// systemInstruction tailors every generation request to the session's
// declared audience and brand voice.
func systemInstruction(session store.SessionState) string {
	instruction := "You are a world-class market analyst, business strategist, and content creator AI. " +
		"Your analysis is sharp, data-driven, and actionable. You perform deep, step-by-step research " +
		"before providing answers and give clear, concise, professional advice."

	if session.TargetAudience != "" {
		instruction += fmt.Sprintf("\n\nThe user's target audience is: %q. Tailor all recommendations, content, and strategies to this audience.", session.TargetAudience)
	}
	if session.BrandVoice != "" {
		instruction += fmt.Sprintf("\n\nCRITICAL: Adopt the user's brand voice. A description or sample of their writing style: \"\"\"%s\"\"\"", session.BrandVoice)
	}
	return instruction
}

// reportSpec describes one report domain's workflow: whether it is
// driven by a free-text query, its prompt, and its fallback failure
// message.
type reportSpec struct {
	needsQuery   bool
	defaultTitle string
	fallbackErr  string
	prompt       func(session store.SessionState, query string) string
}

var reportSpecs = map[store.Domain]reportSpec{
	store.DomainTrends: {
		defaultTitle: "Market Trend",
		fallbackErr:  "The market analysis could not be completed at this time.",
		prompt: func(s store.SessionState, _ string) string {
			return fmt.Sprintf(`Act as a world-class market researcher. Perform a deep research analysis for the niche %q, with the user's goal being %q. Use web search to scan the niche, then select 5 to 7 of the most promising sub-trends or opportunities and analyze each in depth. Format your entire response as an array of JSON objects inside a single `+"```json"+` markdown block. Each object MUST have the keys: "id", "title", "description", "audience" (object with "targetDemographics" and "keyInterests" arrays), "seoKeywords" (array), "monetizationStrategies" (array of objects with "strategy" and "description"), and "competitorAnalysis" (array of objects with "name", "url", "strengths", "weaknesses").`, s.Niche, s.Purpose)
		},
	},
	store.DomainKeywords: {
		defaultTitle: "Keyword Analysis",
		fallbackErr:  "Keyword analysis failed to generate a response.",
		prompt: func(s store.SessionState, _ string) string {
			return fmt.Sprintf(`Act as an expert SEO strategist. Perform a deep keyword analysis for the niche %q grounded in up-to-date search trend data. Cluster topics, then select 5 to 7 valuable keyword clusters. Format the response as an array of JSON objects inside a `+"```json"+` markdown block, each with keys: "id", "title", "description", "metrics" (object with "keyword", "volume", "difficulty", "cpc"), and "longTailKeywords" (array of objects with the same metrics shape).`, s.Niche)
		},
	},
	store.DomainMarketplaces: {
		defaultTitle: "Platform Analysis",
		fallbackErr:  "The platform finder could not retrieve results.",
		prompt: func(s store.SessionState, _ string) string {
			return fmt.Sprintf(`Act as a specialist in e-commerce and platform strategy. Research potential marketplaces for the niche %q, select 5 to 7 viable platforms and analyze audience, fees, competition and unique features for each. Respond with an array of JSON objects in a single `+"```json"+` markdown block, each with keys: "id", "title", "description", "opportunityScore" (0-100), "reasoning", "pros", "cons".`, s.Niche)
		},
	},
	store.DomainContent: {
		needsQuery:   true,
		defaultTitle: "Content Idea",
		fallbackErr:  "Content ideas could not be generated.",
		prompt: func(_ store.SessionState, query string) string {
			return fmt.Sprintf(`Act as a world-class content strategist AI. Research trending topics, common questions and popular formats for the topic %q, then select 5 to 7 diverse, high-potential content ideas. Respond with an array of JSON objects in a single `+"```json"+` markdown block, each with keys: "id", "title", "description", "format", "talkingPoints", "seoKeywords".`, query)
		},
	},
	store.DomainSocials: {
		defaultTitle: "Social Media Strategy",
		fallbackErr:  "The social media analysis failed.",
		prompt: func(s store.SessionState, _ string) string {
			return fmt.Sprintf(`Act as an expert social media strategist. Research which social platforms matter for the niche %q (user goal: %q) and build a content plan of 5 to 7 individual posts across platforms and post types. Respond with a single JSON object inside a `+"```json"+` markdown block with keys "id", "title", "description", and "platformAnalysis": an array of post objects, each with keys "id" (a unique UUID), "platform", "postType", "content", "hashtags" (array of strings), and "rationale".`, s.Niche, s.Purpose)
		},
	},
	store.DomainCopy: {
		defaultTitle: "Marketing Copy",
		fallbackErr:  "Failed to generate marketing copy.",
		prompt: func(s store.SessionState, _ string) string {
			return fmt.Sprintf(`Act as an expert direct response copywriter. Research competitor ads, customer reviews and forum discussions for the niche %q (goal: %q), then create 5 to 7 distinct pieces of marketing copy across copy types. Respond with an array of JSON objects in a single `+"```json"+` markdown block, each with keys: "id", "title", "description", "copyType", "headlines", "body", "callToAction".`, s.Niche, s.Purpose)
		},
	},
	store.DomainArbitrage: {
		needsQuery:   true,
		defaultTitle: "Arbitrage Plan",
		fallbackErr:  "The arbitrage analysis could not be completed.",
		prompt: func(_ store.SessionState, query string) string {
			return fmt.Sprintf(`Act as a master sales arbitrage expert. For the product query %q, research buy-low and sell-high platforms and develop 5 to 7 distinct arbitrage strategies. Respond with an array of JSON objects in a single `+"```json"+` markdown block, each with keys: "id", "title", "description", "platform", "productStory", "pricingStrategy" (object with "buyLow", "sellHigh", "reasoning"), "marketingAngles" (array of objects with "headline", "body", "platform"), "tagsAndKeywords", "dueDiligence".`, query)
		},
	},
	store.DomainScenarios: {
		needsQuery:   true,
		defaultTitle: "Scenario Plan",
		fallbackErr:  "The strategic simulation could not be completed.",
		prompt: func(s store.SessionState, query string) string {
			return fmt.Sprintf(`Act as an expert strategic planner. For the business goal %q in the niche %q, identify relevant challenges, opportunities and market forces, then develop 5 to 7 plausible strategic scenarios. Respond with an array of JSON objects in a single `+"```json"+` markdown block, each with keys: "id", "title", "description", "actionPlan" (array of objects with "step", "title", "description"), "potentialRisks", "opportunities", "kpis".`, query, s.Niche)
		},
	},
}

func visionsPrompt(s store.SessionState) string {
	return fmt.Sprintf(`Act as an innovative venture capitalist and market analyst. Research emerging technologies, shifting consumer behaviors and underserved segments related to the niche %q, then generate 5 to 7 diverse and innovative venture ideas. Respond with an array of JSON objects in a single `+"```json"+` markdown block, each with keys: "id", "title", "oneLinePitch", "businessModel", "evidenceTag".`, s.Niche)
}

func blueprintPrompt(vision store.VentureVision) string {
	return fmt.Sprintf(`Act as a seasoned business consultant. Create a detailed, actionable business blueprint for the venture idea titled %q with the pitch %q. Research competitor strategies, suppliers and marketing channels, then respond with a single JSON object inside a `+"```json"+` markdown block with keys: "prophecyTitle", "summary", "targetAudience", "marketingPlan" (object with "contentPillars", "promotionChannels", "uniqueSellingProposition"), "sourcingAndOperations", "firstThreeSteps".`, vision.Title, vision.OneLinePitch)
}

func comparisonPrompt(cardsJSON string) string {
	return fmt.Sprintf(`Act as a senior business intelligence analyst. Perform a deep comparative analysis of the following reports:

`+"```json"+`
%s
`+"```"+`

Identify overarching themes, validate them against external data, and respond with a single JSON object inside a `+"```json"+` markdown block containing: "title", "summary", 5 key "similarities", 5 key "differences", and 5 critical "strategicImplications".`, cardsJSON)
}

func qnaPrompt(contextJSON, question string) string {
	return fmt.Sprintf(`Based on the following JSON data context, answer the user's question with a concise, insightful answer.

Context:
`+"```json"+`
%s
`+"```"+`

Question: %q`, contextJSON, question)
}

func regeneratePrompt(niche string, original socialPost, newPostType string) string {
	return fmt.Sprintf(`You are an expert social media strategist. Write a completely new social media post.

Requirements:
- Platform: %s
- Niche: %q
- Post type: %q (the post MUST be this type)

Inspiration from a previous post (do not copy it, reimagine it for the new type): %q

Your entire output must be a single JSON object conforming to the provided schema. The "postType" field MUST be exactly %q and the "id" field MUST be exactly %q.`,
		original.Platform, niche, newPostType, original.Content, newPostType, original.ID)
}
