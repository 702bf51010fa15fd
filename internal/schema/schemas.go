package schema

// Analysis validates the JSON object returned by the LLM analyzer.
var Analysis = New("analysis", analysisSchema())

// DocumentRequest validates the analyze-document body shape.
var DocumentRequest = New("document-request", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"fileName": map[string]any{"type": "string", "maxLength": 255},
		"text":     map[string]any{"type": "string"},
	},
})

// IdeaRequest validates the analyze-idea body shape.
var IdeaRequest = New("idea-request", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"businessIdea":         stringProp(5000),
		"targetMarket":         stringProp(1000),
		"businessModel":        stringProp(1000),
		"teamSize":             map[string]any{"type": []any{"string", "number"}},
		"teamExperience":       stringProp(2000),
		"competitiveAdvantage": stringProp(2000),
		"fundingNeeds":         map[string]any{"type": []any{"string", "number"}},
		"timeline":             stringProp(500),
		"additionalInfo":       stringProp(5000),
	},
})

// TeamProfileRequest validates the team-profile upsert body shape.
var TeamProfileRequest = New("team-profile-request", map[string]any{
	"type":     "object",
	"required": []any{"name"},
	"properties": map[string]any{
		"name":             map[string]any{"type": "string", "minLength": 1, "maxLength": 120},
		"bio":              stringProp(2000),
		"skills":           stringArray(30),
		"industry_focus":   stringArray(15),
		"role":             stringProp(80),
		"looking_for":      stringProp(500),
		"location":         stringProp(120),
		"experience_years": map[string]any{"type": "integer", "minimum": 0, "maximum": 70},
		"availability":     stringProp(80),
		"linkedin_url":     stringProp(300),
	},
})

func analysisSchema() map[string]any {
	score := map[string]any{"type": "integer", "minimum": 0, "maximum": 100}
	strList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return map[string]any{
		"type":     "object",
		"required": []any{"overall_score", "scores", "summary", "strengths", "weaknesses", "recommendations"},
		"properties": map[string]any{
			"overall_score": score,
			"scores": map[string]any{
				"type": "object",
				"required": []any{
					"market", "business_model", "team", "competition", "funding", "timeline",
				},
				"properties": map[string]any{
					"market":         score,
					"business_model": score,
					"team":           score,
					"competition":    score,
					"funding":        score,
					"timeline":       score,
					"innovation":     score,
				},
			},
			"summary":              map[string]any{"type": "string", "minLength": 1},
			"strengths":            strList,
			"weaknesses":           strList,
			"recommendations":      strList,
			"next_steps":           strList,
			"market_analysis":      map[string]any{"type": "string"},
			"competitive_analysis": map[string]any{"type": "string"},
			"missing_areas":        strList,
			"completeness_score":   score,
			"valuation": map[string]any{
				"type":     "object",
				"required": []any{"min", "max"},
				"properties": map[string]any{
					"min":      map[string]any{"type": "integer", "minimum": 0},
					"max":      map[string]any{"type": "integer", "minimum": 0},
					"currency": map[string]any{"type": "string"},
					"method":   map[string]any{"type": "string"},
				},
			},
		},
	}
}

func stringProp(maxLen int) map[string]any {
	return map[string]any{"type": "string", "maxLength": maxLen}
}

func stringArray(maxItems int) map[string]any {
	return map[string]any{
		"type":     "array",
		"maxItems": maxItems,
		"items":    map[string]any{"type": "string", "maxLength": 80},
	}
}
