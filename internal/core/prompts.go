package core

// prompts.go defines the prompt profiles used to ask the model for a
// diagnosis.  Keeping the wording here makes it easy to tweak without
// touching the request flow.

import (
	"fmt"
	"strings"
	"text/template"

	"pain-diagnosis/pkg"
)

// PromptProfile pairs a prompt template with the token budget the model is
// given to answer it.  One profile is selected at startup.
type PromptProfile struct {
	Name      string
	MaxTokens int
	tmpl      *template.Template
}

// promptData is what the templates see.  Missing request fields have
// already been replaced with their placeholder words.
type promptData struct {
	BodyPart     string
	PainType     string
	Duration     string
	Additional   string
	ExtraDetails string
}

const detailedPrompt = `
You are a medical expert asked to give a careful, accurate diagnosis from the following patient report:
- Pain location: {{.BodyPart}}
- Pain type: {{.PainType}}
- Duration: {{.Duration}}
- Additional symptoms: {{.Additional}}
- Extra details: {{.ExtraDetails}}

Instructions:
- Weigh every detail above (location, type, duration, additional symptoms, extra details) before deciding.
- Keep the diagnosis anatomically consistent with the pain location. For example:
  - Pain in the upper arm (biceps/triceps region) points to muscle strain, tendinitis or overuse injury. Do NOT suggest shoulder conditions such as shoulder bursitis unless the location is the shoulder.
  - Pain in the left elbow points to lateral epicondylitis (tennis elbow) or medial epicondylitis (golfer's elbow).
- List possible diagnoses from MOST LIKELY to LEAST LIKELY and number each one (1. Condition A, 2. Condition B).
- Give practical recommendations for each diagnosis that a non-medical reader can follow safely.

Example:
- Input: dull pain in the upper arm for 2 days, no additional symptoms.
- Output:
  - Diagnosis: "1. Muscle strain, 2. Biceps tendinitis"
  - Recommendations: "For Muscle strain: rest the arm, apply ice for 15 minutes every few hours and avoid heavy lifting. For Biceps tendinitis: rest, apply heat and start gentle stretching after a few days."

Reply with JSON only, in exactly this shape:
{
  "diagnosis": "1. [most likely condition], 2. [next most likely condition], ...",
  "recommendations": "For [condition 1]: [steps]. For [condition 2]: [steps]. ..."
}
`

const concisePrompt = `
You are a medical expert. A patient reports:
- Pain location: {{.BodyPart}}
- Pain type: {{.PainType}}
- Duration: {{.Duration}}
- Additional symptoms: {{.Additional}}
- Extra details: {{.ExtraDetails}}

Give the most likely diagnosis for this location and short, safe recommendations for a general audience.
Reply with JSON only: {"diagnosis": "...", "recommendations": "..."}
`

var profiles = map[string]*PromptProfile{
	"detailed": {
		Name:      "detailed",
		MaxTokens: 500,
		tmpl:      template.Must(template.New("detailed").Parse(detailedPrompt)),
	},
	"concise": {
		Name:      "concise",
		MaxTokens: 300,
		tmpl:      template.Must(template.New("concise").Parse(concisePrompt)),
	},
}

// Profile looks up a prompt profile by name.
func Profile(name string) (*PromptProfile, error) {
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown prompt profile %q", name)
	}
	return p, nil
}

// RenderPrompt fills the profile's template with the request.  The location
// is translated through the body-part map; empty optional fields become
// "unspecified", "unknown" or "none".
func (p *PromptProfile) RenderPrompt(req pkg.DiagnosisRequest) (string, error) {
	data := promptData{
		BodyPart:     BodyPartLabel(req.Location),
		PainType:     orDefault(req.PainType, "unspecified"),
		Duration:     orDefault(req.Duration, "unknown"),
		Additional:   orDefault(req.Additional, "none"),
		ExtraDetails: orDefault(req.ExtraDetails, "none"),
	}
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", p.Name, err)
	}
	return sb.String(), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
