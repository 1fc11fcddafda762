package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"pain-diagnosis/pkg"
)

const (
	// FallbackDiagnosis is used when the model returned only whitespace.
	FallbackDiagnosis = "Unable to parse diagnosis"
	// FallbackRecommendations accompanies every fallback result.
	FallbackRecommendations = "Consult a healthcare professional for personalized advice."
)

// Outcome is the parsed form of a model reply.  A structured outcome carries
// the model's JSON object so it can be relayed as-is; a fallback outcome
// carries the raw text as the diagnosis and the advisory recommendation.
// Both kinds are successful results.
type Outcome struct {
	Result pkg.DiagnosisResult
	// Raw is the compacted JSON object for structured outcomes, nil for
	// fallbacks.
	Raw json.RawMessage
	// Reason says why the reply fell back.  Empty for structured outcomes.
	Reason string
}

// Structured reports whether the model reply was valid JSON of the
// expected shape.
func (o Outcome) Structured() bool {
	return o.Raw != nil
}

// Body returns the JSON that should be sent to the caller.
func (o Outcome) Body() ([]byte, error) {
	if o.Structured() {
		return o.Raw, nil
	}
	return json.Marshal(o.Result)
}

// ParseCompletion turns model text into an Outcome.  The text must decode to
// a JSON object holding both "diagnosis" and "recommendations"; anything
// else, including JSON wrapped in a Markdown code fence, becomes a fallback.
func ParseCompletion(text string) Outcome {
	candidate := strings.TrimSpace(text)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return fallback(text, "invalid json: "+err.Error())
	}
	// "null" decodes into a nil map without error.
	if obj == nil {
		return fallback(text, "invalid json structure: not an object")
	}
	diag, okDiag := obj["diagnosis"]
	recs, okRecs := obj["recommendations"]
	if !okDiag || !okRecs {
		return fallback(text, "invalid json structure: missing diagnosis or recommendations")
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(candidate)); err != nil {
		return fallback(text, "invalid json: "+err.Error())
	}
	return Outcome{
		Result: pkg.DiagnosisResult{
			Diagnosis:       textValue(diag),
			Recommendations: textValue(recs),
		},
		Raw: compact.Bytes(),
	}
}

func fallback(text, reason string) Outcome {
	diagnosis := strings.TrimSpace(text)
	if diagnosis == "" {
		diagnosis = FallbackDiagnosis
	}
	return Outcome{
		Result: pkg.DiagnosisResult{
			Diagnosis:       diagnosis,
			Recommendations: FallbackRecommendations,
		},
		Reason: reason,
	}
}

// textValue renders a JSON value as text: strings are unquoted, anything
// else (lists, numbers) is kept as its JSON source.
func textValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
