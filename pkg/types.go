package pkg

// DiagnosisRequest is the JSON body accepted by POST /diagnose.  Only
// Location is required; the remaining fields are free text collected by
// the body-map UI and may be left empty.
type DiagnosisRequest struct {
	Location     string `json:"location"`
	PainType     string `json:"painType,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Additional   string `json:"additional,omitempty"`
	ExtraDetails string `json:"extraDetails,omitempty"`
}

// DiagnosisResult is what the caller receives on success.  Both fields are
// always populated, either from the model or from the fallback values.
type DiagnosisResult struct {
	Diagnosis       string `json:"diagnosis"`
	Recommendations string `json:"recommendations"`
}

// Feedback is a user's rating of a diagnosis they received.  It is logged
// and never stored.
type Feedback struct {
	Usefulness int    `json:"usefulness"`
	Accuracy   int    `json:"accuracy"`
	Comments   string `json:"comments"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
