package core

// bodyParts translates the location codes sent by the body-map UI into
// anatomical phrases the model handles better than snake_case ids.
var bodyParts = map[string]string{
	"left_elbow":    "left elbow (lateral epicondyle)",
	"right_knee":    "right knee (patellar region)",
	"left_shoulder": "left shoulder (glenohumeral joint)",
	"upper_arm":     "upper arm (biceps/triceps region)",
}

// BodyPartLabel returns the descriptive label for a location code.  Codes
// without an exact match are returned unchanged.
func BodyPartLabel(location string) string {
	if label, ok := bodyParts[location]; ok {
		return label
	}
	return location
}

// BodyPartCodes lists the location codes with a known label.
func BodyPartCodes() []string {
	codes := make([]string, 0, len(bodyParts))
	for code := range bodyParts {
		codes = append(codes, code)
	}
	return codes
}
