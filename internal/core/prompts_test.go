package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pain-diagnosis/pkg"
)

func TestBodyPartLabel(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"left_elbow", "left elbow (lateral epicondyle)"},
		{"right_knee", "right knee (patellar region)"},
		{"left_shoulder", "left shoulder (glenohumeral joint)"},
		{"upper_arm", "upper arm (biceps/triceps region)"},
		{"lower_back", "lower_back"},
		{"Left_Elbow", "Left_Elbow"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BodyPartLabel(tt.code), "code %q", tt.code)
	}
}

func TestRenderPrompt_KnownCodesUseLabel(t *testing.T) {
	for _, name := range []string{"detailed", "concise"} {
		profile, err := Profile(name)
		require.NoError(t, err)

		for _, code := range BodyPartCodes() {
			prompt, err := profile.RenderPrompt(pkg.DiagnosisRequest{Location: code})
			require.NoError(t, err)
			assert.Contains(t, prompt, "Pain location: "+BodyPartLabel(code), "profile %s", name)
			assert.NotContains(t, prompt, code, "profile %s leaked raw code", name)
		}
	}
}

func TestRenderPrompt_UnknownCodePassesThrough(t *testing.T) {
	profile, err := Profile("detailed")
	require.NoError(t, err)

	prompt, err := profile.RenderPrompt(pkg.DiagnosisRequest{Location: "lower_back"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Pain location: lower_back")
}

func TestRenderPrompt_Defaults(t *testing.T) {
	profile, err := Profile("detailed")
	require.NoError(t, err)

	prompt, err := profile.RenderPrompt(pkg.DiagnosisRequest{Location: "left_elbow", Additional: "   "})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Pain type: unspecified")
	assert.Contains(t, prompt, "Duration: unknown")
	assert.Contains(t, prompt, "Additional symptoms: none")
	assert.Contains(t, prompt, "Extra details: none")
}

func TestRenderPrompt_AllFields(t *testing.T) {
	profile, err := Profile("concise")
	require.NoError(t, err)

	prompt, err := profile.RenderPrompt(pkg.DiagnosisRequest{
		Location:     "right_knee",
		PainType:     "sharp",
		Duration:     "2 days",
		Additional:   "swelling",
		ExtraDetails: "after running <5km>",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Pain type: sharp")
	assert.Contains(t, prompt, "Duration: 2 days")
	assert.Contains(t, prompt, "Additional symptoms: swelling")
	assert.Contains(t, prompt, "Extra details: after running <5km>")
	assert.Contains(t, prompt, `"diagnosis"`)
	assert.Contains(t, prompt, `"recommendations"`)
}

func TestProfile(t *testing.T) {
	detailed, err := Profile("detailed")
	require.NoError(t, err)
	assert.Equal(t, 500, detailed.MaxTokens)

	concise, err := Profile("concise")
	require.NoError(t, err)
	assert.Equal(t, 300, concise.MaxTokens)

	_, err = Profile("verbose")
	assert.Error(t, err)
}
