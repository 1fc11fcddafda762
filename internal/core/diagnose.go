package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"pain-diagnosis/internal/llm"
	"pain-diagnosis/pkg"
)

var (
	// ErrMissingAPIKey means the server was started without an upstream
	// credential.
	ErrMissingAPIKey = errors.New("API key missing")
	// ErrMissingLocation means the request had no usable location.
	ErrMissingLocation = errors.New("'location' is required")
	// ErrEmptyResponse means the upstream call succeeded but carried no
	// text.
	ErrEmptyResponse = errors.New("empty response from API")
)

// DiagnosisService turns a symptom description into a diagnosis by asking
// the completion API.  It holds no per-request state and is safe for
// concurrent use.
type DiagnosisService struct {
	LLM       llm.Client
	Profile   *PromptProfile
	hasAPIKey bool
}

// NewDiagnosisService constructs a DiagnosisService.  hasAPIKey is checked
// on every call so a misconfigured server fails requests instead of
// refusing to start.
func NewDiagnosisService(client llm.Client, profile *PromptProfile, hasAPIKey bool) *DiagnosisService {
	return &DiagnosisService{LLM: client, Profile: profile, hasAPIKey: hasAPIKey}
}

// Diagnose validates req, renders the prompt, calls the model once and
// parses the reply.  A reply that is not the expected JSON is not an
// error: the returned Outcome is a fallback.  req may be nil when the
// caller could not decode a body.
func (s *DiagnosisService) Diagnose(ctx context.Context, req *pkg.DiagnosisRequest) (Outcome, error) {
	ctx, span := otel.Tracer("pain-diagnosis/core").Start(ctx, "core.Diagnose")
	defer span.End()
	log := zerolog.Ctx(ctx)

	if !s.hasAPIKey {
		log.Error().Msg("OPENROUTER_API_KEY is not set")
		span.SetStatus(codes.Error, ErrMissingAPIKey.Error())
		return Outcome{}, ErrMissingAPIKey
	}
	if req == nil || strings.TrimSpace(req.Location) == "" {
		log.Warn().Interface("request", req).Msg("invalid diagnosis request")
		return Outcome{}, ErrMissingLocation
	}

	bodyPart := BodyPartLabel(req.Location)
	log.Debug().Str("body_part", bodyPart).Msg("processing diagnosis")
	span.SetAttributes(
		attribute.String("diagnosis.location", req.Location),
		attribute.String("diagnosis.profile", s.Profile.Name),
	)

	prompt, err := s.Profile.RenderPrompt(*req)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}

	text, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		Prompt:    prompt,
		MaxTokens: s.Profile.MaxTokens,
	})
	if err != nil {
		log.Error().Err(err).Msg("completion request failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return Outcome{}, fmt.Errorf("complete: %w", err)
	}
	if text == "" {
		log.Error().Msg("empty completion from upstream")
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		return Outcome{}, ErrEmptyResponse
	}
	log.Debug().Str("completion", text).Msg("completion received")

	out := ParseCompletion(text)
	span.SetAttributes(attribute.Bool("diagnosis.structured", out.Structured()))
	if !out.Structured() {
		log.Warn().Str("reason", out.Reason).Msg("model reply was not structured, using fallback")
	}
	return out, nil
}
