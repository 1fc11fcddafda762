package http

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"pain-diagnosis/internal/core"
	"pain-diagnosis/internal/llm"
	"pain-diagnosis/pkg"
)

const maxFeedbackComments = 1000

// Diagnoser is the part of core.DiagnosisService the handlers use.
type Diagnoser interface {
	Diagnose(ctx context.Context, req *pkg.DiagnosisRequest) (core.Outcome, error)
}

// Options configures NewServer.
type Options struct {
	Diagnoser      Diagnoser
	Logger         zerolog.Logger
	CORSOrigins    []string
	FeedbackAPIKey string
	// Profile and Model are reported by /health.
	Profile string
	Model   string
}

// Server bundles the HTTP dependencies.  It implements http.Handler so it
// can be mounted directly or driven through httptest.
type Server struct {
	Diagnoser      Diagnoser
	FeedbackAPIKey string
	Profile        string
	Model          string
	Logger         zerolog.Logger

	echo *echo.Echo
}

// NewServer builds the echo instance, installs middleware and registers
// the routes.
func NewServer(opts Options) *Server {
	s := &Server{
		Diagnoser:      opts.Diagnoser,
		FeedbackAPIKey: opts.FeedbackAPIKey,
		Profile:        opts.Profile,
		Model:          opts.Model,
		Logger:         opts.Logger,
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(RequestID())
	e.Use(Logger(s.Logger))
	e.Use(Recovery(s.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, "X-API-Key", RequestIDHeader},
	}))

	e.POST("/diagnose", s.handleDiagnose)
	e.POST("/api/feedback", s.handleFeedback)
	e.GET("/health", s.handleHealth)

	s.echo = e
	return s
}

// ServeHTTP hands the request to echo.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleDiagnose serves POST /diagnose.  A body that is not a JSON object
// is treated like a body without a location.
func (s *Server) handleDiagnose(c echo.Context) error {
	req := decodeDiagnosisRequest(c.Request())

	out, err := s.Diagnoser.Diagnose(c.Request().Context(), req)
	if err != nil {
		return diagnosisError(err)
	}
	payload, err := out.Body()
	if err != nil {
		return fmt.Errorf("encode diagnosis: %w", err)
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// decodeDiagnosisRequest reads the body field by field so that a
// non-string value (a number, say) is used as its JSON text instead of
// failing the whole request.  It returns nil when the body is not a JSON
// object.
func decodeDiagnosisRequest(r *http.Request) *pkg.DiagnosisRequest {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil || fields == nil {
		return nil
	}
	return &pkg.DiagnosisRequest{
		Location:     fieldText(fields["location"]),
		PainType:     fieldText(fields["painType"]),
		Duration:     fieldText(fields["duration"]),
		Additional:   fieldText(fields["additional"]),
		ExtraDetails: fieldText(fields["extraDetails"]),
	}
}

// fieldText unquotes JSON strings, maps null or absent values to "" and
// keeps any other value as its compact JSON source.
func fieldText(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, v); err != nil {
		return string(v)
	}
	if compact.String() == "null" {
		return ""
	}
	return compact.String()
}

// diagnosisError maps service errors onto the response each one gets.
// Anything unrecognised falls through to handleError as a "Server error".
func diagnosisError(err error) error {
	var upErr *llm.UpstreamError
	switch {
	case errors.Is(err, core.ErrMissingLocation):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request: 'location' is required")
	case errors.Is(err, core.ErrMissingAPIKey):
		return echo.NewHTTPError(http.StatusInternalServerError, "Server configuration error: API key missing")
	case errors.As(err, &upErr):
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("OpenRouter API failed: %d %s", upErr.StatusCode, upErr.Body))
	case errors.Is(err, core.ErrEmptyResponse):
		return echo.NewHTTPError(http.StatusInternalServerError, "Empty response from API")
	default:
		return err
	}
}

// handleFeedback serves POST /api/feedback.  Feedback is only logged.
func (s *Server) handleFeedback(c echo.Context) error {
	if s.FeedbackAPIKey != "" {
		got := c.Request().Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.FeedbackAPIKey)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
	}

	var fb pkg.Feedback
	if err := json.NewDecoder(c.Request().Body).Decode(&fb); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid feedback payload")
	}
	if fb.Usefulness < 1 || fb.Usefulness > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "usefulness must be between 1 and 5")
	}
	if fb.Accuracy < 1 || fb.Accuracy > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "accuracy must be between 1 and 5")
	}
	fb.Comments = strings.TrimSpace(fb.Comments)
	if utf8.RuneCountInString(fb.Comments) > maxFeedbackComments {
		return echo.NewHTTPError(http.StatusBadRequest, "comments are too long")
	}

	zerolog.Ctx(c.Request().Context()).Info().
		Int("usefulness", fb.Usefulness).
		Int("accuracy", fb.Accuracy).
		Str("comments", fb.Comments).
		Msg("feedback received")

	return c.JSON(http.StatusCreated, map[string]string{"message": "Feedback received"})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"profile": s.Profile,
		"model":   s.Model,
	})
}

// handleError renders every error as {"error": "..."}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := errorStatus(err)
	msg := "Server error: " + err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, pkg.ErrorResponse{Error: msg})
	}
	if err != nil {
		s.Logger.Error().Err(err).Msg("failed to write error response")
	}
}

func errorStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
