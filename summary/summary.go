// Package summary asks a language model to summarize analyzer findings.
//
// Summaries are advisory. Every failure, including a missing credential,
// turns into explanatory text instead of an error.
package summary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/codesentry/codesentry/analyzers"
	"github.com/codesentry/codesentry/model"
	"github.com/rs/zerolog"
)

// APIKeyEnv names the environment variable holding the OpenAI credential.
const APIKeyEnv = "OPENAI_API_KEY"

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// DefaultTimeout bounds the single summarization request.
const DefaultTimeout = 120 * time.Second

// NotConfiguredSummary is returned when no credential is available.
const NotConfiguredSummary = "AI summary is not available.\n\n" +
	"OpenAI API key is not configured in this environment.\n"

// Completer sends one system instruction and one user prompt to a text
// generation service and returns its reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ServiceError is an error reported by the text generation service itself.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Options configures a Summarizer.
type Options struct {
	// Chat model name
	Model string
	// Alternative API endpoint (e.g. a proxy or compatible server)
	BaseURL string
	// Bound on the request
	Timeout time.Duration
	// Analyzer names used to pick outputs for the prompt
	Catalog analyzers.Catalog
}

type Summarizer struct {
	logger  zerolog.Logger
	client  Completer
	timeout time.Duration
	catalog analyzers.Catalog
}

// New returns a Summarizer backed by client. A nil client puts the
// Summarizer in its unavailable mode.
func New(logger zerolog.Logger, client Completer, opts Options) *Summarizer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Summarizer{
		logger:  logger,
		client:  client,
		timeout: timeout,
		catalog: opts.Catalog,
	}
}

// NewFromEnv returns a Summarizer using the OpenAI API when APIKeyEnv is set.
func NewFromEnv(logger zerolog.Logger, opts Options) *Summarizer {
	apiKey := os.Getenv(APIKeyEnv)
	if apiKey == "" {
		logger.Debug().Str("env", APIKeyEnv).Msg("No API key configured, AI summary disabled")
		return New(logger, nil, opts)
	}
	return New(logger, NewOpenAIClient(apiKey, opts.BaseURL, opts.Model), opts)
}

// Available reports whether summaries will be requested from a service.
func (s *Summarizer) Available() bool {
	return s.client != nil
}

// Summarize returns a markdown summary of results, or an explanation of why
// none could be produced.
func (s *Summarizer) Summarize(ctx context.Context, repoPath string, results *model.ResultSet, maxChars int) (summary string) {
	if s.client == nil {
		return NotConfiguredSummary
	}

	prompt := BuildPrompt(repoPath, results, s.catalog, maxChars)

	defer func() {
		if r := recover(); r != nil {
			summary = unexpectedErrorSummary(fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		var serviceErr *ServiceError
		if errors.As(err, &serviceErr) {
			s.logger.Warn().Err(err).Msg("AI summary request failed")
			return fmt.Sprintf("AI summary could not be generated.\n\nOpenAI error: %v\n", serviceErr)
		}
		s.logger.Warn().Err(err).Msg("AI summary failed unexpectedly")
		return unexpectedErrorSummary(err)
	}

	return text
}

func unexpectedErrorSummary(err error) string {
	return fmt.Sprintf("AI summary could not be generated due to an unexpected error.\n\nError: %v\n", err)
}
