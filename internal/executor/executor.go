package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrExecutionTimeout    = errors.New("timed out waiting for execution result")
)

const (
	maxPollAttempts     = 10
	defaultPollInterval = time.Second
	noOutputFallback    = "No output"

	// statusTerminal is the lowest remote status id indicating the
	// submission will not change further.
	statusTerminal = 3
)

// languageIDs maps a client-facing language name to the remote execution
// service's language id.
var languageIDs = map[string]int{
	"javascript": 63,
	"python":     71,
	"java":       62,
	"cpp":        54,
}

type Executor interface {
	Execute(ctx context.Context, language, sourceCode string) (string, error)
}

type submissionRequest struct {
	SourceCode string `json:"source_code"`
	LanguageId int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

type submissionCreated struct {
	Token string `json:"token"`
}

type submissionStatus struct {
	Id          int    `json:"id"`
	Description string `json:"description,omitempty"`
}

type submissionResult struct {
	Status        submissionStatus `json:"status"`
	Stdout        string           `json:"stdout"`
	Stderr        string           `json:"stderr"`
	CompileOutput string           `json:"compile_output"`
}

// Judge0Client submits source code to a Judge0-compatible service and polls
// for the result under a fixed attempt budget.
type Judge0Client struct {
	log          *log.Logger
	baseURL      string
	apiHost      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
}

func NewJudge0Client(logger *log.Logger, baseURL, apiKey string) (*Judge0Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	return &Judge0Client{
		log:          logger,
		baseURL:      baseURL,
		apiHost:      u.Host,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
	}, nil
}

// Execute runs sourceCode remotely and returns a single output string. The
// runtime error stream takes precedence over the compile error stream, which
// takes precedence over stdout.
func (c *Judge0Client) Execute(ctx context.Context, language, sourceCode string) (string, error) {
	languageId, ok := languageIDs[language]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	token, err := c.submit(ctx, sourceCode, languageId)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}

	result, err := c.awaitResult(ctx, token)
	if err != nil {
		return "", err
	}

	switch {
	case result.Stderr != "":
		return result.Stderr, nil
	case result.CompileOutput != "":
		return result.CompileOutput, nil
	case result.Stdout != "":
		return result.Stdout, nil
	default:
		return noOutputFallback, nil
	}
}

func (c *Judge0Client) submit(ctx context.Context, sourceCode string, languageId int) (string, error) {
	body, err := json.Marshal(submissionRequest{
		SourceCode: sourceCode,
		LanguageId: languageId,
		Stdin:      "",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/submissions?base64_encoded=false&wait=false", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var created submissionCreated
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if created.Token == "" {
		return "", fmt.Errorf("no submission token in response")
	}

	return created.Token, nil
}

// awaitResult polls the submission until it reaches a terminal status. Each
// attempt waits pollInterval first, including the first one. A failed poll
// consumes its attempt but does not abort the loop.
func (c *Judge0Client) awaitResult(ctx context.Context, token string) (*submissionResult, error) {
	for attempt := 1; attempt <= maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		result, err := c.fetchResult(ctx, token)
		if err != nil {
			c.log.Printf("poll attempt %d for submission %q: %v", attempt, token, err)
			continue
		}

		if result.Status.Id >= statusTerminal {
			return result, nil
		}
	}

	return nil, ErrExecutionTimeout
}

func (c *Judge0Client) fetchResult(ctx context.Context, token string) (*submissionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/submissions/"+token+"?base64_encoded=false", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var result submissionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}

func (c *Judge0Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Host", c.apiHost)
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
}
