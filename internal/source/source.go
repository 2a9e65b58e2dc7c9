// Package source resolves the Solidity text an audit will analyse: either
// the code pasted by the user or a file fetched from GitHub.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/contract-auditor/internal/apperror"
)

// MaxSourceBytes caps how much of a remote file is read.
const MaxSourceBytes = 1 << 20

// DefaultFetchTimeout bounds a single GitHub fetch.
const DefaultFetchTimeout = 30 * time.Second

// RawHost is the only host contract files are fetched from.
const RawHost = "raw.githubusercontent.com"

// Request is what the client submitted. Inline code takes precedence over
// the URL when both are set.
type Request struct {
	ContractName string
	SolidityCode string
	GitHubURL    string
}

// Acquirer turns a Request into source text.
type Acquirer struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger

	// rawBase replaces the scheme and host of every resolved raw URL.
	// Nil in production; tests point it at an httptest server.
	rawBase *url.URL
}

// New creates an Acquirer that fetches with client.
// Use NewGitHubClient to build one that can read private repositories.
func New(client *http.Client, logger *slog.Logger) *Acquirer {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &Acquirer{client: client, maxBytes: MaxSourceBytes, logger: logger}
}

// NewGitHubClient returns an HTTP client for raw.githubusercontent.com.
//
// With an empty token it is a plain client and only public files resolve.
// With a token every request carries "Authorization: Bearer <token>", which
// GitHub accepts for private repository contents. oauth2.StaticTokenSource
// never refreshes; a personal access token doesn't need to.
func NewGitHubClient(ctx context.Context, token string) *http.Client {
	base := &http.Client{Timeout: DefaultFetchTimeout}
	if token == "" {
		return base
	}

	// oauth2.NewClient builds its transport on top of the client found in ctx,
	// so the timeout above still applies.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	c := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	c.Timeout = DefaultFetchTimeout
	// The token transport signs every hop, so a redirect must not leave the
	// host the request started on.
	c.CheckRedirect = sameHostRedirect
	return c
}

func sameHostRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("source: stopped after 10 redirects")
	}
	if req.URL.Host != via[0].URL.Host {
		return fmt.Errorf("source: refusing redirect to %s", req.URL.Host)
	}
	return nil
}

// Acquire returns the source text for req.
//
//   - inline code → returned verbatim
//   - GitHub URL  → fetched from its raw form
//   - neither, or only whitespace resolved → MissingSource
func (a *Acquirer) Acquire(ctx context.Context, req Request) (string, error) {
	if req.SolidityCode != "" {
		if strings.TrimSpace(req.SolidityCode) == "" {
			return "", apperror.MissingSource()
		}
		return req.SolidityCode, nil
	}

	ghURL := strings.TrimSpace(req.GitHubURL)
	if ghURL == "" {
		return "", apperror.MissingSource()
	}

	code, err := a.fetch(ctx, ghURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(code) == "" {
		return "", apperror.MissingSource()
	}
	return code, nil
}

func (a *Acquirer) fetch(ctx context.Context, ghURL string) (string, error) {
	raw, err := RawURL(ghURL)
	if err != nil {
		return "", apperror.SourceFetchFailed(ghURL, err)
	}
	if a.rawBase != nil {
		u, err := url.Parse(raw)
		if err != nil {
			return "", apperror.SourceFetchFailed(ghURL, err)
		}
		u.Scheme, u.Host = a.rawBase.Scheme, a.rawBase.Host
		raw = u.String()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", apperror.SourceFetchFailed(ghURL, err)
	}

	a.logger.Debug("fetching contract source", slog.String("url", raw))

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", apperror.SourceFetchFailed(ghURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperror.SourceFetchFailed(ghURL, fmt.Errorf("source: unexpected status %d", resp.StatusCode))
	}

	// Read one byte past the cap so an oversized file is detected rather
	// than silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes+1))
	if err != nil {
		return "", apperror.SourceFetchFailed(ghURL, fmt.Errorf("source: reading body: %w", err))
	}
	if int64(len(body)) > a.maxBytes {
		return "", apperror.SourceFetchFailed(ghURL, fmt.Errorf("source: file exceeds %d bytes", a.maxBytes))
	}

	return string(body), nil
}

// RawURL converts a github.com file link into its raw.githubusercontent.com
// equivalent:
//
//	https://github.com/org/repo/blob/main/Token.sol
//	→ https://raw.githubusercontent.com/org/repo/main/Token.sol
//
// An already-raw link is returned unchanged. Any other host is rejected:
// the fetch client may carry the GitHub token.
func RawURL(s string) (string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("source: parsing url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("source: url must be http or https")
	}
	if u.Host == "" {
		return "", errors.New("source: url has no host")
	}

	if u.User != nil || u.Port() != "" {
		return "", errors.New("source: url must not carry credentials or a port")
	}

	switch strings.ToLower(u.Hostname()) {
	case "github.com", "www.github.com":
		u.Path = strings.Replace(u.Path, "/blob/", "/", 1)
		u.RawPath = ""
	case RawHost:
	default:
		return "", fmt.Errorf("source: host %q is not GitHub", u.Host)
	}
	u.Scheme = "https"
	u.Host = RawHost
	return u.String(), nil
}
