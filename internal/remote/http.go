package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sourceplane/tmplstudio/internal/model"
)

// envelope is the service's response wrapper
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

// HTTPClient talks to the template service over HTTP
type HTTPClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewHTTPClient creates a client with the given request timeout
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// ListVersions returns every version of the queried template
func (c *HTTPClient) ListVersions(ctx context.Context, q Query) ([]model.VersionSummary, error) {
	endpoint := fmt.Sprintf("%s/api/templates/%s/versions", c.BaseURL, url.PathEscape(q.TemplateIdentifier))

	var versions []model.VersionSummary
	if err := c.get(ctx, endpoint, c.queryParams(q, ""), &versions); err != nil {
		return nil, fmt.Errorf("failed to list versions of %s: %w", q.TemplateIdentifier, err)
	}
	return versions, nil
}

// GetYAML returns the YAML and metadata of one template version
func (c *HTTPClient) GetYAML(ctx context.Context, q Query, versionLabel string) (*YAMLResponse, error) {
	endpoint := fmt.Sprintf("%s/api/templates/%s", c.BaseURL, url.PathEscape(q.TemplateIdentifier))

	var resp YAMLResponse
	if err := c.get(ctx, endpoint, c.queryParams(q, versionLabel), &resp); err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", q.TemplateIdentifier, err)
	}
	return &resp, nil
}

func (c *HTTPClient) queryParams(q Query, versionLabel string) url.Values {
	params := url.Values{}
	params.Set("accountIdentifier", q.AccountID)
	if q.OrgID != "" {
		params.Set("orgIdentifier", q.OrgID)
	}
	if q.ProjectID != "" {
		params.Set("projectIdentifier", q.ProjectID)
	}
	if versionLabel != "" {
		params.Set("versionLabel", versionLabel)
	}
	if q.RepoName != "" {
		params.Set("repoName", q.RepoName)
	}
	if q.Branch != "" {
		params.Set("branch", q.Branch)
	}
	if q.LoadFromCache {
		params.Set("loadFromCache", strconv.FormatBool(true))
	}
	return params
}

// get performs a GET and decodes the envelope's data into out
func (c *HTTPClient) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode >= http.StatusBadRequest || env.Status == "ERROR" || env.Status == "FAILURE" {
		remoteErr := &Error{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
		if decodeErr != nil || remoteErr.Message == "" {
			remoteErr.Message = strings.TrimSpace(string(body))
		}
		return remoteErr
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
