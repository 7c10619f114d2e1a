package ci

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"encoding/json"
)

// DefaultEndpoint is the public Buildkite REST API root
const DefaultEndpoint = "https://api.buildkite.com"

type (
	// Client makes requests against the Buildkite REST API for a single
	// organization
	Client struct {
		Endpoint   string
		Org        string
		Token      string
		HTTPClient *http.Client
	}

	// Pipeline is the subset of Buildkite pipeline fields managed by the
	// reconciler
	Pipeline struct {
		Name                string            `json:"name,omitempty"`
		Slug                string            `json:"slug,omitempty"`
		Repository          string            `json:"repository,omitempty"`
		BranchConfiguration string            `json:"branch_configuration,omitempty"`
		DefaultBranch       string            `json:"default_branch,omitempty"`
		Configuration       string            `json:"configuration,omitempty"`
		WebURL              string            `json:"web_url,omitempty"`
		ProviderSettings    *ProviderSettings `json:"provider_settings,omitempty"`
	}

	// ProviderSettings holds the trigger and build policy flags of a
	// pipeline's source provider
	ProviderSettings struct {
		TriggerMode           string `json:"trigger_mode,omitempty"`
		BuildPullRequests     bool   `json:"build_pull_requests"`
		BuildPullRequestForks bool   `json:"build_pull_request_forks"`
		BuildTags             bool   `json:"build_tags"`
	}

	// APIError is the decoded error payload of a failed API call
	APIError struct {
		StatusCode int    `json:"-"`
		Message    string `json:"message"`
	}
)

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("buildkite: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("buildkite: %s", e.Message)
}

// IsNotFound determines whether err is an APIError for a missing resource
func IsNotFound(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// NewClient returns a Buildkite client for the given organization
func NewClient(org, token string) *Client {
	return &Client{
		Endpoint:   DefaultEndpoint,
		Org:        org,
		Token:      token,
		HTTPClient: http.DefaultClient,
	}
}

// GetPipeline fetches the pipeline with the given slug. A missing pipeline
// is reported as an APIError with status 404, see IsNotFound.
func (c *Client) GetPipeline(slug string) (*Pipeline, error) {
	endpoint := fmt.Sprintf("/v2/organizations/%s/pipelines/%s", c.Org, slug)
	body, err := c.sendAPIRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	pipeline := new(Pipeline)
	if err := json.Unmarshal(body, pipeline); err != nil {
		return nil, err
	}
	return pipeline, nil
}

// CreatePipeline creates a new pipeline in the organization
func (c *Client) CreatePipeline(pipeline *Pipeline) error {
	data, err := json.Marshal(pipeline)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("/v2/organizations/%s/pipelines", c.Org)
	_, err = c.sendAPIRequest("POST", endpoint, data)
	return err
}

// UpdatePipeline patches the pipeline with the given slug. Only the fields
// present in the sparse payload are sent.
func (c *Client) UpdatePipeline(slug string, fields map[string]interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("/v2/organizations/%s/pipelines/%s", c.Org, slug)
	_, err = c.sendAPIRequest("PATCH", endpoint, data)
	return err
}

func (c *Client) sendAPIRequest(method, endpoint string, data []byte) ([]byte, error) {
	url := c.Endpoint + endpoint
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Authorization", "Bearer "+c.Token)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiError := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiError); err != nil {
			apiError.Message = resp.Status
		}
		return nil, apiError
	}

	return body, nil
}
