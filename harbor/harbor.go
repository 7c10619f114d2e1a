package harbor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"encoding/json"
)

type (
	// Client makes requests against the Harbor v2 REST API
	Client struct {
		BaseURL    string
		Username   string
		Password   string
		HTTPClient *http.Client
	}

	// Project holds the Harbor project details this tool manages
	Project struct {
		ProjectID int    `json:"project_id,omitempty"`
		Name      string `json:"name,omitempty"`
	}

	// Robot is a project-scoped robot account
	Robot struct {
		ID          int64             `json:"id,omitempty"`
		Name        string            `json:"name,omitempty"`
		Description string            `json:"description,omitempty"`
		Duration    int64             `json:"duration,omitempty"`
		Secret      string            `json:"secret,omitempty"`
		Permissions []RobotPermission `json:"permissions,omitempty"`
	}

	// RobotPermission scopes a robot to a project namespace
	RobotPermission struct {
		Kind      string        `json:"kind"`
		Namespace string        `json:"namespace"`
		Access    []RobotAccess `json:"access"`
	}

	// RobotAccess is a single resource/action grant
	RobotAccess struct {
		Resource string `json:"resource"`
		Action   string `json:"action"`
	}

	// APIError is the decoded error payload of a failed API call
	APIError struct {
		StatusCode int
		Message    string
	}

	harborErrors struct {
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
)

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("harbor: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("harbor: %s", e.Message)
}

// IsNotFound determines whether err is an APIError for a missing resource
func IsNotFound(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsConflict determines whether err is an APIError for a resource that
// already exists
func IsConflict(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusConflict
	}
	return false
}

// NewClient returns a Harbor client using basic auth
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Username:   username,
		Password:   password,
		HTTPClient: http.DefaultClient,
	}
}

// GetProject fetches a project by name, a missing project is reported as
// an APIError with status 404
func (c *Client) GetProject(name string) (*Project, error) {
	body, err := c.sendAPIRequest("GET", "/api/v2.0/projects/"+name, nil)
	if err != nil {
		return nil, err
	}
	project := new(Project)
	if err := json.Unmarshal(body, project); err != nil {
		return nil, err
	}
	return project, nil
}

// CreateProject creates a private project
func (c *Client) CreateProject(name string) error {
	payload := map[string]interface{}{
		"project_name": name,
		"metadata":     map[string]string{"public": "false"},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = c.sendAPIRequest("POST", "/api/v2.0/projects", data)
	return err
}

// ListRobots lists the robot accounts of a project
func (c *Client) ListRobots(project string) ([]*Robot, error) {
	endpoint := fmt.Sprintf("/api/v2.0/projects/%s/robots", project)
	body, err := c.sendAPIRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	robots := []*Robot{}
	if err := json.Unmarshal(body, &robots); err != nil {
		return nil, err
	}
	return robots, nil
}

// UpdateRobot replaces the stored settings of a robot account. The secret
// is not rotated by an update.
func (c *Client) UpdateRobot(project string, id int64, robot *Robot) error {
	data, err := json.Marshal(robot)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("/api/v2.0/projects/%s/robots/%d", project, id)
	_, err = c.sendAPIRequest("PUT", endpoint, data)
	return err
}

// CreateRobot creates a robot account in the project and returns it with
// the generated secret. The secret is only available in this response.
func (c *Client) CreateRobot(project string, robot *Robot) (*Robot, error) {
	data, err := json.Marshal(robot)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/api/v2.0/projects/%s/robots", project)
	body, err := c.sendAPIRequest("POST", endpoint, data)
	if err != nil {
		return nil, err
	}
	created := new(Robot)
	if err := json.Unmarshal(body, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) sendAPIRequest(method, endpoint string, data []byte) ([]byte, error) {
	url := c.BaseURL + endpoint
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(c.Username, c.Password)
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
		apiError := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		decoded := harborErrors{}
		if err := json.Unmarshal(body, &decoded); err == nil && len(decoded.Errors) > 0 {
			apiError.Message = decoded.Errors[0].Message
		}
		return nil, apiError
	}

	return body, nil
}
