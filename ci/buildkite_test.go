package ci

import (
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"encoding/json"
)

func assertDeepEqual(t *testing.T, actual interface{}, expected interface{}) {
	t.Helper()
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("Expected %#v - Got %#v", expected, actual)
	}
}

func testClient(server *httptest.Server) *Client {
	return &Client{
		Endpoint:   server.URL,
		Org:        "acme",
		Token:      "bk-token",
		HTTPClient: server.Client(),
	}
}

func TestGetPipeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertDeepEqual(t, r.Method, "GET")
		assertDeepEqual(t, r.URL.Path, "/v2/organizations/acme/pipelines/svc-a")
		assertDeepEqual(t, r.Header.Get("Authorization"), "Bearer bk-token")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "svc-a",
			"slug": "svc-a",
			"repository": "git@github.com:acme/svc-a.git",
			"branch_configuration": "main",
			"configuration": "steps:\n  - command: ls\n",
			"web_url": "https://buildkite.com/acme/svc-a"
		}`))
	}))
	defer server.Close()

	pipeline, err := testClient(server).GetPipeline("svc-a")
	if err != nil {
		t.Fatal(err)
	}

	assertDeepEqual(t, pipeline.Slug, "svc-a")
	assertDeepEqual(t, pipeline.Repository, "git@github.com:acme/svc-a.git")
	assertDeepEqual(t, pipeline.BranchConfiguration, "main")
}

func TestGetPipelineNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	_, err := testClient(server).GetPipeline("missing")
	if err == nil {
		t.Fatal("expected an error for a missing pipeline")
	}
	if !IsNotFound(err) {
		t.Errorf("expected a not found error, got %v", err)
	}
	assertDeepEqual(t, err.Error(), "buildkite: Not Found")
}

func TestIsNotFoundOtherErrors(t *testing.T) {
	if IsNotFound(nil) {
		t.Error("nil is not a not found error")
	}
	if IsNotFound(io.EOF) {
		t.Error("io.EOF is not a not found error")
	}
	if IsNotFound(&APIError{StatusCode: http.StatusInternalServerError}) {
		t.Error("a 500 is not a not found error")
	}
}

func TestCreatePipeline(t *testing.T) {
	var received map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertDeepEqual(t, r.Method, "POST")
		assertDeepEqual(t, r.URL.Path, "/v2/organizations/acme/pipelines")

		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"slug": "svc-a"}`))
	}))
	defer server.Close()

	pipeline := &Pipeline{
		Name:                "svc-a",
		Slug:                "svc-a",
		Repository:          "git@github.com:acme/svc-a.git",
		BranchConfiguration: "main",
		Configuration:       "steps:\n",
		ProviderSettings: &ProviderSettings{
			TriggerMode:       "code",
			BuildPullRequests: true,
		},
	}
	if err := testClient(server).CreatePipeline(pipeline); err != nil {
		t.Fatal(err)
	}

	assertDeepEqual(t, received["name"], "svc-a")
	assertDeepEqual(t, received["repository"], "git@github.com:acme/svc-a.git")

	settings, ok := received["provider_settings"].(map[string]interface{})
	if !ok {
		t.Fatal("provider_settings missing from the request body")
	}
	assertDeepEqual(t, settings["trigger_mode"], "code")
	assertDeepEqual(t, settings["build_pull_requests"], true)
	assertDeepEqual(t, settings["build_tags"], false)
}

func TestUpdatePipelineSparsePayload(t *testing.T) {
	var received map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertDeepEqual(t, r.Method, "PATCH")
		assertDeepEqual(t, r.URL.Path, "/v2/organizations/acme/pipelines/svc-a")

		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"slug": "svc-a"}`))
	}))
	defer server.Close()

	fields := map[string]interface{}{"branch_configuration": "main"}
	if err := testClient(server).UpdatePipeline("svc-a", fields); err != nil {
		t.Fatal(err)
	}

	// only the changed field crosses the wire
	assertDeepEqual(t, received, map[string]interface{}{"branch_configuration": "main"})
}

func TestAPIErrorWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := testClient(server).GetPipeline("svc-a")
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected an APIError, got %T", err)
	}
	assertDeepEqual(t, apiErr.StatusCode, http.StatusInternalServerError)
}
