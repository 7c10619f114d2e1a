package reconcile

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/GurdipSCode/devops-utils-bootstrappers/ci"
	"github.com/GurdipSCode/devops-utils-bootstrappers/scm"
)

func assertDeepEqual(t *testing.T, actual interface{}, expected interface{}) {
	t.Helper()
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("Expected %#v - Got %#v", expected, actual)
	}
}

// fakeSCM serves repository listings and content probes from maps
type fakeSCM struct {
	repos    []*scm.Repository
	contents map[string]string // "owner/repo:path" -> content type
	failures map[string]error  // probes that raise hard errors
}

func (f *fakeSCM) Name() string { return "fake" }

func (f *fakeSCM) ListRepositories(org string) ([]*scm.Repository, error) {
	return f.repos, nil
}

func (f *fakeSCM) GetContents(owner, repo, path, ref string) (*scm.RepositoryContent, error) {
	key := fmt.Sprintf("%s/%s:%s", owner, repo, path)
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	if contentType, ok := f.contents[key]; ok {
		return &scm.RepositoryContent{Type: contentType, Path: path}, nil
	}
	return nil, scm.ErrNotFound
}

func (f *fakeSCM) FolderExists(owner, repo, path, ref string) (bool, error) {
	content, err := f.GetContents(owner, repo, path, ref)
	if scm.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return content.Type == scm.ContentDir, nil
}

// fakeCI keeps pipelines in memory and records every mutation
type fakeCI struct {
	pipelines map[string]*ci.Pipeline
	created   []string
	updated   []string
	getErr    map[string]error
}

func newFakeCI() *fakeCI {
	return &fakeCI{pipelines: make(map[string]*ci.Pipeline)}
}

func (f *fakeCI) GetPipeline(slug string) (*ci.Pipeline, error) {
	if err, ok := f.getErr[slug]; ok {
		return nil, err
	}
	pipeline, ok := f.pipelines[slug]
	if !ok {
		return nil, &ci.APIError{StatusCode: http.StatusNotFound, Message: "not found"}
	}
	snapshot := *pipeline
	return &snapshot, nil
}

func (f *fakeCI) CreatePipeline(pipeline *ci.Pipeline) error {
	stored := *pipeline
	f.pipelines[pipeline.Slug] = &stored
	f.created = append(f.created, pipeline.Slug)
	return nil
}

func (f *fakeCI) UpdatePipeline(slug string, fields map[string]interface{}) error {
	pipeline, ok := f.pipelines[slug]
	if !ok {
		return errors.New("no such pipeline")
	}
	if v, ok := fields["repository"].(string); ok {
		pipeline.Repository = v
	}
	if v, ok := fields["branch_configuration"].(string); ok {
		pipeline.BranchConfiguration = v
	}
	if v, ok := fields["configuration"].(string); ok {
		pipeline.Configuration = v
	}
	f.updated = append(f.updated, slug)
	return nil
}
