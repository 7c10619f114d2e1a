package reconcile

import (
	"errors"
	"testing"

	"github.com/GurdipSCode/devops-utils-bootstrappers/ci"
	"github.com/GurdipSCode/devops-utils-bootstrappers/scm"
)

func TestLocateTriggerFileFirstMatch(t *testing.T) {
	repo := testRepo("svc-a", "main")
	client := &fakeSCM{
		contents: map[string]string{
			"acme/svc-a:.buildkite/pipeline.yaml": scm.ContentFile,
			"acme/svc-a:buildkite.yaml":           scm.ContentFile,
		},
	}

	found, err := LocateTriggerFile(client, repo, "main", testOptions().CandidatePaths)
	if err != nil {
		t.Fatal(err)
	}

	// the earliest candidate present wins, later matches are ignored
	assertDeepEqual(t, found, ".buildkite/pipeline.yaml")
}

func TestLocateTriggerFileNone(t *testing.T) {
	repo := testRepo("svc-a", "main")
	client := &fakeSCM{}

	found, err := LocateTriggerFile(client, repo, "main", testOptions().CandidatePaths)
	if err != nil {
		t.Fatal(err)
	}
	assertDeepEqual(t, found, "")
}

func TestLocateTriggerFileSkipsDirectories(t *testing.T) {
	repo := testRepo("svc-a", "main")
	client := &fakeSCM{
		contents: map[string]string{
			// a directory named like a candidate does not count
			"acme/svc-a:.buildkite/pipeline.yml": scm.ContentDir,
			"acme/svc-a:buildkite.yaml":          scm.ContentFile,
		},
	}

	found, err := LocateTriggerFile(client, repo, "main", testOptions().CandidatePaths)
	if err != nil {
		t.Fatal(err)
	}
	assertDeepEqual(t, found, "buildkite.yaml")
}

func TestLocateTriggerFileAbortsOnHardError(t *testing.T) {
	repo := testRepo("svc-a", "main")
	client := &fakeSCM{
		contents: map[string]string{
			"acme/svc-a:buildkite.yaml": scm.ContentFile,
		},
		failures: map[string]error{
			"acme/svc-a:.buildkite/pipeline.yml": errors.New("rate limited"),
		},
	}

	_, err := LocateTriggerFile(client, repo, "main", testOptions().CandidatePaths)
	if err == nil {
		t.Fatal("a non-404 probe error must abort the search")
	}
}

func TestDiffPipelineIgnoresWhitespace(t *testing.T) {
	desired := &ci.Pipeline{
		Repository:          "git@github.com:acme/svc-a.git",
		BranchConfiguration: "main",
		Configuration:       "steps:\n  - command: make\n",
	}
	observed := &ci.Pipeline{
		Repository:          "git@github.com:acme/svc-a.git",
		BranchConfiguration: " main ",
		Configuration:       "steps:\r\n  - command: make\r\n\r\n",
	}

	assertDeepEqual(t, len(diffPipeline(observed, desired)), 0)
}

func TestDiffPipelineSparse(t *testing.T) {
	desired := &ci.Pipeline{
		Repository:          "git@github.com:acme/svc-a.git",
		BranchConfiguration: "main",
		Configuration:       "steps:\n",
	}
	observed := &ci.Pipeline{
		Repository:          "git@github.com:acme/old.git",
		BranchConfiguration: "main",
		Configuration:       "steps:\n",
	}

	changed := diffPipeline(observed, desired)
	assertDeepEqual(t, changed, map[string]interface{}{
		"repository": "git@github.com:acme/svc-a.git",
	})
	assertDeepEqual(t, changedFieldNames(changed), "repository")
}

func TestChangedFieldNamesOrder(t *testing.T) {
	changed := map[string]interface{}{
		"configuration":        "a",
		"repository":           "b",
		"branch_configuration": "c",
	}
	assertDeepEqual(t, changedFieldNames(changed), "repository,branch_configuration,configuration")
}
