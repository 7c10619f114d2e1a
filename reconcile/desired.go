package reconcile

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/GurdipSCode/devops-utils-bootstrappers/ci"
)

type (
	configStep struct {
		Label   string `json:"label"`
		Command string `json:"command"`
	}

	configDocument struct {
		Steps []configStep `json:"steps"`
	}
)

// buildConfiguration renders the generated pipeline definition: a single
// step that uploads the repository's own trigger file. The output is
// deterministic for a given path.
func buildConfiguration(path string) string {
	doc := configDocument{
		Steps: []configStep{
			{
				Label:   ":pipeline: upload",
				Command: fmt.Sprintf("buildkite-agent pipeline upload %s", path),
			},
		},
	}

	// yaml.Marshal cannot fail for this fixed shape
	data, _ := yaml.Marshal(doc)
	return string(data)
}

// desiredPipeline constructs the pipeline state a repository should have,
// given its located trigger file and resolved branch
func desiredPipeline(name, slug, cloneURL, branch, triggerFile string) *ci.Pipeline {
	return &ci.Pipeline{
		Name:                name,
		Slug:                slug,
		Repository:          cloneURL,
		BranchConfiguration: branch,
		DefaultBranch:       branch,
		Configuration:       buildConfiguration(triggerFile),
		ProviderSettings: &ci.ProviderSettings{
			TriggerMode:           "code",
			BuildPullRequests:     true,
			BuildPullRequestForks: false,
			BuildTags:             false,
		},
	}
}
