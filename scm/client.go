package scm

import "errors"

const (
	// ContentFile indicates the probed path is a regular file
	ContentFile = "file"

	// ContentDir indicates the probed path is a directory
	ContentDir = "dir"

	// RepoGithub represents GitHub
	RepoGithub = "github"
)

// ErrNotFound reports that a probed path or repository does not exist
// upstream. Callers treat this as normal control flow, not a failure.
var ErrNotFound = errors.New("not found")

// IsNotFound determines whether err means the remote resource is absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Client is an interface for accessing remote SCMs
type Client interface {
	Name() string
	ListRepositories(org string) ([]*Repository, error)
	GetContents(owner, repo, path, ref string) (*RepositoryContent, error)
	FolderExists(owner, repo, path, ref string) (bool, error)
}

// Repository holds common repository details from SCMs
type Repository struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	CloneURL      string `json:"clone_url,omitempty"`
	HTMLURL       string `json:"html_url,omitempty"`
	Archived      bool   `json:"archived"`
	Fork          bool   `json:"fork"`
}

// RepositoryContent holds the metadata of a probed path
type RepositoryContent struct {
	Type string `json:"type"`
	Path string `json:"path"`
	SHA  string `json:"sha,omitempty"`
}
