package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/GurdipSCode/devops-utils-bootstrappers/scm"
)

// Client is used for making requests to GitHub
type Client struct {
	token   string
	baseURL string
}

// NewClient returns a GitHub client scoped to the given access token
func NewClient(token string) *Client {
	return &Client{token: token}
}

// NewClientWithBaseURL returns a client pointed at an alternate API root,
// used for GitHub Enterprise installs and for tests
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{token: token, baseURL: baseURL}
}

func (gc *Client) client() *github.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: gc.token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)
	if gc.baseURL != "" {
		base, err := url.Parse(gc.baseURL)
		if err == nil {
			client.BaseURL = base
		}
	}
	return client
}

// Name returns the client's remote source name
func (gc *Client) Name() string {
	return scm.RepoGithub
}

// ListRepositories lists the organization's repositories, sorted by full
// name as returned by the API
func (gc *Client) ListRepositories(org string) (repos []*scm.Repository, err error) {
	opts := &github.RepositoryListByOrgOptions{
		Sort: "full_name",
		ListOptions: github.ListOptions{
			PerPage: 100,
			Page:    1,
		},
	}

	ctx := context.Background()
	client := gc.client()

	// loop through the organization repository list
	for opts.Page > 0 {
		list, res, err := client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("unable to list repositories for %s: %w", org, err)
		}

		for _, repo := range list {
			repos = append(repos, &scm.Repository{
				Owner:         repo.GetOwner().GetLogin(),
				Name:          repo.GetName(),
				FullName:      repo.GetFullName(),
				DefaultBranch: repo.GetDefaultBranch(),
				CloneURL:      repo.GetCloneURL(),
				HTMLURL:       repo.GetHTMLURL(),
				Archived:      repo.GetArchived(),
				Fork:          repo.GetFork(),
			})
		}
		// increment the next page to retrieve
		opts.Page = res.NextPage
	}

	return repos, nil
}

// GetContents gets the metadata of a file or folder from the given branch.
// A remote 404 is reported as scm.ErrNotFound, any other failure is an
// actual error.
func (gc *Client) GetContents(owner, repo, path, ref string) (*scm.RepositoryContent, error) {
	file, dir, res, err := gc.client().Repositories.GetContents(
		context.Background(),
		owner,
		repo,
		path,
		&github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if res != nil && res.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s/%s:%s %w", owner, repo, path, scm.ErrNotFound)
		}
		return nil, err
	}

	if file == nil && dir != nil {
		return &scm.RepositoryContent{Type: scm.ContentDir, Path: path}, nil
	}

	return &scm.RepositoryContent{
		Type: file.GetType(),
		Path: file.GetPath(),
		SHA:  file.GetSHA(),
	}, nil
}

// FolderExists checks whether the given path exists as a folder on the ref
func (gc *Client) FolderExists(owner, repo, path, ref string) (bool, error) {
	content, err := gc.GetContents(owner, repo, path, ref)
	if scm.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return content.Type == scm.ContentDir, nil
}
