package reconcile

import (
	"github.com/GurdipSCode/devops-utils-bootstrappers/scm"
)

// LocateTriggerFile probes the candidate paths in caller order and returns
// the first one that exists as a file on the given ref. An empty path means
// no candidate matched. A 404 on an individual probe moves on to the next
// candidate, any other failure aborts the search.
func LocateTriggerFile(client scm.Client, repo *scm.Repository, ref string, candidates []string) (string, error) {
	for _, path := range candidates {
		content, err := client.GetContents(repo.Owner, repo.Name, path, ref)
		if scm.IsNotFound(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		if content.Type == scm.ContentFile {
			return content.Path, nil
		}
	}
	return "", nil
}
