package reconcile

import (
	"fmt"
	"strings"

	"github.com/GurdipSCode/devops-utils-bootstrappers/ci"
	"github.com/GurdipSCode/devops-utils-bootstrappers/report"
	"github.com/GurdipSCode/devops-utils-bootstrappers/scm"
	"github.com/GurdipSCode/devops-utils-bootstrappers/util"
)

// names of the managed pipeline fields as they appear in the CI API payload
const (
	fieldRepository    = "repository"
	fieldBranchConfig  = "branch_configuration"
	fieldConfiguration = "configuration"
)

var reconcileLog = util.NewContextLogger("reconcile")

type (
	// PipelineAPI is the subset of the CI API used by the reconciler
	PipelineAPI interface {
		GetPipeline(slug string) (*ci.Pipeline, error)
		CreatePipeline(pipeline *ci.Pipeline) error
		UpdatePipeline(slug string, fields map[string]interface{}) error
	}

	// Options control a reconciliation pass
	Options struct {
		Org             string
		CandidatePaths  []string
		RequireFolder   string
		IncludeArchived bool
		IncludeForks    bool
		FallbackBranch  string
		DryRun          bool
	}

	// Reconciler drives the CI pipelines of an organization towards the
	// state derived from its repository list
	Reconciler struct {
		SCM  scm.Client
		CI   PipelineAPI
		Opts Options
	}
)

// Run reconciles every eligible repository of the organization, appending
// one record per processed repository to the report. A repository failure
// is recorded and never aborts the batch, only a failure to list the
// repositories at all is returned as an error.
func (r *Reconciler) Run(rep *report.Report) error {
	log := reconcileLog.InFunc("Run")

	repos, err := r.SCM.ListRepositories(r.Opts.Org)
	if err != nil {
		return fmt.Errorf("unable to list repositories for %s: %w", r.Opts.Org, err)
	}

	// slug -> full name of the repository that claimed it first
	claimed := make(map[string]string)

	for _, repo := range repos {
		if repo.Archived && !r.Opts.IncludeArchived {
			continue
		}
		if repo.Fork && !r.Opts.IncludeForks {
			continue
		}

		rec := r.reconcileRepository(repo, claimed)
		rep.Append(rec)
		log.Infof("%s: %s (%s)", rec.Name, rec.Action, rec.Reason)
	}

	return nil
}

// reconcileRepository processes a single repository and always returns a
// terminal record. Errors are caught here, at the repository boundary.
func (r *Reconciler) reconcileRepository(repo *scm.Repository, claimed map[string]string) *report.Record {
	rec := report.NewRecord(repo.FullName, Slugify(repo.Name))

	// two names normalizing to the same slug would silently fight over one
	// pipeline, fail the later one instead
	if first, taken := claimed[rec.Slug]; taken {
		rec.Fail(fmt.Sprintf("slug %q already claimed by %s", rec.Slug, first))
		return rec
	}
	claimed[rec.Slug] = repo.FullName

	branch := repo.DefaultBranch
	if branch == "" {
		branch = r.Opts.FallbackBranch
	}

	if r.Opts.RequireFolder != "" {
		found, err := r.SCM.FolderExists(repo.Owner, repo.Name, r.Opts.RequireFolder, branch)
		if err != nil {
			rec.Fail(err.Error())
			return rec
		}
		if !found {
			rec.Skip(fmt.Sprintf("no %s folder", r.Opts.RequireFolder))
			return rec
		}
	}

	triggerFile, err := LocateTriggerFile(r.SCM, repo, branch, r.Opts.CandidatePaths)
	if err != nil {
		rec.Fail(err.Error())
		return rec
	}
	if triggerFile == "" {
		rec.Skip("no pipeline file found")
		return rec
	}
	rec.PipelineFile = triggerFile

	desired := desiredPipeline(repo.Name, rec.Slug, repo.CloneURL, branch, triggerFile)

	observed, err := r.CI.GetPipeline(rec.Slug)
	if err != nil && !ci.IsNotFound(err) {
		rec.Fail(err.Error())
		return rec
	}

	if ci.IsNotFound(err) {
		if r.Opts.DryRun {
			rec.Set(report.ActionCreated, "dryrun")
			return rec
		}
		if err := r.CI.CreatePipeline(desired); err != nil {
			rec.Fail(err.Error())
			return rec
		}
		rec.Set(report.ActionCreated, "pipeline created")
		return rec
	}

	changed := diffPipeline(observed, desired)
	if len(changed) == 0 {
		rec.Set(report.ActionUnchanged, "pipeline up to date")
		return rec
	}
	rec.ChangedFields = changedFieldNames(changed)

	if r.Opts.DryRun {
		rec.Set(report.ActionUpdated, "dryrun")
		return rec
	}
	if err := r.CI.UpdatePipeline(rec.Slug, changed); err != nil {
		rec.Fail(err.Error())
		return rec
	}
	rec.Set(report.ActionUpdated, "pipeline updated")
	return rec
}

// diffPipeline compares the three managed fields and returns the sparse
// update payload. The comparison ignores line ending and surrounding
// whitespace differences since the remote API does not round-trip them
// faithfully.
func diffPipeline(observed, desired *ci.Pipeline) map[string]interface{} {
	changed := make(map[string]interface{})

	if normalize(observed.Repository) != normalize(desired.Repository) {
		changed[fieldRepository] = desired.Repository
	}
	if normalize(observed.BranchConfiguration) != normalize(desired.BranchConfiguration) {
		changed[fieldBranchConfig] = desired.BranchConfiguration
	}
	if normalize(observed.Configuration) != normalize(desired.Configuration) {
		changed[fieldConfiguration] = desired.Configuration
	}

	return changed
}

// changedFieldNames joins the changed field names in a fixed order
func changedFieldNames(changed map[string]interface{}) string {
	names := []string{}
	for _, field := range []string{fieldRepository, fieldBranchConfig, fieldConfiguration} {
		if _, ok := changed[field]; ok {
			names = append(names, field)
		}
	}
	return strings.Join(names, ",")
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
