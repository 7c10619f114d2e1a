package vault

import (
	"fmt"

	"github.com/GurdipSCode/devops-utils-bootstrappers/report"
	"github.com/GurdipSCode/devops-utils-bootstrappers/util"
)

var bootstrapLog = util.NewContextLogger("vault")

// RoleSecretName is the KV entry the service's AppRole credentials are
// published under
const RoleSecretName = "approle"

// Bootstrapper provisions per-service policies and AppRoles on a Vault
// server, one service at a time
type Bootstrapper struct {
	Client *Client
	DryRun bool
}

// Bootstrap ensures the KV mount exists and every configured service has
// its policy and AppRole. One record per service is appended to the
// report, a service failure never aborts the batch. In dry-run mode the
// state checks still run but nothing is written.
func (b *Bootstrapper) Bootstrap(services []string, rep *report.Report) error {
	log := bootstrapLog.InFunc("Bootstrap")

	mountRec := report.NewRecord(b.Client.Mount, "")
	if action, err := b.Client.EnsureKVMount(b.DryRun); err != nil {
		mountRec.Fail(err.Error())
	} else {
		mountRec.Set(action, b.reason("kv mount"))
	}
	rep.Append(mountRec)
	log.Infof("%s: %s (%s)", mountRec.Name, mountRec.Action, mountRec.Reason)

	for _, service := range services {
		rec := b.bootstrapService(service)
		rep.Append(rec)
		log.Infof("%s: %s (%s)", rec.Name, rec.Action, rec.Reason)
	}

	return nil
}

func (b *Bootstrapper) bootstrapService(service string) *report.Record {
	rec := report.NewRecord(service, RoleName(service))

	policyAction, err := b.Client.EnsurePolicy(service, b.DryRun)
	if err != nil {
		rec.Fail(err.Error())
		return rec
	}

	roleAction, err := b.Client.EnsureAppRole(service, b.DryRun)
	if err != nil {
		rec.Fail(err.Error())
		return rec
	}

	// publishing the role-id is a write, dry run stops here
	if !b.DryRun {
		if err := b.publishRoleID(service); err != nil {
			rec.Fail(err.Error())
			return rec
		}
	}

	rec.Set(combineActions(policyAction, roleAction),
		b.reason(fmt.Sprintf("policy %s, approle %s", policyAction, roleAction)))
	return rec
}

// publishRoleID reads back the service's AppRole role-id and stores it
// under the service's KV path so deployments can pick it up
func (b *Bootstrapper) publishRoleID(service string) error {
	roleID, err := b.Client.RoleID(service)
	if err != nil {
		return err
	}

	existing, err := b.Client.ReadSecret(service, RoleSecretName)
	if err != nil {
		return err
	}
	if existing != nil && existing["role_id"] == roleID {
		return nil
	}

	return b.Client.WriteSecret(service, RoleSecretName, map[string]interface{}{
		"role_id": roleID,
	})
}

func (b *Bootstrapper) reason(reason string) string {
	if b.DryRun {
		return "dryrun"
	}
	return reason
}

// combineActions reduces the per-resource actions to one record action:
// any create wins over update, update wins over unchanged
func combineActions(actions ...string) string {
	combined := report.ActionUnchanged
	for _, action := range actions {
		switch action {
		case report.ActionCreated:
			return report.ActionCreated
		case report.ActionUpdated:
			combined = report.ActionUpdated
		}
	}
	return combined
}
