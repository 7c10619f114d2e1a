package harbor

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/GurdipSCode/devops-utils-bootstrappers/report"
	"github.com/GurdipSCode/devops-utils-bootstrappers/util"
)

// RobotName is the short name given to each service's CI robot account
const RobotName = "ci"

var syncLog = util.NewContextLogger("harbor")

// SecretWriter stores a generated robot credential, satisfied by the vault
// client
type SecretWriter interface {
	WriteSecret(service, name string, data map[string]interface{}) error
}

// Syncer provisions one Harbor project and CI robot account per service
type Syncer struct {
	Client  *Client
	Secrets SecretWriter
	DryRun  bool
}

// Sync processes every service sequentially, appending one record each.
// A service failure is recorded and the batch continues.
func (s *Syncer) Sync(services []string, rep *report.Report) error {
	log := syncLog.InFunc("Sync")

	for _, service := range services {
		rec := s.syncService(service)
		rep.Append(rec)
		log.Infof("%s: %s (%s)", rec.Name, rec.Action, rec.Reason)
	}

	return nil
}

func (s *Syncer) syncService(service string) *report.Record {
	rec := report.NewRecord(service, "")

	projectAction, err := s.ensureProject(service)
	if err != nil {
		rec.Fail(err.Error())
		return rec
	}

	robotAction, err := s.ensureRobot(service)
	if err != nil {
		rec.Fail(err.Error())
		return rec
	}

	reason := fmt.Sprintf("project %s, robot %s", projectAction, robotAction)
	if s.DryRun {
		reason = "dryrun"
	}

	rec.Set(combineActions(projectAction, robotAction), reason)
	return rec
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

func (s *Syncer) ensureProject(service string) (string, error) {
	_, err := s.Client.GetProject(service)
	if err == nil {
		return report.ActionUnchanged, nil
	}
	if !IsNotFound(err) {
		return "", err
	}

	if s.DryRun {
		return report.ActionCreated, nil
	}
	if err := s.Client.CreateProject(service); err != nil {
		// a concurrent run may have created it between the probe and now
		if IsConflict(err) {
			return report.ActionUnchanged, nil
		}
		return "", err
	}
	return report.ActionCreated, nil
}

// desiredRobot is the robot account every service's project should carry
func desiredRobot(service string) *Robot {
	return &Robot{
		Name:        RobotName,
		Description: "CI push account",
		Duration:    -1,
		Permissions: []RobotPermission{
			{
				Kind:      "project",
				Namespace: service,
				Access: []RobotAccess{
					{Resource: "repository", Action: "push"},
					{Resource: "repository", Action: "pull"},
				},
			},
		},
	}
}

// robotMatches reports whether the stored robot still carries the desired
// duration and permission grants
func robotMatches(observed, desired *Robot) bool {
	return observed.Duration == desired.Duration &&
		reflect.DeepEqual(observed.Permissions, desired.Permissions)
}

func (s *Syncer) ensureRobot(service string) (string, error) {
	robots, err := s.Client.ListRobots(service)
	if err != nil && !IsNotFound(err) {
		return "", err
	}

	desired := desiredRobot(service)

	for _, robot := range robots {
		// Harbor returns the full account name, robot$<project>+<name>
		if robot.Name != RobotName && !strings.HasSuffix(robot.Name, "+"+RobotName) {
			continue
		}
		if robotMatches(robot, desired) {
			return report.ActionUnchanged, nil
		}
		if s.DryRun {
			return report.ActionUpdated, nil
		}
		if err := s.Client.UpdateRobot(service, robot.ID, desired); err != nil {
			return "", err
		}
		return report.ActionUpdated, nil
	}

	if s.DryRun {
		return report.ActionCreated, nil
	}

	created, err := s.Client.CreateRobot(service, desired)
	if err != nil {
		return "", err
	}

	if s.Secrets != nil {
		data := map[string]interface{}{
			"username": created.Name,
			"password": created.Secret,
		}
		if err := s.Secrets.WriteSecret(service, "harbor-robot", data); err != nil {
			return "", fmt.Errorf("robot created but credential not stored: %w", err)
		}
	}

	return report.ActionCreated, nil
}
