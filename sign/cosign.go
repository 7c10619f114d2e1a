package sign

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/GurdipSCode/devops-utils-bootstrappers/report"
	"github.com/GurdipSCode/devops-utils-bootstrappers/util"
)

// SecretName is the KV entry the signing material is stored under
const SecretName = "cosign"

var signLog = util.NewContextLogger("sign")

// SecretStore reads and writes per-service secrets, satisfied by the
// vault client
type SecretStore interface {
	ReadSecret(service, name string) (map[string]interface{}, error)
	WriteSecret(service, name string, data map[string]interface{}) error
}

// Generator creates a cosign keypair per service by invoking the local
// cosign binary and stores the material in the secret store
type Generator struct {
	// Binary overrides the cosign executable, defaults to "cosign" on PATH
	Binary   string
	Password string
	Secrets  SecretStore
	DryRun   bool
}

// Generate processes every service sequentially, appending one record
// each. Services that already have a key are left untouched.
func (g *Generator) Generate(services []string, rep *report.Report) error {
	log := signLog.InFunc("Generate")

	for _, service := range services {
		rec := g.generateService(service)
		rep.Append(rec)
		log.Infof("%s: %s (%s)", rec.Name, rec.Action, rec.Reason)
	}

	return nil
}

func (g *Generator) generateService(service string) *report.Record {
	rec := report.NewRecord(service, "")

	existing, err := g.Secrets.ReadSecret(service, SecretName)
	if err != nil {
		rec.Fail(err.Error())
		return rec
	}
	if existing != nil {
		rec.Set(report.ActionUnchanged, "signing key already present")
		return rec
	}

	if g.DryRun {
		rec.Set(report.ActionCreated, "dryrun")
		return rec
	}

	key, pub, err := g.generateKeyPair()
	if err != nil {
		rec.Fail(err.Error())
		return rec
	}

	data := map[string]interface{}{
		"key":      key,
		"pub":      pub,
		"password": g.Password,
	}
	if err := g.Secrets.WriteSecret(service, SecretName, data); err != nil {
		rec.Fail(err.Error())
		return rec
	}

	rec.Set(report.ActionCreated, "keypair generated")
	return rec
}

// generateKeyPair runs cosign in a scratch directory and returns the
// private and public key material
func (g *Generator) generateKeyPair() (key, pub string, err error) {
	dir, err := os.MkdirTemp("", "cosign-")
	if err != nil {
		return "", "", err
	}
	defer os.RemoveAll(dir)

	binary := g.Binary
	if binary == "" {
		binary = "cosign"
	}

	cmd := exec.Command(binary, "generate-key-pair")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "COSIGN_PASSWORD="+g.Password)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", "", fmt.Errorf("cosign generate-key-pair: %v: %s", err, out)
	}

	keyBytes, err := os.ReadFile(filepath.Join(dir, "cosign.key"))
	if err != nil {
		return "", "", err
	}
	pubBytes, err := os.ReadFile(filepath.Join(dir, "cosign.pub"))
	if err != nil {
		return "", "", err
	}

	return string(keyBytes), string(pubBytes), nil
}
