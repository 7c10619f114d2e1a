package vault

import (
	"fmt"
	"strings"

	"github.com/hashicorp/vault/api"
)

// Client wraps the Vault API client for the provisioning passes
type Client struct {
	vault *api.Client

	// Mount is the KV v2 mount the service secrets live under
	Mount string
}

// NewClient returns an authenticated Vault client
func NewClient(addr, token, mount string) (*Client, error) {
	config := api.DefaultConfig()
	config.Address = addr

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("unable to create vault client: %w", err)
	}
	client.SetToken(token)

	return &Client{vault: client, Mount: mount}, nil
}

// PolicyName returns the policy identifier for a service
func PolicyName(service string) string {
	return "svc-" + service
}

// RoleName returns the AppRole identifier for a service
func RoleName(service string) string {
	return "svc-" + service
}

// ServicePolicy renders the HCL granting a service read access to its own
// secret subtree under the KV mount
func ServicePolicy(mount, service string) string {
	return fmt.Sprintf(`path "%s/data/%s/*" {
  capabilities = ["read", "list"]
}

path "%s/metadata/%s/*" {
  capabilities = ["list"]
}
`, mount, service, mount, service)
}

// EnsureKVMount mounts a KV v2 secrets engine at the client's mount path if
// one is not already there. Returns the action taken, or the action a dry
// run would have taken.
func (c *Client) EnsureKVMount(dryRun bool) (string, error) {
	mounts, err := c.vault.Sys().ListMounts()
	if err != nil {
		return "", fmt.Errorf("unable to list mounts: %w", err)
	}
	if _, mounted := mounts[c.Mount+"/"]; mounted {
		return "unchanged", nil
	}
	if dryRun {
		return "created", nil
	}

	err = c.vault.Sys().Mount(c.Mount, &api.MountInput{
		Type:    "kv",
		Options: map[string]string{"version": "2"},
	})
	if err != nil {
		// compatibility fallback: older servers report a concurrent or
		// pre-existing mount only through this message
		if strings.Contains(err.Error(), "path is already in use") {
			return "unchanged", nil
		}
		return "", fmt.Errorf("unable to mount %s: %w", c.Mount, err)
	}
	return "created", nil
}

// EnsurePolicy writes the per-service policy if it is absent or stale
func (c *Client) EnsurePolicy(service string, dryRun bool) (string, error) {
	name := PolicyName(service)
	desired := ServicePolicy(c.Mount, service)

	existing, err := c.vault.Sys().GetPolicy(name)
	if err != nil {
		return "", fmt.Errorf("unable to read policy %s: %w", name, err)
	}

	if strings.TrimSpace(existing) == strings.TrimSpace(desired) {
		return "unchanged", nil
	}

	action := "updated"
	if existing == "" {
		action = "created"
	}
	if dryRun {
		return action, nil
	}
	if err := c.vault.Sys().PutPolicy(name, desired); err != nil {
		return "", fmt.Errorf("unable to write policy %s: %w", name, err)
	}
	return action, nil
}

// EnsureAppRole creates or updates the service's AppRole so its token
// carries exactly the service policy
func (c *Client) EnsureAppRole(service string, dryRun bool) (string, error) {
	name := RoleName(service)
	path := "auth/approle/role/" + name

	existing, err := c.vault.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("unable to read approle %s: %w", name, err)
	}

	desired := map[string]interface{}{
		"token_policies": []string{PolicyName(service)},
		"token_ttl":      "1h",
		"token_max_ttl":  "4h",
	}

	if existing != nil && rolePolicies(existing.Data) == PolicyName(service) {
		return "unchanged", nil
	}

	action := "updated"
	if existing == nil {
		action = "created"
	}
	if dryRun {
		return action, nil
	}
	if _, err := c.vault.Logical().Write(path, desired); err != nil {
		return "", fmt.Errorf("unable to write approle %s: %w", name, err)
	}
	return action, nil
}

// RoleID reads back the service's AppRole role-id
func (c *Client) RoleID(service string) (string, error) {
	path := fmt.Sprintf("auth/approle/role/%s/role-id", RoleName(service))
	secret, err := c.vault.Logical().Read(path)
	if err != nil {
		return "", err
	}
	if secret == nil {
		return "", fmt.Errorf("approle %s has no role-id", RoleName(service))
	}
	roleID, _ := secret.Data["role_id"].(string)
	return roleID, nil
}

// WriteSecret stores data under the service's KV v2 subtree
func (c *Client) WriteSecret(service, name string, data map[string]interface{}) error {
	path := fmt.Sprintf("%s/data/%s/%s", c.Mount, service, name)
	_, err := c.vault.Logical().Write(path, map[string]interface{}{"data": data})
	return err
}

// ReadSecret reads data from the service's KV v2 subtree, a missing secret
// yields nil data and no error
func (c *Client) ReadSecret(service, name string) (map[string]interface{}, error) {
	path := fmt.Sprintf("%s/data/%s/%s", c.Mount, service, name)
	secret, err := c.vault.Logical().Read(path)
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, nil
	}
	data, _ := secret.Data["data"].(map[string]interface{})
	return data, nil
}

// rolePolicies flattens the token_policies field of an AppRole read
func rolePolicies(data map[string]interface{}) string {
	raw, ok := data["token_policies"].([]interface{})
	if !ok {
		return ""
	}
	policies := make([]string, 0, len(raw))
	for _, p := range raw {
		if s, ok := p.(string); ok {
			policies = append(policies, s)
		}
	}
	return strings.Join(policies, ",")
}
