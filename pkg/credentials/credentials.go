// Package credentials resolves Credential declarations (pkg/config)
// against a backend and populates the environment variables a step
// requested via with-credentials. The env-var-name resolution style
// (checking a small ordered list of candidate names, erroring with a
// concrete remediation hint) is grounded on resolveToken/
// resolveSecretValue in
// _examples/githubnext-gh-aw/internal/tools/ghsecret/main.go.
package credentials

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/hopicerr"
)

// Backend resolves a (project, id) credential reference to its secret
// material.
type Backend interface {
	UsernamePassword(project, id string) (username, password string, err error)
	File(project, id string) (path string, err error)
	String(project, id string) (value string, err error)
	SSHKey(project, id string) (privateKeyPEM string, err error)
}

// EnvBackend resolves credentials from environment variables named
// `HOPIC_CREDENTIAL_<PROJECT>_<ID>_<FIELD>`, uppercased and with every
// non-identifier byte replaced by `_`. It is the reference backend used
// outside of a real secrets-manager integration.
type EnvBackend struct{}

func envKey(project, id, field string) string {
	return "HOPIC_CREDENTIAL_" + sanitizeIdent(project) + "_" + sanitizeIdent(id) + "_" + field
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func lookupEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", hopicerr.NewMissingCredentialError("environment variable %s is not set", key)
	}
	return v, nil
}

func (EnvBackend) UsernamePassword(project, id string) (string, string, error) {
	username, err := lookupEnv(envKey(project, id, "USERNAME"))
	if err != nil {
		return "", "", err
	}
	password, err := lookupEnv(envKey(project, id, "PASSWORD"))
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (EnvBackend) File(project, id string) (string, error) {
	return lookupEnv(envKey(project, id, "FILE"))
}

func (EnvBackend) String(project, id string) (string, error) {
	return lookupEnv(envKey(project, id, "STRING"))
}

func (EnvBackend) SSHKey(project, id string) (string, error) {
	return lookupEnv(envKey(project, id, "SSH_KEY"))
}

// Resolve populates the environment-variable map a step's
// with-credentials entries requested, per spec §4.1/§4.6. Errors are
// wrapped as deferred sentinels by the caller (pkg/config's
// expandVars) when resolution happens during ${VAR} interpolation
// rather than at step-execution time.
func Resolve(backend Backend, project string, creds []config.Credential) (map[string]string, error) {
	env := map[string]string{}
	for _, c := range creds {
		if err := resolveOne(backend, project, c, env); err != nil {
			return nil, err
		}
	}
	return env, nil
}

func resolveOne(backend Backend, project string, c config.Credential, env map[string]string) error {
	switch c.Type {
	case config.CredentialUsernamePassword:
		username, password, err := backend.UsernamePassword(project, c.ID)
		if err != nil {
			return err
		}
		if c.Encoding == config.CredentialEncodingURL {
			username = url.QueryEscape(username)
			password = url.QueryEscape(password)
		}
		env[c.UsernameVar] = username
		env[c.PasswordVar] = password
	case config.CredentialFile:
		path, err := backend.File(project, c.ID)
		if err != nil {
			return err
		}
		env[c.FileVar] = path
	case config.CredentialString:
		value, err := backend.String(project, c.ID)
		if err != nil {
			return err
		}
		env[c.StringVar] = value
	case config.CredentialSSHKey:
		pem, err := backend.SSHKey(project, c.ID)
		if err != nil {
			return err
		}
		if _, err := ssh.ParsePrivateKey([]byte(pem)); err != nil {
			return hopicerr.NewMissingCredentialError("credential %q is not a valid SSH private key: %v", c.ID, err)
		}
		env[c.SSHVar] = pem
	default:
		return fmt.Errorf("credentials: unknown credential type %q for %q", c.Type, c.ID)
	}
	return nil
}
