package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopic-ci/hopic/pkg/config"
)

type fakeBackend struct {
	username, password string
	file                string
	str                  string
	sshKey               string
	err                  error
}

func (f fakeBackend) UsernamePassword(project, id string) (string, string, error) {
	return f.username, f.password, f.err
}
func (f fakeBackend) File(project, id string) (string, error)   { return f.file, f.err }
func (f fakeBackend) String(project, id string) (string, error) { return f.str, f.err }
func (f fakeBackend) SSHKey(project, id string) (string, error) { return f.sshKey, f.err }

func TestResolveUsernamePassword(t *testing.T) {
	backend := fakeBackend{username: "svc", password: "s3cr3t"}
	creds := []config.Credential{{
		ID: "nexus", Type: config.CredentialUsernamePassword,
		UsernameVar: "USERNAME", PasswordVar: "PASSWORD",
	}}
	env, err := Resolve(backend, "proj", creds)
	require.NoError(t, err)
	assert.Equal(t, "svc", env["USERNAME"])
	assert.Equal(t, "s3cr3t", env["PASSWORD"])
}

func TestResolveUsernamePasswordURLEncoded(t *testing.T) {
	backend := fakeBackend{username: "a b", password: "p@ss/word"}
	creds := []config.Credential{{
		ID: "nexus", Type: config.CredentialUsernamePassword, Encoding: config.CredentialEncodingURL,
		UsernameVar: "USERNAME", PasswordVar: "PASSWORD",
	}}
	env, err := Resolve(backend, "proj", creds)
	require.NoError(t, err)
	assert.Equal(t, "a+b", env["USERNAME"])
	assert.NotEqual(t, "p@ss/word", env["PASSWORD"])
}

func TestResolveFileAndString(t *testing.T) {
	backend := fakeBackend{file: "/tmp/secret", str: "token-value"}
	creds := []config.Credential{
		{ID: "keyfile", Type: config.CredentialFile, FileVar: "SECRET_FILE"},
		{ID: "token", Type: config.CredentialString, StringVar: "SECRET"},
	}
	env, err := Resolve(backend, "proj", creds)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/secret", env["SECRET_FILE"])
	assert.Equal(t, "token-value", env["SECRET"])
}

func TestEnvKeySanitization(t *testing.T) {
	assert.Equal(t, "HOPIC_CREDENTIAL_MY_PROJ_DEPLOY_KEY_USERNAME", envKey("my-proj", "deploy.key", "USERNAME"))
}

func TestEnvBackendMissingVariable(t *testing.T) {
	t.Setenv("HOPIC_CREDENTIAL_PROJ_ID_STRING", "")
	_, err := EnvBackend{}.String("proj", "id")
	assert.Error(t, err)
}
