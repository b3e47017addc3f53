package config

import "fmt"

// credentialDefaults is the required-variable-name default set per
// CredentialType, applied when a with-credentials entry doesn't spell
// out its own variable names. Grounded on CredentialType/Encoding in
// original_source/hopic/config_reader.py and spec §4.1.
func credentialDefaults(id string, typ CredentialType) Credential {
	c := Credential{ID: id, Type: typ, Encoding: CredentialEncodingPlain}
	switch typ {
	case CredentialUsernamePassword:
		c.UsernameVar, c.PasswordVar = "USERNAME", "PASSWORD"
	case CredentialFile:
		c.FileVar = "SECRET_FILE"
	case CredentialString:
		c.StringVar = "SECRET"
	case CredentialSSHKey:
		c.SSHVar = "SSH"
	}
	return c
}

// normalizeCredentialEntry turns one raw with-credentials entry
// (scalar id, or a mapping with explicit variable-name overrides) into
// a validated Credential.
func normalizeCredentialEntry(raw map[string]any) (Credential, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return Credential{}, fmt.Errorf("config: with-credentials entry missing id")
	}

	typ := CredentialType(stringOr(raw["type"], string(CredentialUsernamePassword)))
	cred := credentialDefaults(id, typ)

	if v, ok := raw["encoding"].(string); ok {
		cred.Encoding = CredentialEncoding(v)
	}
	if v, ok := raw["username-variable"].(string); ok {
		cred.UsernameVar = v
	}
	if v, ok := raw["password-variable"].(string); ok {
		cred.PasswordVar = v
	}
	if v, ok := raw["file-variable"].(string); ok {
		cred.FileVar = v
	}
	if v, ok := raw["string-variable"].(string); ok {
		cred.StringVar = v
	}
	if v, ok := raw["ssh-variable"].(string); ok {
		cred.SSHVar = v
	}

	switch cred.Type {
	case CredentialUsernamePassword, CredentialFile, CredentialString, CredentialSSHKey:
	default:
		return Credential{}, fmt.Errorf("config: credential %q has unknown type %q", id, cred.Type)
	}

	return cred, nil
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
