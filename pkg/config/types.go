// Package config loads and validates a pipeline's hopic-ci-config.yaml
// file into a PipelineConfig tree, grounded on
// original_source/cidriver/config_reader.py and its later
// original_source/hopic/config_reader.py successor.
package config

// RunOnChange governs when a step runs relative to whether its inputs
// changed, mirroring the RunOnChange enum in config_reader.py.
type RunOnChange string

const (
	RunOnChangeAlways    RunOnChange = "always"
	RunOnChangeNever     RunOnChange = "never"
	RunOnChangeOnly      RunOnChange = "only"
	RunOnChangeNewVersionOnly RunOnChange = "new-version-only"
)

// LockOnChange governs when a ci-lock is acquired.
type LockOnChange string

const (
	LockOnChangeAlways LockOnChange = "always"
	LockOnChangeNever  LockOnChange = "never"
	LockOnChangeOnly   LockOnChange = "only"
)

// CredentialType enumerates the tagged Credential variants of spec §3.
type CredentialType string

const (
	CredentialUsernamePassword CredentialType = "username-password"
	CredentialFile             CredentialType = "file"
	CredentialString           CredentialType = "string"
	CredentialSSHKey           CredentialType = "ssh-key"
)

// CredentialEncoding controls optional URL-encoding of username/password
// credentials when they're interpolated into a URL.
type CredentialEncoding string

const (
	CredentialEncodingPlain    CredentialEncoding = "plain"
	CredentialEncodingURL      CredentialEncoding = "url"
)

// ForeachMode enumerates the per-step "foreach" iteration modes.
type ForeachMode string

const (
	ForeachNone             ForeachMode = ""
	ForeachSourceCommit     ForeachMode = "SOURCE_COMMIT"
	ForeachSourceChangeset  ForeachMode = "SOURCE_CHANGESET"
)

// Credential is a tagged variant over the credential shapes a step can
// request via with-credentials.
type Credential struct {
	ID       string
	Type     CredentialType
	Encoding CredentialEncoding

	// Username-password
	UsernameVar string
	PasswordVar string

	// File
	FileVar string

	// String
	StringVar string

	// SSH key
	SSHVar string
}

// ArtifactSpec describes archive/fingerprint/junit declarations.
type ArtifactSpec struct {
	Patterns     []string
	Target       string
	AllowMissing bool
}

// VolumesFromRef names another step's image whose volumes this step
// should inherit (`volumes_from`).
type VolumesFromRef struct {
	Image string
}

// Volume is one entry of the top-level `volumes` mapping, keyed by its
// guest target path.
type Volume struct {
	Target   string
	Source   string
	ReadOnly bool
	// Suppressed marks a volume explicitly disabled via `source: null`.
	Suppressed bool
}

// Step is a normalized command descriptor. A Step with an empty Sh is
// metadata-only: it applies settings forward within the same variant's
// step sequence without itself running anything.
type Step struct {
	Sh                []string
	Environment       map[string]string
	Timeout           float64
	HasTimeout        bool
	Image             string
	HasImage          bool
	DockerInDocker    bool
	WithCredentials   []Credential
	VolumesFrom       []VolumesFromRef
	ExtraDockerArgs   map[string]string
	Foreach           ForeachMode
	RunOnChange       RunOnChange
	Worktrees         map[string]string
	Archive           *ArtifactSpec
	Fingerprint       *ArtifactSpec
	JUnit             *ArtifactSpec
	Description       string
	NodeLabel         string
	Stash             []string
	ChangedFiles      []string
	WaitOnFullPreviousPhase bool
	HasWaitOnFullPreviousPhase bool
}

// CILock is one declarative lock descriptor consumed by the outer
// driver.
type CILock struct {
	RepoName     string
	Branch       string
	OnChange     LockOnChange
	FromPhase    string
	HasFromPhase bool
}

// BumpPolicyKind enumerates version.bump.policy.
type BumpPolicyKind string

const (
	BumpPolicyDisabled             BumpPolicyKind = "disabled"
	BumpPolicyConstant             BumpPolicyKind = "constant"
	BumpPolicyConventionalCommits  BumpPolicyKind = "conventional-commits"
)

// BumpPolicy is version.bump.
type BumpPolicy struct {
	Policy                   BumpPolicyKind
	Field                    string
	Strict                   bool
	RejectBreakingChangesOn  string
	RejectNewFeaturesOn      string
}

// VersionFormat enumerates version.format.
type VersionFormat string

const (
	VersionFormatSemVer VersionFormat = "semver"
	VersionFormatCarver VersionFormat = "carver"
)

// VersionPolicy is PipelineConfig.version.
type VersionPolicy struct {
	Format           VersionFormat
	Bump             BumpPolicy
	OnEveryChange    bool
	Tag              string
	TagEnabled       bool
	Build            string
	HotfixBranch     string
	File             string
	AfterSubmitBump  bool
}

// PipelineConfig is the parsed pipeline description, immutable after
// load.
type PipelineConfig struct {
	Version                   VersionPolicy
	Phases                    []Phase
	PostSubmit                []PostSubmitPhase
	Volumes                   []Volume
	Image                     string
	HasImage                  bool
	VariantImages             map[string]string
	PassThroughEnvironmentVars []string
	Clean                     []string
	CILocks                   []CILock
	ProjectName               string
	ModalitySourcePreparation map[string][]Step
	PublishFromBranch         string

	// CodeDir is the configured code-directory subtree spec §4.5's
	// apply-modality-change excludes when staging "all untracked and
	// modified files" for a modality that defines no changed-files
	// list. Empty when the document doesn't set `code-dir`, meaning
	// nothing is excluded.
	CodeDir string
}

// Phase is one ordered phase-name -> ordered variant-name -> []Step
// entry, keeping declaration order explicit (goccy/go-yaml decodes
// mappings in document order into these slices rather than Go maps).
type Phase struct {
	Name     string
	Variants []Variant
}

// Variant is one named sequence of steps within a Phase.
type Variant struct {
	Name  string
	Steps []Step
}

// PostSubmitPhase is one phase-name -> []Step entry of post_submit,
// restricted to a smaller command set (no archive/fingerprint/stash/
// worktrees, enforced in normalize.go).
type PostSubmitPhase struct {
	Name  string
	Steps []Step
}
