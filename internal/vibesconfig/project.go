// Package vibesconfig holds the two configuration surfaces the core reads:
// host-facing settings (loaded via viper/yaml) and the plain-JSON
// per-project .ai-audit/config.json
// model.
package vibesconfig

import "encoding/json"

// AssuranceLevel is the user-selectable provenance depth.
type AssuranceLevel string

const (
	AssuranceLow    AssuranceLevel = "low"
	AssuranceMedium AssuranceLevel = "medium"
	AssuranceHigh   AssuranceLevel = "high"
)

const (
	standardName    = "VIBES"
	standardVersion = "1.0"

	// DefaultCompressThresholdBytes is the default reasoning
	// inline-to-compressed cutover.
	DefaultCompressThresholdBytes = 10240
	// DefaultExternalBlobThresholdBytes is the default
	// compressed-to-external cutover.
	DefaultExternalBlobThresholdBytes = 102400
)

// DefaultTrackedExtensions is the out-of-the-box tracked_extensions list.
var DefaultTrackedExtensions = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".rb", ".java", ".rs", ".c", ".cc", ".cpp", ".h", ".hpp",
}

// DefaultExcludePatterns is the out-of-the-box exclude_patterns list,
// generalizing a set of sensitive-path regexes into glob data.
var DefaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/dist/**",
	"**/build/**",
	"**/.git/**",
	"**/.env*",
	"**/*.pem",
	"**/*.key",
	"**/id_rsa*",
	"**/.ssh/**",
	"**/*.jpg", "**/*.png", "**/*.gif",
}

// ProjectConfig is the on-disk shape of .ai-audit/config.json.
type ProjectConfig struct {
	Standard                        string         `json:"standard"`
	StandardVersion                 string         `json:"standard_version"`
	AssuranceLevel                  AssuranceLevel `json:"assurance_level"`
	ProjectName                     string         `json:"project_name"`
	TrackedExtensions               []string       `json:"tracked_extensions"`
	ExcludePatterns                 []string       `json:"exclude_patterns"`
	CompressReasoningThresholdBytes int            `json:"compress_reasoning_threshold_bytes"`
	ExternalBlobThresholdBytes      int            `json:"external_blob_threshold_bytes"`
}

// NewProjectConfig builds a ProjectConfig with defaults applied for any
// zero-valued field, mirroring init_directly's "config.json from supplied
// parameters plus defaults" behavior.
func NewProjectConfig(projectName string, assurance AssuranceLevel, trackedExtensions, excludePatterns []string) ProjectConfig {
	if assurance == "" {
		assurance = AssuranceMedium
	}
	if trackedExtensions == nil {
		trackedExtensions = DefaultTrackedExtensions
	}
	if excludePatterns == nil {
		excludePatterns = DefaultExcludePatterns
	}
	return ProjectConfig{
		Standard:                        standardName,
		StandardVersion:                 standardVersion,
		AssuranceLevel:                  assurance,
		ProjectName:                     projectName,
		TrackedExtensions:               trackedExtensions,
		ExcludePatterns:                 excludePatterns,
		CompressReasoningThresholdBytes: DefaultCompressThresholdBytes,
		ExternalBlobThresholdBytes:      DefaultExternalBlobThresholdBytes,
	}
}

// ManifestFile is the on-disk shape of manifest.json. Entries
// are kept as raw JSON: auditio's write-if-absent merge never needs to
// interpret variant-specific fields, only to know whether a hash key is
// already present.
type ManifestFile struct {
	Standard string                     `json:"standard"`
	Version  string                     `json:"version"`
	Entries  map[string]json.RawMessage `json:"entries"`
}

// NewManifestFile returns an empty manifest with the standard header set,
// the zero value used when manifest.json is absent.
func NewManifestFile() ManifestFile {
	return ManifestFile{
		Standard: standardName,
		Version:  standardVersion,
		Entries:  map[string]json.RawMessage{},
	}
}
