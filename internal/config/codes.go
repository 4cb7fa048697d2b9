package config

// Stable validation error codes. These are matched on by
// callers/tests, so they must not change once released.
const (
	CodeInvalidSkillMode   = "INVALID_SKILL_MODE"
	CodeMissingRegistries  = "MISSING_REGISTRIES"
	CodeUnknownRegistry    = "UNKNOWN_REGISTRY"
	CodeInvalidSemver      = "INVALID_SEMVER"
	CodeInvalidEnvironment = "INVALID_ENVIRONMENT"
	CodeDuplicateSkillID   = "DUPLICATE_SKILL_ID"
	CodeInvalidConcurrency = "INVALID_CONCURRENCY"
)
