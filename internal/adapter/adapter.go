// Package adapter implements the target-environment backends (local
// filesystem, docker container) that Phase B of the reactor installs
// skills through. The environment string on a Target selects a closed
// tagged variant rather than open-ended plugin dispatch.
package adapter

import (
	"context"
	"strings"

	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/ekind"
)

// Kind identifies which adapter variant an environment string selects.
type Kind string

const (
	KindLocal  Kind = "local"
	KindDocker Kind = "docker"
)

// Adapter is the capability set every target-environment backend exposes.
type Adapter interface {
	// Type reports the adapter's kind string ("local" or "docker"), used
	// in diagnostics and verify findings.
	Type() string

	// HealthCheck reports whether the adapter's backend is reachable and
	// ready to receive installs (always nil for Local).
	HealthCheck(ctx context.Context) error

	// PathExists reports whether path exists within the adapter's
	// environment. Local does not follow symlinks; Docker runs `test -e`,
	// which does.
	PathExists(ctx context.Context, path string) (bool, error)

	// Install materializes source at target. Local honours mode and first
	// removes whatever entry was previously there; Docker ignores mode,
	// always copies with `docker cp`, and does not remove an existing
	// entry.
	Install(ctx context.Context, source, target string, mode config.InstallMode) error

	// Exec runs cmd within the adapter's environment and returns stdout.
	Exec(ctx context.Context, cmd string) (string, error)
}

// ParseEnvironment splits a Target.Environment string ("local" or
// "docker:<container>") into its adapter kind and (for docker) container
// name.
func ParseEnvironment(environment string) (Kind, string, error) {
	if environment == "local" {
		return KindLocal, "", nil
	}

	if container, ok := strings.CutPrefix(environment, "docker:"); ok {
		if strings.TrimSpace(container) == "" {
			return "", "", ekind.Newf(ekind.Validation, "INVALID_ENVIRONMENT: `%s`: container name must not be empty", environment)
		}
		return KindDocker, container, nil
	}

	return "", "", ekind.Newf(ekind.Validation, "INVALID_ENVIRONMENT: `%s`: expected `local` or `docker:<container>`", environment)
}

// New builds the adapter selected by environment. dockerBin overrides the
// docker binary path (empty string means "docker" resolved from PATH);
// it exists so tests can point at a fake binary.
func New(environment, dockerBin string) (Adapter, error) {
	kind, container, err := ParseEnvironment(environment)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindLocal:
		return NewLocalAdapter(), nil
	case KindDocker:
		return NewDockerAdapter(container, dockerBin)
	default:
		return nil, ekind.Newf(ekind.Validation, "INVALID_ENVIRONMENT: unknown adapter kind `%s`", kind)
	}
}
