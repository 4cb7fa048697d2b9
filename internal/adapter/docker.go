package adapter

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/ekind"
)

// DockerAdapter installs targets inside a running docker container via
// the `docker` CLI: inspect for health, `docker cp` to materialize,
// `test -e` to confirm. The docker binary is located once at
// construction; its absence is a stable config error.
type DockerAdapter struct {
	containerName string
	dockerBin     string
}

// NewDockerAdapter validates containerName and resolves dockerBin (or
// "docker" from PATH when empty), failing fast if the CLI is unavailable.
func NewDockerAdapter(containerName, dockerBin string) (*DockerAdapter, error) {
	if strings.TrimSpace(containerName) == "" {
		return nil, ekind.New(ekind.Validation, "docker container name must not be empty")
	}
	if dockerBin == "" {
		dockerBin = "docker"
	}

	if err := ensureDockerAvailable(dockerBin); err != nil {
		return nil, err
	}

	return &DockerAdapter{containerName: containerName, dockerBin: dockerBin}, nil
}

func (a *DockerAdapter) Type() string { return string(KindDocker) }

func (a *DockerAdapter) HealthCheck(ctx context.Context) error {
	output, err := a.runDocker(ctx, "check container health", "inspect", "--format", "{{.State.Running}}", a.containerName)
	if err != nil {
		return err
	}

	running := strings.TrimSpace(output)
	if running == "true" {
		return nil
	}
	return ekind.Newf(ekind.Runtime, "container `%s` is not running; start it with `docker start %s`", a.containerName, a.containerName)
}

func (a *DockerAdapter) PathExists(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, a.dockerBin, "exec", a.containerName, "sh", "-c", `test -e "`+shellEscapeDoubleQuoted(path)+`"`)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, ekind.Newf(ekind.Runtime, "docker exec path check failed in container `%s`: %v", a.containerName, err)
}

func (a *DockerAdapter) Install(ctx context.Context, source, target string, _ config.InstallMode) error {
	if err := a.HealthCheck(ctx); err != nil {
		return err
	}

	info, err := os.Lstat(source)
	if err != nil {
		return ekind.Wrap(ekind.Io, err)
	}

	sourceArg := source
	if info.IsDir() {
		sourceArg = source + "/."
	}
	targetArg := a.containerName + ":" + target

	if _, err := a.runDocker(ctx, "copy files into container", "cp", sourceArg, targetArg); err != nil {
		return err
	}

	exists, err := a.PathExists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		return ekind.Newf(ekind.Runtime, "docker install verification failed: target `%s` does not exist in container `%s`", target, a.containerName)
	}
	return nil
}

func (a *DockerAdapter) Exec(ctx context.Context, cmd string) (string, error) {
	if err := a.HealthCheck(ctx); err != nil {
		return "", err
	}
	return a.runDocker(ctx, "execute command in container", "exec", a.containerName, "sh", "-c", cmd)
}

func (a *DockerAdapter) runDocker(ctx context.Context, action string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, a.dockerBin, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", ekind.Newf(ekind.Runtime, "docker command failed while trying to %s: status=%s stderr=`%s`",
				action, exitErr.String(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", ekind.Newf(ekind.Runtime, "docker command failed to start while trying to %s: %v", action, err)
	}
	return string(output), nil
}

func shellEscapeDoubleQuoted(value string) string {
	replaced := strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(replaced, `"`, `\"`)
}

func ensureDockerAvailable(dockerBin string) error {
	cmd := exec.Command(dockerBin, "--version")
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || os.IsNotExist(err) {
			return ekind.New(ekind.Validation, "DOCKER_NOT_FOUND: Docker CLI not found; install Docker or ensure `docker` is in your PATH")
		}
		return ekind.Newf(ekind.Validation, "DOCKER_NOT_FOUND: Docker CLI not found: %v", err)
	}
	return nil
}
