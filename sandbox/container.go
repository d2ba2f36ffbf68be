package sandbox

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// containerWorkdir is where the workspace is mounted inside containers.
const containerWorkdir = "/workspace"

// ContainerLauncher runs every toolchain step in a throwaway container of
// the language's image, with the workspace bind-mounted. Engine is the CLI
// of a docker compatible runtime such as docker or podman.
type ContainerLauncher struct {
	logger         *zap.Logger
	engine         string
	images         map[Language]string
	memoryMB       int
	networkEnabled bool
	runner         CommandRunner
}

// ContainerOptions configures a ContainerLauncher.
type ContainerOptions struct {
	Engine         string
	Images         map[Language]string
	MemoryMB       int
	NetworkEnabled bool
}

// NewContainerLauncher creates a launcher for opts.Engine. runner is used to
// remove containers left behind by timed out steps.
func NewContainerLauncher(logger *zap.Logger, opts ContainerOptions, runner CommandRunner) *ContainerLauncher {
	return &ContainerLauncher{
		logger:         logger,
		engine:         opts.Engine,
		images:         opts.Images,
		memoryMB:       opts.MemoryMB,
		networkEnabled: opts.NetworkEnabled,
		runner:         runner,
	}
}

// WorkspacePath returns the in-container mount point.
func (*ContainerLauncher) WorkspacePath(string) string {
	return containerWorkdir
}

// Command wraps inv.Args in a "<engine> run" with resource and privilege
// restrictions.
func (c *ContainerLauncher) Command(inv Invocation) Command {
	network := "none"
	if c.networkEnabled {
		network = "bridge"
	}

	args := []string{
		c.engine, "run",
		"--rm",
		"--name", inv.Name,
		"-v", fmt.Sprintf("%s:%s", inv.HostDir, containerWorkdir),
		"--workdir", containerWorkdir,
		"--memory", fmt.Sprintf("%dm", c.memoryMB),
		"--network", network,
		"--pids-limit", "128",
		"--ulimit", "fsize=100000000",
		"--security-opt", "no-new-privileges:true",
		"--cap-drop", "ALL",
		"--user", fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
	}
	for _, kv := range envList(inv.Env) {
		args = append(args, "-e", kv)
	}
	args = append(args, c.images[inv.Language])
	args = append(args, inv.Args...)

	return Command{Args: args, Dir: inv.HostDir}
}

// Abort force-removes the step's container after a timeout or cancellation.
// Killing the engine CLI does not stop a container that has already started.
func (c *ContainerLauncher) Abort(ctx context.Context, inv Invocation) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	res, err := c.runner.Run(ctx, Command{Args: []string{c.engine, "rm", "-f", inv.Name}})
	if err != nil || res.ExitCode != 0 {
		c.logger.Warn("failed to remove aborted container",
			zap.String("container", inv.Name),
			zap.String("stderr", res.Stderr),
			zap.Error(err))
	}
}
