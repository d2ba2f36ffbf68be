package sandbox

import (
	"context"
	"sort"
)

// Invocation is a toolchain step to be launched inside a workspace.
type Invocation struct {
	// Name identifies the step, unique per execution.
	Name     string
	HostDir  string
	Language Language
	Args     []string
	Env      map[string]string
}

// Launcher decides how toolchain steps reach the operating system.
type Launcher interface {
	// WorkspacePath is the path at which toolchain commands see HostDir.
	WorkspacePath(hostDir string) string
	// Command converts inv into the host process to start.
	Command(inv Invocation) Command
	// Abort releases anything an interrupted invocation may have left behind.
	Abort(ctx context.Context, inv Invocation)
}

// LocalLauncher runs toolchains directly on the host. Isolation is limited
// to a private working directory and its own process group.
type LocalLauncher struct{}

// WorkspacePath returns hostDir unchanged.
func (LocalLauncher) WorkspacePath(hostDir string) string {
	return hostDir
}

// Command runs inv.Args in inv.HostDir with inv.Env added to the environment.
func (LocalLauncher) Command(inv Invocation) Command {
	return Command{
		Args: inv.Args,
		Dir:  inv.HostDir,
		Env:  envList(inv.Env),
	}
}

// Abort is a no-op; the runner already killed the process group.
func (LocalLauncher) Abort(context.Context, Invocation) {}

// envList flattens env into sorted KEY=VALUE pairs.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
