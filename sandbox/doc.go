// Package sandbox provides secure code execution capabilities.
//
// The sandbox package runs untrusted Python, JavaScript, C, C++ and Java
// source. Each request gets its own scratch workspace which is removed when
// the request finishes. Compiled languages go through a compile step and a
// run step, each under its own wall-clock deadline; on expiry the process
// group (or container) is killed.
//
// Toolchains run either directly on the host (LocalLauncher) or inside a
// docker or podman container per step (ContainerLauncher).
//
// Usage:
//
//	executor := sandbox.NewExecutor(logger, sandbox.Options{})
//	result, err := executor.Execute(ctx, sandbox.ExecuteRequest{
//	    Language: "python",
//	    Code:     "print('Hello, World!')",
//	})
package sandbox
