//go:build !unix

package sandbox

import "os/exec"

// configureProcessGroup keeps exec's default of killing the direct child.
func configureProcessGroup(*exec.Cmd) {}

func killProcessGroup(*exec.Cmd) {}
