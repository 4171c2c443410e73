//go:build !unix

package sidecar

import (
	"os"
	"os/exec"
)

func configureCommand(*exec.Cmd) {}

func killProcess(p *os.Process) error {
	if p == nil {
		return os.ErrProcessDone
	}
	return p.Kill()
}
