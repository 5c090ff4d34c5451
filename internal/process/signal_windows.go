//go:build windows

package process

import (
	"os"
	"os/exec"
)

func configureProcAttr(*exec.Cmd) {}

// Windows has no deliverable terminate signal for console children; the
// graceful step is a kill as well.
func terminate(p *os.Process) error { return p.Kill() }

func kill(p *os.Process) error { return p.Kill() }

func signalInfo(*os.ProcessState) (bool, string) { return false, "" }

func checkExecutable(string) error { return nil }
