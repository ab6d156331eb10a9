//go:build !unix

package runner

import (
	"os"
	"os/exec"
	"time"
)

func configureProcess(cmd *exec.Cmd) {
	cmd.WaitDelay = time.Second
}

func peakRSS(*os.ProcessState) int64 {
	return 0
}

func exitCode(ps *os.ProcessState) int {
	return ps.ExitCode()
}
