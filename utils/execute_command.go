package utils

import (
	"bufio"
	"bytes"
	"os/exec"
	"strings"

	"github.com/ansel1/merry/v2"
)

// ExecuteCmd runs cmd, passing stdout to outputCallback line by line, and returns the whole
// stdout once the process exits. Stderr is attached to the error on failure.
func ExecuteCmd(cmd *exec.Cmd, outputCallback func(string)) (string, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", merry.Wrap(err)
	}

	errorBytes := bytes.Buffer{}
	cmd.Stderr = &errorBytes

	err = cmd.Start()
	if err != nil {
		return "", merry.Wrap(err, merry.WithMessagef("start %s failed", cmd.Path))
	}

	var result strings.Builder

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		result.WriteString(line)
		result.WriteString("\n")
		if outputCallback != nil {
			outputCallback(line)
		}
	}

	err = cmd.Wait()
	if err != nil {
		return "", merry.Wrap(err, merry.WithMessagef("execution failed: %s\nmessage: %s", err.Error(), strings.TrimSpace(errorBytes.String())))
	}

	return result.String(), nil
}
