package notify

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// envFromProc reads an environment variable from /proc/<pid>/environ.
func envFromProc(pid int, envVar string) (string, error) {
	path := fmt.Sprintf("/proc/%d/environ", pid)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	// environ contains null-separated key=value pairs
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Split(scanNullTerminated)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, envVar+"=") {
			return strings.TrimPrefix(line, envVar+"="), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error scanning environ: %w", err)
	}

	return "", fmt.Errorf("environment variable %s not found", envVar)
}

// scanNullTerminated is a bufio.SplitFunc that splits on null bytes.
func scanNullTerminated(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return i + 1, data[0:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
