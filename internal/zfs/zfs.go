// Package zfs talks to the zfs command-line tooling. Everything the
// pruning pipeline needs from the outside world goes through the
// Communicator interface so tests can substitute an in-memory fake.
package zfs

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Communicator is the capability set the pruning pipeline consumes.
type Communicator interface {
	// ListSnapshots returns the raw newline-delimited snapshot names
	// known to zfs.
	ListSnapshots() (string, error)

	// Destroy issues one batched destroy call. The argument is the
	// literal zfs batch syntax: dataset@suffix1,suffix2,...
	Destroy(batch string) error

	// ReadExcludeFile returns the raw newline-delimited contents of an
	// exclude file, one snapshot name per line.
	ReadExcludeFile(path string) (string, error)

	// ExcludeFileExists reports whether an exclude file is accessible.
	ExcludeFileExists(path string) bool
}

// CommandRunner runs external commands. It exists so CLICommunicator
// can be unit-tested without a zfs binary.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner uses os/exec.
type DefaultCommandRunner struct{}

// Run executes a command and returns its combined stdout.
func (r *DefaultCommandRunner) Run(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Stderr = os.Stderr
	return cmd.Output()
}

// CLICommunicator implements Communicator by shelling out to zfs and
// reading exclude files from the local filesystem.
type CLICommunicator struct {
	runner CommandRunner
}

// NewCLICommunicator returns a Communicator backed by the real zfs
// binary.
func NewCLICommunicator() *CLICommunicator {
	return &CLICommunicator{runner: &DefaultCommandRunner{}}
}

// NewCLICommunicatorWithRunner returns a Communicator using a custom
// command runner (for testing).
func NewCLICommunicatorWithRunner(runner CommandRunner) *CLICommunicator {
	return &CLICommunicator{runner: runner}
}

// ListSnapshots runs `zfs list -t snapshot -H -o name -s name`.
func (c *CLICommunicator) ListSnapshots() (string, error) {
	out, err := c.runner.Run("zfs", "list", "-t", "snapshot", "-H", "-o", "name", "-s", "name")
	if err != nil {
		return "", fmt.Errorf("failed to list snapshots: %w", err)
	}
	return string(out), nil
}

// Destroy runs `zfs destroy <batch>`.
func (c *CLICommunicator) Destroy(batch string) error {
	if _, err := c.runner.Run("zfs", "destroy", batch); err != nil {
		return fmt.Errorf("failed to destroy %s: %w", batch, err)
	}
	return nil
}

// ReadExcludeFile reads an exclude file from disk.
func (c *CLICommunicator) ReadExcludeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read exclude file: %w", err)
	}
	return string(data), nil
}

// ExcludeFileExists reports whether path exists on disk.
func (c *CLICommunicator) ExcludeFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Lines splits raw newline-delimited command output into trimmed,
// non-empty lines.
func Lines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
