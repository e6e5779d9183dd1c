//go:build integration

// Package integration runs the devdraft binary and the SDK against a live API.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	BaseURL    string
	APIKey     string
	ListPath   string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	listPath := os.Getenv("DEVDRAFT_INTEGRATION_LIST_PATH")
	if listPath == "" {
		listPath = "/customers"
	}

	return &TestConfig{
		BaseURL:    os.Getenv("DEVDRAFT_INTEGRATION_BASE_URL"),
		APIKey:     os.Getenv("DEVDRAFT_INTEGRATION_API_KEY"),
		ListPath:   listPath,
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("DEVDRAFT_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the devdraft binary
func getBinaryPath() string {
	if path := os.Getenv("DEVDRAFT_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../devdraft",
		"./devdraft",
		"../devdraft",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "devdraft"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.BaseURL == "" || config.APIKey == "" {
		t.Skip("DEVDRAFT_INTEGRATION_BASE_URL or DEVDRAFT_INTEGRATION_API_KEY not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips test if the CLI binary cannot be found
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("devdraft binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the devdraft binary with an isolated config file
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a devdraft command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a devdraft command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(),
		"DEVDRAFT_BASE_URL="+runner.config.BaseURL,
	)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// AssertJSONOutput fails the test when output is not valid JSON
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	var decoded interface{}
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Errorf("output is not valid JSON: %v\n%s", err, output)
	}
}
