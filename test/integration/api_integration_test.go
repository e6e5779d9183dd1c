//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/devdraft/saligen/pkg/ddclient"
	"github.com/devdraft/saligen/pkg/devdraft"
)

// APIIntegrationTestSuite exercises the SDK and the CLI against a live API
type APIIntegrationTestSuite struct {
	suite.Suite
	config *TestConfig
	client devdraft.Client
}

// SetupSuite initializes the test environment
func (s *APIIntegrationTestSuite) SetupSuite() {
	s.config = LoadTestConfig()
	s.config.SkipIfMissingConfig(s.T())

	client, err := ddclient.New(&devdraft.Config{
		BaseURL:    s.config.BaseURL,
		APIKey:     s.config.APIKey,
		Timeout:    20 * time.Second,
		MaxRetries: 2,
	})
	s.Require().NoError(err)

	s.client = client
}

func (s *APIIntegrationTestSuite) TestSDKGet() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	value, err := s.client.Get(ctx, s.config.ListPath, nil)
	s.Require().NoError(err)
	s.False(value.IsNull())
}

func (s *APIIntegrationTestSuite) TestSDKNotFoundIsNormalized() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := s.client.Get(ctx, "/"+GenerateTestName("does-not-exist"), nil)
	s.Require().Error(err)

	apiErr, ok := devdraft.AsAPIError(err)
	s.Require().True(ok)
	s.NotZero(apiErr.Status)
	s.NotEmpty(apiErr.Message)
}

func (s *APIIntegrationTestSuite) TestSDKBadKeyIsUnauthorized() {
	client, err := ddclient.NewWithAPIKey(s.config.BaseURL, "invalid-"+GenerateTestName("key"))
	s.Require().NoError(err)

	_, err = client.Get(context.Background(), s.config.ListPath, nil)
	s.Require().Error(err)
	s.True(devdraft.IsUnauthorized(err) || devdraft.IsForbidden(err), "got %v", err)
}

func (s *APIIntegrationTestSuite) TestCLIGet() {
	s.config.SkipIfMissingBinary(s.T())

	runner := NewCommandRunner(s.config, s.T())

	stdout, stderr, err := runner.Run("--api-key", s.config.APIKey, "get", s.config.ListPath)
	s.Require().NoError(err, stderr)

	var decoded interface{}
	s.NoError(json.Unmarshal([]byte(stdout), &decoded))
}

func (s *APIIntegrationTestSuite) TestCLILoginAndConfigShow() {
	s.config.SkipIfMissingBinary(s.T())

	runner := NewCommandRunner(s.config, s.T())

	_, stderr, err := runner.RunWithInput(s.config.APIKey+"\n", "login", "--verify", s.config.ListPath)
	s.Require().NoError(err, stderr)

	stdout, _, err := runner.Run("config", "show")
	s.Require().NoError(err)
	s.NotContains(stdout, s.config.APIKey)
}

func (s *APIIntegrationTestSuite) TestCLIErrorExitCode() {
	s.config.SkipIfMissingBinary(s.T())

	runner := NewCommandRunner(s.config, s.T())

	_, stderr, err := runner.Run("--api-key", s.config.APIKey, "get", "/"+GenerateTestName("missing"))
	s.Require().Error(err)

	var exitErr *exec.ExitError
	s.Require().True(errors.As(err, &exitErr))
	s.Equal(1, exitErr.ExitCode())
	s.Contains(stderr, "Error:")
}

func TestAPIIntegration(t *testing.T) {
	suite.Run(t, new(APIIntegrationTestSuite))
}
