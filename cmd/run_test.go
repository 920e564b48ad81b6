package cmd

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	c := &cobra.Command{Use: "test"}
	addPersistentFlags(c.Flags())
	args = append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestSetup_LogFormat(t *testing.T) {
	testCases := []struct {
		name         string
		envLogJSON   string
		args         []string
		expectedJSON bool
	}{
		{name: "text by default", envLogJSON: "false", expectedJSON: false},
		{name: "LOG_JSON enables JSON", envLogJSON: "true", expectedJSON: true},
		{name: "--log-json enables JSON", envLogJSON: "false", args: []string{"--log-json"}, expectedJSON: true},
		{name: "--log-json=false overrides LOG_JSON", envLogJSON: "true", args: []string{"--log-json=false"}, expectedJSON: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ACCESS_TOKEN", "secret")
			t.Setenv("GITHUB_ACTOR", "octocat")
			t.Setenv("LOG_JSON", tc.envLogJSON)

			env, err := setup(newTestCommand(t, tc.args...))

			require.NoError(t, err)
			_, isJSON := env.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tc.expectedJSON, isJSON)
			assert.Equal(t, tc.expectedJSON, env.cfg.LogJSON)
		})
	}
}
