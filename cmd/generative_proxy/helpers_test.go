package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// isolateEnv pins the variables config.Load reads so a local .env cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ORIGIN_BASE_URL", "REDIS_URL", "DATABASE_URL", "ADMIN_TOKEN", "ADMIN_TOKEN_HASH", "JWT_SECRET",
		"CEREBRAS_API_KEY", "CEREBRAS_BASE_URL", "CLOUDFLARE_ACCOUNT_ID", "CLOUDFLARE_API_TOKEN",
		"GEMINI_API_KEY", "MARKER_CLASS", "LOCATOR", "PORT", "JWT_EXPIRATION_HOURS",
		"PROVIDER_TIMEOUT_SECONDS", "UPSTREAM_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the CLI in-process and returns stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const samplePage = `<!doctype html>
<html><body>
<nav><p>Home</p></nav>
<section class="hero generative-customization">
  <h1>Welcome to Acme</h1>
  <p>We build <strong>rockets</strong>.</p>
  <div class="generative-customization"><p>Nested copy</p></div>
</section>
<footer><p>Copyright</p></footer>
</body></html>`
