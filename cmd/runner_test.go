package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/yard/internal/shared"
	tu "github.com/desertthunder/yard/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// testConfig returns a config on a fresh SQLite file with the cheapest bcrypt cost, saved next to it.
func testConfig(t *testing.T) (*shared.Config, string) {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.DSN = filepath.Join(dir, "yard.db")
	config.Auth.Hasher = "bcrypt"
	config.Auth.BcryptCost = 4
	config.Log.Level = "error"

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, shared.SaveConfig(path, config))
	return config, path
}

func newTestRunner(t *testing.T, input string) (*Runner, *bytes.Buffer, string) {
	t.Helper()

	config, path := testConfig(t)
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
		Input:  strings.NewReader(input),
		Browser: func(string) error {
			t.Error("browser should not be opened")
			return nil
		},
	})
	return runner, output, path
}

func runApp(ctx context.Context, r *Runner, args ...string) error {
	app := &cli.Command{
		Name:     "yard",
		Writer:   io.Discard,
		Commands: r.register(),
	}
	return app.Run(ctx, append([]string{"yard"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			input := strings.NewReader("")

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Input:   input,
				Browser: func(string) error { return nil },
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.input != input {
				t.Error("expected input to be set")
			}
			if runner.browser == nil {
				t.Error("expected browser to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output and input uses stdio", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
			if runner.browser == nil {
				t.Error("expected default browser opener")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := make([]string, 0, len(commands))
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}

		assert.Equal(t, []string{"setup", "serve", "accounts", "containers", "tui"}, names)
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("reads the config flag", func(t *testing.T) {
			runner, output, path := newTestRunner(t, "")
			runner.config = shared.DefaultConfig()

			require.NoError(t, runApp(context.Background(), runner, "setup", "database", "--config", path))
			assert.Equal(t, path, runner.configPath)
			assert.Equal(t, "bcrypt", runner.config.Auth.Hasher)
			assert.Contains(t, output.String(), "✓ Database ready at schema version")
		})

		t.Run("rejects an invalid file", func(t *testing.T) {
			runner, _, _ := newTestRunner(t, "")
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte("[database]\ndriver = \"mysql\"\n"), 0644))

			err := runApp(context.Background(), runner, "setup", "status", "--config", path)
			assert.ErrorIs(t, err, shared.ErrUnsupportedDriver)
		})

		t.Run("keeps the current config when the file is missing", func(t *testing.T) {
			runner, _, _ := newTestRunner(t, "")
			dsn := runner.config.Database.DSN
			missing := filepath.Join(t.TempDir(), "missing.toml")

			require.NoError(t, runApp(context.Background(), runner, "containers", "list", "--config", missing))
			assert.Equal(t, dsn, runner.config.Database.DSN)
		})
	})
}

func TestSetupCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("status lists applied migrations", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")
		require.NoError(t, runApp(ctx, runner, "setup", "database", "--config", path))
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "setup", "status", "--config", path))
		assert.Contains(t, output.String(), "Migrations")
		assert.Contains(t, output.String(), "applied")
		assert.NotContains(t, output.String(), "pending")
	})

	t.Run("rollback then status shows pending", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")
		require.NoError(t, runApp(ctx, runner, "setup", "database", "--config", path))

		require.NoError(t, runApp(ctx, runner, "setup", "rollback", "--config", path))
		assert.Contains(t, output.String(), "✓ Rolled back to schema version")
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "setup", "status", "--config", path))
		assert.Contains(t, output.String(), "pending")
	})

	t.Run("config writes the template once", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, "")
		path := filepath.Join(t.TempDir(), "config.toml")

		require.NoError(t, runApp(ctx, runner, "setup", "config", "-o", path))
		tu.AssertFileExists(t, path)
		assert.Contains(t, tu.MustReadFile(t, path), "[yard]")
		assert.Contains(t, output.String(), "✓ Wrote example configuration")

		err := runApp(ctx, runner, "setup", "config", "-o", path)
		assert.ErrorContains(t, err, "already exists")
	})
}

func TestAccountsCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("register and verify", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")

		require.NoError(t, runApp(ctx, runner, "accounts", "register", "--config", path, "--password", "pw1", "Alice"))
		assert.Contains(t, output.String(), "✓ Account alice created")

		require.NoError(t, runApp(ctx, runner, "accounts", "verify", "--config", path, "--password", "pw1", "alice"))
		assert.Contains(t, output.String(), "✓ Credentials valid for alice")
	})

	t.Run("wrong password", func(t *testing.T) {
		runner, _, path := newTestRunner(t, "")
		require.NoError(t, runApp(ctx, runner, "accounts", "register", "--config", path, "--password", "pw1", "bob"))

		err := runApp(ctx, runner, "accounts", "verify", "--config", path, "--password", "nope", "bob")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})

	t.Run("duplicate username", func(t *testing.T) {
		runner, _, path := newTestRunner(t, "")
		require.NoError(t, runApp(ctx, runner, "accounts", "register", "--config", path, "--password", "pw1", "bob"))

		err := runApp(ctx, runner, "accounts", "register", "--config", path, "--password", "pw2", "BOB")
		assert.ErrorIs(t, err, shared.ErrDuplicateKey)
		assert.ErrorContains(t, err, `"bob" already exists`)
	})

	t.Run("password read from input", func(t *testing.T) {
		runner, _, path := newTestRunner(t, "s3cret\n")
		require.NoError(t, runApp(ctx, runner, "accounts", "register", "--config", path, "carol"))

		require.NoError(t, runApp(ctx, runner, "accounts", "verify", "--config", path, "--password", "s3cret", "carol"))
	})

	t.Run("missing username", func(t *testing.T) {
		runner, _, path := newTestRunner(t, "")

		err := runApp(ctx, runner, "accounts", "register", "--config", path, "--password", "pw")
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("empty password", func(t *testing.T) {
		runner, _, path := newTestRunner(t, "")

		err := runApp(ctx, runner, "accounts", "register", "--config", path, "dave")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestContainersCommands(t *testing.T) {
	ctx := context.Background()

	add := func(t *testing.T, r *Runner, path, number, row, col string) error {
		t.Helper()
		return runApp(ctx, r, "containers", "add", "--config", path,
			"--number", number, "--origin", "Shanghai", "--destination", "Rotterdam",
			"--row", row, "--col", col, "--owner", "Maersk")
	}

	t.Run("add and list", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")

		require.NoError(t, add(t, runner, path, " MSCU1234567 ", "2", "3"))
		assert.Contains(t, output.String(), "✓ Container MSCU1234567 placed at row 2, column 3")
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "containers", "list", "--config", path, "--format", "json"))
		assert.Contains(t, output.String(), `"number":"MSCU1234567"`)
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "containers", "list", "--config", path, "--format", "csv"))
		assert.True(t, strings.HasPrefix(output.String(), "Number,Origin,Destination,Row,Column,Owner,Created"))
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "containers", "list", "--config", path))
		assert.Contains(t, output.String(), "1 container(s)")
	})

	t.Run("list to file", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")
		require.NoError(t, add(t, runner, path, "TGHU0000001", "1", "1"))

		out := filepath.Join(t.TempDir(), "yard.md")
		require.NoError(t, runApp(ctx, runner, "containers", "list", "--config", path, "-f", "markdown", "-o", out))
		assert.Contains(t, output.String(), "✓ Exported 1 container(s)")
		assert.Contains(t, tu.MustReadFile(t, out), "TGHU0000001")
	})

	t.Run("invalid format", func(t *testing.T) {
		runner, _, path := newTestRunner(t, "")

		err := runApp(ctx, runner, "containers", "list", "--config", path, "--format", "xml")
		assert.ErrorIs(t, err, shared.ErrInvalidFlag)
	})

	t.Run("duplicate number", func(t *testing.T) {
		runner, _, path := newTestRunner(t, "")
		require.NoError(t, add(t, runner, path, "MSCU1234567", "1", "1"))

		assert.ErrorIs(t, add(t, runner, path, "MSCU1234567", "2", "2"), shared.ErrDuplicateKey)
	})

	t.Run("positions outside the grid", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")

		require.NoError(t, add(t, runner, path, "CNT777", "7", "0"))
		assert.Contains(t, output.String(), "placed at row 7, column 0")

		config, err := shared.LoadConfig(path)
		require.NoError(t, err)
		config.Yard.EnforceBounds = true
		require.NoError(t, shared.SaveConfig(path, config))

		assert.ErrorIs(t, add(t, runner, path, "CNT778", "6", "1"), shared.ErrValidation)
	})

	t.Run("search", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")
		require.NoError(t, add(t, runner, path, "MSCU1234567", "4", "5"))
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "containers", "search", "--config", path, "MSCU1234567"))
		assert.Contains(t, output.String(), "Container MSCU1234567")
		assert.Contains(t, output.String(), "row 4, column 5")
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "containers", "search", "--config", path, "--json", "MSCU1234567"))
		assert.Contains(t, output.String(), `"owner": "Maersk"`)
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "containers", "search", "--config", path, "NOPE0000000"))
		assert.Contains(t, output.String(), `No container found with number "NOPE0000000"`)
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "containers", "search", "--config", path, "--json", "NOPE0000000"))
		assert.Equal(t, "null\n", output.String())

		err := runApp(ctx, runner, "containers", "search", "--config", path)
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("import", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")
		csvPath := filepath.Join(t.TempDir(), "yard.csv")
		input := "Number,Origin,Destination,Row,Column,Owner\n" +
			"CNT001,Rotterdam,Singapore,1,1,Maersk\n" +
			"CNT002,Hamburg,Oslo,2,2,MSC\n" +
			"CNT001,Bergen,Oslo,3,3,MSC\n"
		require.NoError(t, os.WriteFile(csvPath, []byte(input), 0644))

		require.NoError(t, runApp(ctx, runner, "containers", "import", "--config", path, "--workers", "1", csvPath))
		assert.Contains(t, output.String(), "✓ Imported 2 of 3 container(s)")
		assert.Contains(t, output.String(), "✗ line 4 (CNT001)")

		err := runApp(ctx, runner, "containers", "import", "--config", path, filepath.Join(t.TempDir(), "missing.csv"))
		assert.ErrorContains(t, err, "failed to open import file")

		err = runApp(ctx, runner, "containers", "import", "--config", path)
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("grid", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")
		require.NoError(t, add(t, runner, path, "MSCU1234567", "1", "1"))
		output.Reset()

		require.NoError(t, runApp(ctx, runner, "containers", "grid", "--config", path))
		assert.Contains(t, output.String(), "Yard 5x5")
		assert.Contains(t, output.String(), "1 container(s)")
	})
}

func TestServe(t *testing.T) {
	t.Run("newApp with memory sessions", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, "")
		ctx := context.Background()

		s, db, err := runner.openStore(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		handler, cleanup, err := runner.newApp(ctx, s)
		require.NoError(t, err)
		t.Cleanup(cleanup)

		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		ts := srv.URL

		resp, err := http.Get(ts + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = http.Get(ts + "/missing")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, err = http.Get(ts + "/dashboard")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "/login", resp.Request.URL.Path)
	})

	t.Run("newApp with redis sessions", func(t *testing.T) {
		mr := miniredis.RunT(t)
		runner, _, _ := newTestRunner(t, "")
		runner.config.Session.Backend = "redis"
		runner.config.Session.RedisAddr = mr.Addr()
		ctx := context.Background()

		s, db, err := runner.openStore(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		_, cleanup, err := runner.newApp(ctx, s)
		require.NoError(t, err)
		cleanup()
	})

	t.Run("newSessionStore errors", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, "")

		runner.config.Session.Backend = "redis"
		runner.config.Session.RedisAddr = "127.0.0.1:1"
		_, _, err := runner.newSessionStore(context.Background())
		assert.Error(t, err)

		runner.config.Session.Backend = "memcached"
		_, _, err = runner.newSessionStore(context.Background())
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})

	t.Run("serve until cancelled", func(t *testing.T) {
		runner, output, path := newTestRunner(t, "")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		status := make(chan int, 1)
		runner.browser = func(url string) error {
			go func() {
				defer cancel()
				resp, err := http.Get(url + "/healthz")
				if err != nil {
					status <- 0
					return
				}
				resp.Body.Close()
				status <- resp.StatusCode
			}()
			return nil
		}

		err := runApp(ctx, runner, "serve", "--config", path, "--addr", "127.0.0.1:0", "--open")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, <-status)
		assert.Contains(t, output.String(), "→ Yard is running at http://127.0.0.1:")
	})

	t.Run("serve fails on a bad database", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, "")
		path := filepath.Join(t.TempDir(), "config.toml")
		config := shared.DefaultConfig()
		config.Database.Driver = "pgx"
		config.Database.DSN = "postgres://yard@127.0.0.1:1/yard?connect_timeout=1"
		require.NoError(t, shared.SaveConfig(path, config))

		err := runApp(context.Background(), runner, "serve", "--config", path, "--addr", "127.0.0.1:0")
		assert.ErrorContains(t, err, "failed to open database")
	})
}

func TestBrowserCommand(t *testing.T) {
	original := getRuntime
	t.Cleanup(func() { getRuntime = original })

	tc := []struct {
		goos string
		want []string
	}{
		{"darwin", []string{"open", "http://x"}},
		{"linux", []string{"xdg-open", "http://x"}},
		{"windows", []string{"cmd", "/c", "start", "http://x"}},
	}

	for _, c := range tc {
		t.Run(c.goos, func(t *testing.T) {
			getRuntime = func() string { return c.goos }

			cmd, err := browserCommand("http://x")
			require.NoError(t, err)
			assert.Equal(t, c.want, cmd.Args)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }

		_, err := browserCommand("http://x")
		assert.ErrorContains(t, err, "unsupported platform: plan9")
		assert.Error(t, openBrowser("http://x"))
	})
}
