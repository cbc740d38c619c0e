package e2e_test

import (
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
	workDir    string
}

func newCLIRunner(t *testing.T) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "clubhouse-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/clubhouse")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
		workDir:    t.TempDir(),
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	cmd := exec.Command(r.binaryPath, args...)
	cmd.Dir = r.workDir
	cmd.Env = append(os.Environ(), "CLUBHOUSE_TOKEN=")
	return cmd
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	output, err := r.command(fullArgs...).CombinedOutput()
	return string(output), err
}

// serve starts the server subcommand on a free port and waits for it
func (r *cliRunner) serve(t *testing.T) *exec.Cmd {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	cmd := r.command("serve",
		"--backend", "memory",
		"--host", "127.0.0.1",
		"--port", strconv.Itoa(port),
		"--log-level", "error",
	)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	r.serverURL = "http://127.0.0.1:" + strconv.Itoa(port)
	waitForServer(t, r.serverURL+"/api/v1/health")
	return cmd
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(10 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type versioned struct {
	Current int64   `json:"current"`
	History []int64 `json:"history"`
}

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	SessionToken string `json:"session_token"`
}

type clubResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ManagerFunds versioned `json:"manager_funds"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Tests

func TestCLI_ServeAndClient(t *testing.T) {
	cli := newCLIRunner(t)
	server := cli.serve(t)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)
	var health healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &health))
	assert.Equal(t, "ok", health.Status)

	// Register (token is saved to the token file)
	output, err = cli.run("user", "register", "--name", "Alice", "--email", "alice@example.com", "--pass", "correct-horse")
	require.NoError(t, err, "output: %s", output)
	var auth authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth))
	assert.Equal(t, "alice@example.com", auth.User.Email)
	assert.NotEmpty(t, auth.SessionToken)

	output, err = cli.run("club", "create", "--name", "Harbour Town", "--country", "NZ", "--funds", "1000")
	require.NoError(t, err, "output: %s", output)
	var club clubResponse
	require.NoError(t, json.Unmarshal([]byte(output), &club))

	output, err = cli.run("club", "funds", club.ID, "--delta=500")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &club))
	assert.Equal(t, []int64{1500, 1000}, club.ManagerFunds.History)

	output, err = cli.run("club", "delete", club.ID)
	require.NoError(t, err, "output: %s", output)
	var msg messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msg))
	assert.Equal(t, "Club deleted", msg.Message)

	// Interrupt shuts the server down cleanly
	require.NoError(t, server.Process.Signal(syscall.SIGINT))
	done := make(chan error, 1)
	go func() { done <- server.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after interrupt")
	}
}

func TestCLI_ErrorHandling(t *testing.T) {
	cli := newCLIRunner(t)
	cli.serve(t)

	// No token yet
	output, err := cli.run("club", "list")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	output, err = cli.run("user", "login", "--email", "nobody@example.com", "--pass", "whatever-123")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_CREDENTIALS")
}

func TestCLI_Version(t *testing.T) {
	cli := newCLIRunner(t)

	output, err := cli.command("version").CombinedOutput()
	require.NoError(t, err)
	assert.Equal(t, "dev\n", string(output))
}
