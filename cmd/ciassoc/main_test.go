package main_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	authToken = "conformance-token"
	ciFDN     = "X=1,Y=1,Z=1"
	eaiFDN    = "EntityAddressInfo=1"
)

const fixture = `managedObjects:
  - fdn: "EntityAddressInfo=1"
    namespace: "OSS_NE_DEF"
    type: "EntityAddressInfo"
    version: "1.0.0"
    name: "1"
  - fdn: "X=1,Y=1,Z=1"
    namespace: "namespace"
    type: "type"
    version: "version"
    name: "ciName"
    entityAddressInfoFdn: "EntityAddressInfo=1"
  - fdn: "X=2"
    namespace: "namespace"
    type: "type"
    version: "version"
    name: "orphan"
`

var (
	binPath   string
	serverURL string
	port      int
)

func TestMain(m *testing.M) {
	os.Exit(runTests(m))
}

func runTests(m *testing.M) int {
	tmpDir, err := os.MkdirTemp("", "ciassoc-conformance-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create tmpdir: %v\n", err)
		return 1
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	binPath = filepath.Join(tmpDir, "ciassoc")

	build := exec.Command("go", "build", "-o", binPath, "./cmd/ciassoc")
	build.Dir = findModuleRoot()
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "build binary: %v\n", err)
		return 1
	}

	seedFile := filepath.Join(tmpDir, "fixture.yaml")
	if err := os.WriteFile(seedFile, []byte(fixture), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "write fixture: %v\n", err)
		return 1
	}

	if port, err = freePort(); err != nil {
		fmt.Fprintf(os.Stderr, "find free port: %v\n", err)
		return 1
	}
	serverURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	cmd := exec.Command(binPath, "serve", "--env-file", filepath.Join(tmpDir, "missing.env"))
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("CIASSOC_ADDR=127.0.0.1:%d", port),
		"CIASSOC_DB="+filepath.Join(tmpDir, "ciassoc.db"),
		"CIASSOC_AUTH_TOKEN="+authToken,
		"CIASSOC_SEED_FILE="+seedFile,
		"CIASSOC_LOG_LEVEL=warn",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start server: %v\n", err)
		return 1
	}

	if err := waitForServer(serverURL, 5*time.Second); err != nil {
		_ = cmd.Process.Kill()
		fmt.Fprintf(os.Stderr, "server not ready: %v\n", err)
		return 1
	}

	code := m.Run()

	_ = cmd.Process.Kill()
	_ = cmd.Wait()

	return code
}

// runCLI runs the binary's run command against the test server.
func runCLI(t *testing.T, fdn string) (string, error) {
	t.Helper()

	cmd := exec.Command(binPath, "run", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	cmd.Env = append(os.Environ(),
		"CIASSOC_REMOTE_HOST=127.0.0.1",
		"CIASSOC_REMOTE_PORT="+strconv.Itoa(port),
		"CIASSOC_TARGET_FDN="+fdn,
		"CIASSOC_AUTH_TOKEN="+authToken,
		"CIASSOC_LOG_LEVEL=error",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

func getJSON(t *testing.T, path string, v any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, serverURL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode, "GET %s", path)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func poIDByFDN(t *testing.T, fdn string) int64 {
	t.Helper()

	var mos struct {
		Results []struct {
			PoID int64  `json:"poId"`
			FDN  string `json:"fdn"`
		} `json:"results"`
	}
	getJSON(t, "/_admin/mos", &mos)
	for _, mo := range mos.Results {
		if mo.FDN == fdn {
			return mo.PoID
		}
	}
	t.Fatalf("managed object %q not seeded", fdn)
	return 0
}

type associations struct {
	Results []struct {
		FromPoID     int64  `json:"fromPoId"`
		ToPoID       int64  `json:"toPoId"`
		EndpointName string `json:"endpointName"`
	} `json:"results"`
}

func TestRunCreatesAssociation(t *testing.T) {
	out, err := runCLI(t, ciFDN)
	require.NoError(t, err, out)

	eaiID := poIDByFDN(t, eaiFDN)
	ciID := poIDByFDN(t, ciFDN)

	var assocs associations
	getJSON(t, "/dps/v1/mos/"+strconv.FormatInt(eaiID, 10)+"/associations", &assocs)
	require.Len(t, assocs.Results, 1)
	assert.Equal(t, eaiID, assocs.Results[0].FromPoID)
	assert.Equal(t, ciID, assocs.Results[0].ToPoID)
	assert.Equal(t, "ciRef", assocs.Results[0].EndpointName)

	// A second run leaves a single association.
	out, err = runCLI(t, ciFDN)
	require.NoError(t, err, out)
	getJSON(t, "/dps/v1/mos/"+strconv.FormatInt(eaiID, 10)+"/associations", &assocs)
	assert.Len(t, assocs.Results, 1)
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name string
		fdn  string
		want string
	}{
		{name: "unknown fdn", fdn: "X=404", want: `managed object "X=404" not found`},
		{name: "no entity address info", fdn: "X=2", want: "entity address info"},
		{name: "empty fdn", fdn: "", want: "targetFdn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.fdn)
			var exitErr *exec.ExitError
			require.ErrorAs(t, err, &exitErr, out)
			assert.Equal(t, 1, exitErr.ExitCode())
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := exec.Command(binPath, "version").CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), "ciassoc version development@")
}

// freePort returns a random available TCP port.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	_ = l.Close()
	if !ok {
		return 0, fmt.Errorf("expected *net.TCPAddr, got %T", l.Addr())
	}
	return tcpAddr.Port, nil
}

// waitForServer polls the health endpoint until it responds or the timeout
// is reached.
func waitForServer(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("server at %s did not become ready within %s", baseURL, timeout)
}

// findModuleRoot walks up from the current directory to find go.mod.
func findModuleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}
