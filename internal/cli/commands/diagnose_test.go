package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/threadsplit/pkg/config"
)

const diagnoseHistory = `ThreadId(1): [Start] boot
ThreadId(1): [Ready] idle
ThreadId(2): [Start] boot
ThreadId(2): [Stop] thread_terminated
`

func clearThreadsplitEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvInput, "")
	t.Setenv(config.EnvOutputDir, "")
	t.Setenv(config.EnvMissing, "")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestNewDiagnoseCommand(t *testing.T) {
	cmd := NewDiagnoseCommand()

	if cmd.Use != "diagnose [config-file]" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	if cmd.Flags().Lookup("verbose") == nil {
		t.Error("Missing verbose flag")
	}
}

func TestCheckConfig_NotFound(t *testing.T) {
	clearThreadsplitEnv(t)

	cfg, result := checkConfig(context.Background(), "/nonexistent/config.yaml")

	if cfg != nil {
		t.Error("Expected nil config")
	}
	if result.Status != StatusError {
		t.Errorf("Expected error status, got %s", result.Status)
	}
	if len(result.Suggests) == 0 {
		t.Error("Expected suggestions for a missing config")
	}
}

func TestCheckConfig_InvalidYAML(t *testing.T) {
	clearThreadsplitEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "input: [unclosed\n")

	_, result := checkConfig(context.Background(), path)

	if result.Status != StatusError {
		t.Errorf("Expected error status, got %s", result.Status)
	}
}

func TestCheckConfig_Defaults(t *testing.T) {
	clearThreadsplitEnv(t)

	cfg, result := checkConfig(context.Background(), "")

	if result.Status != StatusOK {
		t.Fatalf("Expected ok status, got %s: %s", result.Status, result.Message)
	}
	if cfg.Input != config.DefaultInput {
		t.Errorf("Input = %q, want %q", cfg.Input, config.DefaultInput)
	}
	if !strings.Contains(result.Message, "defaults") {
		t.Errorf("Expected defaults message, got: %s", result.Message)
	}
}

func TestCheckInput(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "history")
	empty := filepath.Join(dir, "empty")
	writeFile(t, present, diagnoseHistory)
	writeFile(t, empty, "")

	tests := []struct {
		name   string
		input  string
		status string
	}{
		{"present", present, StatusOK},
		{"empty", empty, StatusWarning},
		{"missing", filepath.Join(dir, "nope"), StatusError},
		{"directory", dir, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checkInput(&config.Config{Input: tt.input})
			if result.Status != tt.status {
				t.Errorf("Status = %s, want %s (%s)", result.Status, tt.status, result.Message)
			}
		})
	}
}

func TestCheckLinePattern(t *testing.T) {
	dir := t.TempDir()

	t.Run("all lines match", func(t *testing.T) {
		path := filepath.Join(dir, "clean")
		writeFile(t, path, diagnoseHistory)

		result := checkLinePattern(context.Background(), &config.Config{Input: path}, &DiagnoseOptions{})
		if result.Status != StatusOK {
			t.Errorf("Status = %s, want ok (%s)", result.Status, result.Message)
		}
		if !strings.Contains(result.Message, "2 thread(s)") {
			t.Errorf("Unexpected message: %s", result.Message)
		}
	})

	t.Run("some lines ignored", func(t *testing.T) {
		path := filepath.Join(dir, "mixed")
		writeFile(t, path, diagnoseHistory+"garbage line\n")

		result := checkLinePattern(context.Background(), &config.Config{Input: path}, &DiagnoseOptions{})
		if result.Status != StatusWarning {
			t.Errorf("Status = %s, want warning", result.Status)
		}
		if len(result.Details) != 1 || !strings.Contains(result.Details[0], "garbage line") {
			t.Errorf("Unexpected details: %v", result.Details)
		}
	})

	t.Run("nothing matches", func(t *testing.T) {
		path := filepath.Join(dir, "none")
		writeFile(t, path, "one\ntwo\n")

		result := checkLinePattern(context.Background(), &config.Config{Input: path}, &DiagnoseOptions{})
		if result.Status != StatusError {
			t.Errorf("Status = %s, want error", result.Status)
		}
	})
}

func TestCheckOutputDir(t *testing.T) {
	t.Run("does not exist", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")
		result := checkOutputDir(&config.Config{OutputDir: dir})
		if result.Status != StatusOK {
			t.Errorf("Status = %s, want ok", result.Status)
		}
	})

	t.Run("previous output only", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "thread_1_all"), "x\n")
		writeFile(t, filepath.Join(dir, "last_Start"), "x\n")

		result := checkOutputDir(&config.Config{OutputDir: dir})
		if result.Status != StatusOK {
			t.Errorf("Status = %s, want ok (%s)", result.Status, result.Message)
		}
	})

	t.Run("foreign files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "thread_1_all"), "x\n")
		writeFile(t, filepath.Join(dir, "notes.txt"), "keep me\n")

		result := checkOutputDir(&config.Config{OutputDir: dir})
		if result.Status != StatusWarning {
			t.Errorf("Status = %s, want warning", result.Status)
		}
		if len(result.Details) != 1 || result.Details[0] != "notes.txt" {
			t.Errorf("Details = %v, want [notes.txt]", result.Details)
		}
	})

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs")
		writeFile(t, path, "")

		result := checkOutputDir(&config.Config{OutputDir: path})
		if result.Status != StatusError {
			t.Errorf("Status = %s, want error", result.Status)
		}
	})
}

func TestCheckWebhooks(t *testing.T) {
	t.Run("none configured", func(t *testing.T) {
		if got := checkWebhooks(&config.Config{}, &DiagnoseOptions{}); len(got) != 0 {
			t.Errorf("Expected no results, got %d", len(got))
		}
		if got := checkWebhooks(&config.Config{}, &DiagnoseOptions{Verbose: true}); len(got) != 1 {
			t.Errorf("Expected one result in verbose mode, got %d", len(got))
		}
	})

	t.Run("verbose adds connectivity", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := &config.Config{Webhooks: []config.WebhookConfig{{
			Name:    "ops",
			URL:     server.URL,
			Trigger: config.WebhookTriggerAlways,
			Timeout: time.Second,
		}}}

		results := checkWebhooks(cfg, &DiagnoseOptions{Verbose: true})
		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}
		if results[1].Status != StatusOK {
			t.Errorf("Connectivity status = %s (%s)", results[1].Status, results[1].Message)
		}
	})
}

func TestCheckWebhookConnectivity_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	result := checkWebhookConnectivity(config.WebhookConfig{URL: server.URL})
	if result.Status != StatusWarning {
		t.Errorf("Status = %s, want warning", result.Status)
	}
}

func TestRunDiagnose_StopsOnConfigError(t *testing.T) {
	clearThreadsplitEnv(t)

	results := runDiagnose(context.Background(), "/nonexistent/config.yaml", &DiagnoseOptions{})
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}

func TestRunDiagnose_Ready(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "history")
	writeFile(t, input, diagnoseHistory)

	clearThreadsplitEnv(t)
	t.Setenv(config.EnvInput, input)
	t.Setenv(config.EnvOutputDir, filepath.Join(dir, "logs"))

	results := runDiagnose(context.Background(), "", &DiagnoseOptions{})

	var buf bytes.Buffer
	printDiagnostics(&buf, results, &DiagnoseOptions{})
	out := buf.String()

	if !strings.Contains(out, "4 passed, 0 warnings, 0 errors") {
		t.Errorf("Unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "Ready to split!") {
		t.Errorf("Expected ready message:\n%s", out)
	}
}

func TestPrintDiagnostics_Failures(t *testing.T) {
	results := []DiagnosticResult{
		{Check: "Config", Status: StatusOK, Message: "fine"},
		{Check: "Input File", Status: StatusError, Message: "missing", Details: []string{"detail"}, Suggests: []string{"fix it"}},
		{Check: "Output Directory", Status: StatusWarning, Message: "hmm"},
	}

	var buf bytes.Buffer
	printDiagnostics(&buf, results, &DiagnoseOptions{})
	out := buf.String()

	for _, want := range []string{"[PASS] Config", "[FAIL] Input File", "[WARN] Output Directory", "- detail", "Hint: fix it", "1 passed, 1 warnings, 1 errors", "Fix the errors above"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdefghijkl", 8); got != "abcde..." {
		t.Errorf("truncate long = %q", got)
	}
}
