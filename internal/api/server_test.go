package api_test

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"testing"
	"time"

	"syncoracle/internal/api"
	"syncoracle/internal/journal"
)

const testAddr = "127.0.0.1:42199"

func TestFindingsService(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "api_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	jnl, err := journal.Open(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer jnl.Close()

	finding := journal.Finding{
		URI:        "file:///a.txt",
		Kind:       "inconsistency",
		Detail:     "diverged",
		ShadowText: "abc",
		EngineText: "abd",
	}
	if err := jnl.RecordFinding(finding); err != nil {
		t.Fatalf("Failed to record finding: %v", err)
	}
	if err := jnl.RecordEvent(journal.Event{URI: "file:///a.txt", Kind: journal.EventChange}); err != nil {
		t.Fatalf("Failed to record event: %v", err)
	}

	// Start the server in a separate goroutine
	go func() {
		api.StartServer(testAddr, jnl)
	}()

	// Allow the server to start
	time.Sleep(200 * time.Millisecond)

	conn, err := net.Dial("tcp", testAddr)
	if err != nil {
		t.Fatalf("Failed to connect to server: %v", err)
	}
	defer conn.Close()

	client := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))

	t.Run("FindingsGetAll", func(t *testing.T) {
		params := api.FindingsParams{}
		var result api.FindingsResult
		if err := client.Call("Findings.GetAll", &params, &result); err != nil {
			t.Fatalf("RPC call failed: %v", err)
		}
		if result.Error != "" {
			t.Fatalf("unexpected service error: %s", result.Error)
		}
		if len(result.Findings) != 1 {
			t.Fatalf("got %d findings, want 1", len(result.Findings))
		}
		if result.Findings[0].EngineText != "abd" {
			t.Errorf("EngineText = %q, want %q", result.Findings[0].EngineText, "abd")
		}
	})

	t.Run("FindingsGetForDocument", func(t *testing.T) {
		params := api.FindingsParams{URI: "file:///other.txt"}
		var result api.FindingsResult
		if err := client.Call("Findings.GetForDocument", &params, &result); err != nil {
			t.Fatalf("RPC call failed: %v", err)
		}
		if len(result.Findings) != 0 {
			t.Errorf("got %d findings for unknown uri, want 0", len(result.Findings))
		}
	})

	t.Run("EventsRecent", func(t *testing.T) {
		params := api.EventsParams{Limit: 10}
		var result api.EventsResult
		if err := client.Call("Events.Recent", &params, &result); err != nil {
			t.Fatalf("RPC call failed: %v", err)
		}
		if len(result.Events) != 1 {
			t.Fatalf("got %d events, want 1", len(result.Events))
		}
		if result.Events[0].Kind != journal.EventChange {
			t.Errorf("Kind = %q, want %q", result.Events[0].Kind, journal.EventChange)
		}
	})
}
