// Command mcp-test-server runs a small MCP server for trying remote tool
// servers end to end. Vendors that accept tool_servers (Responses API,
// Anthropic Messages) call it directly; it must be reachable from the
// vendor, e.g. through a tunnel.
//
// Tools: "echo" and "get_weather" (canned, deterministic answers).
//
// Configuration:
//
//	PORT      - Listen port (default: 8080)
//	MCP_TOKEN - When set, requests must carry "Authorization: Bearer <token>"
package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{Addr: ":" + port, Handler: newMux(newServer(), os.Getenv("MCP_TOKEN"))}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mcp test server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mcp test server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

type echoInput struct {
	Message string `json:"message" jsonschema:"the message to echo back"`
}

type weatherInput struct {
	Location string `json:"location,omitempty" jsonschema:"city name"`
	Unit     string `json:"unit,omitempty" jsonschema:"celsius or fahrenheit"`
}

func newServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "onair-test-mcp", Version: "v1.0.0"},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "echo",
		Description: "Echoes the provided message back",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in echoInput) (*mcp.CallToolResult, any, error) {
		return textResult("Echo: " + in.Message), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_weather",
		Description: "Returns the current weather for a city",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in weatherInput) (*mcp.CallToolResult, any, error) {
		if in.Location == "" {
			return nil, nil, fmt.Errorf("location is required")
		}
		temp := "22°C"
		if strings.EqualFold(in.Unit, "fahrenheit") {
			temp = "72°F"
		}
		return textResult(fmt.Sprintf("Sunny, %s in %s", temp, in.Location)), nil, nil
	})

	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func newMux(server *mcp.Server, token string) *http.ServeMux {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", requireToken(token, handler))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return mux
}

// requireToken rejects requests without the bearer token. An empty token
// disables the check.
func requireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	want := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
