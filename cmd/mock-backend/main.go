// Command mock-backend runs a deterministic fake of every vendor dialect
// the normalizer reads: OpenAI Chat Completions and Responses, Anthropic
// Messages, and Gemini generateContent. Replies depend only on the
// request, so end-to-end runs are reproducible.
//
// Scenarios:
//   - a request offering tools gets a get_weather call whose arguments
//     are split across several frames
//   - a Responses or Anthropic request with tool servers gets a remote
//     tool call and its result, then text
//   - "count from 1 to 5" gets "1, 2, 3, 4, 5"
//   - anything else gets "Hello, nice day!"
//
// The Gemini v1 route always answers 404 so clients exercise the
// fallback to v1beta.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	srv := &http.Server{Addr: ":" + port, Handler: newMux()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("POST /v1/responses", handleResponses)
	mux.HandleFunc("POST /v1/messages", handleMessages)
	mux.HandleFunc("POST /v1/models/{call}", handleGeminiV1)
	mux.HandleFunc("POST /v1beta/models/{call}", handleGemini)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}
