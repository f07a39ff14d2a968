package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	bugstr "github.com/bugstr/client-go"
)

// bugstr-send delivers a crash report read from a file (or stdin) to the
// recipient configured via environment:
//
//	BUGSTR_RECIPIENT  recipient public key (64 hex chars, required)
//	BUGSTR_RELAYS     comma-separated relay urls (optional)
//
// usage: bugstr-send [report.json]
func main() {
	// Optional .env next to the binary; environment wins over the file.
	_ = godotenv.Load()

	recipient := os.Getenv("BUGSTR_RECIPIENT")
	if recipient == "" {
		fatal("BUGSTR_RECIPIENT is required")
	}

	opts := []bugstr.Option{}
	if relays := os.Getenv("BUGSTR_RELAYS"); relays != "" {
		opts = append(opts, bugstr.WithRelays(strings.Split(relays, ",")...))
	}

	client, err := bugstr.New(recipient, opts...)
	if err != nil {
		fatal("create client: %v", err)
	}

	payload, err := readPayload(os.Args[1:])
	if err != nil {
		fatal("read payload: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	outcome, err := client.Send(ctx, payload, bugstr.WithProgress(printProgress))
	if err != nil {
		fatal("send: %v", err)
	}

	fmt.Printf("status: %s wrap=%s", outcome.Status, outcome.WrapID)
	if outcome.ChunkCount > 0 {
		fmt.Printf(" chunks=%d lost=%d", outcome.ChunkCount, len(outcome.LostChunks))
	}
	fmt.Println()
}

func readPayload(args []string) ([]byte, error) {
	if len(args) > 0 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}

func printProgress(p bugstr.Progress) {
	fmt.Fprintf(os.Stderr, "[%s] %d/%d %.0f%% eta=%.0fs %s\n",
		p.Phase, p.CurrentUnit, p.TotalUnits, p.FractionCompleted*100, p.ETASeconds, p.Description)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
