package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-trainer/internal/userclient"
)

func main() {
	player := flag.String("player", "", "player id to resume (a new player is registered when empty)")
	server := flag.String("server", "http://127.0.0.1:8080", "quiz service base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := userclient.Run(ctx, os.Stdin, os.Stdout, userclient.Config{
		PlayerID:    *player,
		ServerURL:   *server,
		HTTPTimeout: *timeout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
