// Command basecamp-stub serves an in-memory marketplace API for local
// development of the basecamp client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/stubapi"
)

const envSecret = "BASECAMP_STUB_SECRET"

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	secret := flag.String("secret", "", "token signing secret (defaults to $"+envSecret+")")
	user := flag.String("user", "7", "user id the printed dev token belongs to")
	flag.Parse()

	key := *secret
	if key == "" {
		key = os.Getenv(envSecret)
	}
	if key == "" {
		key = "basecamp-dev"
	}

	gin.SetMode(gin.ReleaseMode)
	srv := stubapi.New([]byte(key), stubapi.DefaultSeed())

	token, err := srv.IssueToken(api.ID(*user), "tourist", 24*time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "basecamp-stub: %v\n", err)
		return 1
	}
	fmt.Printf("serving http://%s/api\n", *addr)
	fmt.Printf("dev token for user %s:\n%s\n", *user, token)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- httpServer.ListenAndServe() }()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "basecamp-stub: %v\n", err)
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
	return 0
}
