package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/go-tenant-bridge/auth"
	"github.com/jrsteele09/go-tenant-bridge/handoff"
	"github.com/jrsteele09/go-tenant-bridge/internal/config"
	"github.com/jrsteele09/go-tenant-bridge/server"
	"github.com/jrsteele09/go-tenant-bridge/sessions"
	"github.com/jrsteele09/go-tenant-bridge/sessions/redisrepo"
	"github.com/jrsteele09/go-tenant-bridge/tenants"
	"github.com/jrsteele09/go-tenant-bridge/users"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	c := config.New()
	displayAppname(c.GetAppName())

	sessionRepo, err := newSessionRepo(c)
	if err != nil {
		return err
	}

	repos := auth.Repos{
		Users:    users.NewInMemoryRepo(),
		Tenants:  tenants.NewInMemoryRepo(),
		Sessions: sessionRepo,
	}

	tokens := handoff.NewInMemoryStore(c.GetHandoffTokenTTL())

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	tokens.StartSweeping(sweepCtx, c.GetSweepInterval())

	srv, err := server.New(c, repos, tokens)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	stopSweeper()
	returnError = shutdown(httpServer)
	return returnError
}

// newSessionRepo selects the session backing store: Redis when
// REDIS_ADDR is configured, in-memory otherwise.
func newSessionRepo(c config.Config) (sessions.Repo, error) {
	addr := c.GetRedisAddr()
	if addr == "" {
		return sessions.NewInMemoryRepo(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %q: %w", addr, err)
	}
	log.Printf("Using Redis session store at %s\n", addr)
	return redisrepo.New(client, c.GetSessionMaxAge()), nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
