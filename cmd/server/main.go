package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/codecollab/backend/internal/api"
	"github.com/codecollab/backend/internal/config"
	"github.com/codecollab/backend/internal/database"
	"github.com/codecollab/backend/internal/executor"
	"github.com/codecollab/backend/internal/server"
	"github.com/codecollab/backend/internal/stats"
)

const defaultSigningKey = "d1lCJ5hYvZ0mY0yLMUygyJnTOKe3p1FD5r3xB0IsvNA="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	mongoURI       string
	dbName         string
	signingKey     string
	execServiceURL string
	execServiceKey string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&mongoURI, "mongo-uri", "mongodb://localhost:27017", "mongodb connection URI")
	flag.StringVar(&dbName, "db-name", "codecollab", "mongodb database name")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.StringVar(&execServiceURL, "exec-url", "https://judge0-ce.p.rapidapi.com", "execution service base URL")
	flag.StringVar(&execServiceKey, "exec-key", os.Getenv("RAPIDAPI_KEY"), "execution service API key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[codecollab] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, mongoURI, dbName, signingKey, execServiceURL, execServiceKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewMongoCollabRepository(cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(context.Background()); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	collabServer, err := server.NewCollabServer(logger, dbConn, statsUpdater)
	if err != nil {
		logger.Fatal("new collab server:", err)
	}

	judge0, err := executor.NewJudge0Client(logger, cfg.ExecServiceURL, cfg.ExecServiceKey)
	if err != nil {
		logger.Fatal("new execution client:", err)
	}

	srv := api.NewCollabApp(mux, logger, collabServer, dbConn, judge0, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go collabServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down collab server...")
	if err := collabServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("collab server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
