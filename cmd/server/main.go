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

	_ "github.com/lib/pq"
	"github.com/voidchat/relay/internal/api"
	"github.com/voidchat/relay/internal/config"
	"github.com/voidchat/relay/internal/database"
	"github.com/voidchat/relay/internal/server"
	"github.com/voidchat/relay/internal/stats"
)

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
	dsn            string
	configFile     string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&configFile, "config", "", "path to optional YAML config file")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[voidchat] ", log.LstdFlags)

	if configFile != "" {
		fileCfg, err := config.LoadFile(configFile)
		if err != nil {
			logger.Fatal("config file:", err)
		}
		if fileCfg.ServerAddr != "" {
			addr = fileCfg.ServerAddr
		}
		if fileCfg.DatabaseDSN != "" {
			dsn = fileCfg.DatabaseDSN
		}
		if len(allowedOrigins) == 0 {
			allowedOrigins = fileCfg.AllowedOrigins
		}
	}

	cfg, err := config.NewConfig(addr, dsn, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgChatRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("db migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	hub := server.NewRelayHub(logger, dbConn, statsUpdater)

	srv := api.NewVoidChatApp(mux, logger, hub, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go hub.Run()

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

	logger.Println("shutting down relay hub...")
	if err := hub.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("relay hub shutdown:", err)
	}

	logger.Println("shutdown complete")
}
