package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linechat/internal/gateway"
	"linechat/internal/logger"
	"linechat/internal/server"
)

func main() {
	host := flag.String("host", "", "Relay host (overrides config)")
	port := flag.Int("port", -1, "Relay port (overrides config)")
	configPath := flag.String("config", "", "Config file path (optional)")
	gatewayAddr := flag.String("gateway", "", "WebSocket gateway address (overrides config, empty keeps config value)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "Log format: text or json")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		logger.Get().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Command-line flags win over file and environment.
	if *host != "" {
		cfg.Host = *host
	}
	if *port >= 0 {
		cfg.Port = *port
	}
	if *gatewayAddr != "" {
		cfg.Gateway.Addr = *gatewayAddr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()
	log.Info("configuration loaded", "config", cfg.String())

	relay, err := server.NewRelay(cfg, log)
	if err != nil {
		log.Error("failed to start relay", "error", err)
		os.Exit(1)
	}
	go relay.Run()

	var httpServer *http.Server
	if cfg.Gateway.Addr != "" {
		gw := gateway.New(relay.Addr(), cfg.Gateway.AllowedOrigins, log)
		httpServer = gateway.CreateServer(cfg.Gateway.Addr, gateway.SetupRoutes(gw))
		go func() {
			if err := gateway.StartServer(httpServer, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("gateway server error", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received signal, shutting down", "signal", sig.String())

	if httpServer != nil {
		_ = gateway.ShutdownServer(httpServer, 10*time.Second, log)
	}
	relay.Stop()
}
