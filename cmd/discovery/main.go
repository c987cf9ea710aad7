// Package main provides the command-line utility for the discovery service.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"

	"go.uber.org/zap"

	"namereg/internal/discovery"
	"namereg/internal/logging"
)

func main() {
	var port int
	flag.IntVar(&port, "port", 3003, "Port to listen on (0 for random available port)")
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level")
	flag.Parse()

	logger, err := logging.New(logLevel, "console")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", addr), zap.Error(err))
	}

	server := discovery.NewServer(discovery.NewMemoryDiscovery(), logger)
	logger.Info("discovery service listening", zap.Int("port", listener.Addr().(*net.TCPAddr).Port))
	if err := http.Serve(listener, server); err != nil {
		logger.Error("discovery service stopped", zap.Error(err))
	}
}
