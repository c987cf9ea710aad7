// Package main provides the command-line utility for the records service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"namereg/internal/discovery"
	"namereg/internal/logging"
	"namereg/internal/records"
	"namereg/internal/settings"
)

func main() {
	var id string
	flag.StringVar(&id, "id", "", "ID of the in-memory records service (32-byte hex). Randomly generated if not provided.")
	var backend string
	flag.StringVar(&backend, "backend", "memory", "Record store backend: memory, fs or badger")
	var dir string
	flag.StringVar(&dir, "dir", "", "Base directory for the fs and badger backends")
	var port int
	flag.IntVar(&port, "port", 0, "Port to listen on (0 for random available port)")
	var snapshotInterval time.Duration
	flag.DurationVar(&snapshotInterval, "snapshot-interval", 1*time.Hour, "Interval between snapshots for the fs backend")
	var discoveryURL string
	flag.StringVar(&discoveryURL, "discovery", "", "URL of a discovery service to register with")
	var advertise string
	flag.StringVar(&advertise, "advertise", "", "Address to advertise to the discovery service (default http://localhost:<port>)")
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level")
	var logFormat string
	flag.StringVar(&logFormat, "log-format", "console", "Log format: console or json")
	flag.Parse()

	logger, err := logging.New(logLevel, logFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	var store records.Records
	if backend == "memory" {
		store = records.NewMemoryRecords(id)
	} else {
		opened, closeFn, err := settings.OpenRecords(settings.RecordsSettings{
			Backend:          backend,
			Dir:              dir,
			SnapshotInterval: snapshotInterval,
		}, logger)
		if err != nil {
			logger.Fatal("failed to open record store", zap.String("backend", backend), zap.Error(err))
		}
		defer closeFn()
		store = opened
	}

	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", addr), zap.Error(err))
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port
	logger.Info("records service listening",
		zap.String("id", store.ID()),
		zap.Int("port", actualPort),
		zap.String("backend", backend),
		zap.String("dir", dir))

	if discoveryURL != "" {
		desc, err := discovery.Advertise(context.Background(), discovery.NewClient(discoveryURL, nil),
			store.ID(), advertise, actualPort, discovery.RecordsProtocol)
		if err != nil {
			logger.Fatal("failed to register with discovery", zap.String("discovery", discoveryURL), zap.Error(err))
		}
		logger.Info("registered with discovery", zap.String("discovery", discoveryURL), zap.String("address", desc.Address))
	}

	server := records.NewServer(store, logger)
	if err := http.Serve(listener, server); err != nil {
		logger.Error("records service stopped", zap.Error(err))
	}
}
