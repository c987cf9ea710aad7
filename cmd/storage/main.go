// Package main provides the command-line utility for the blob storage service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"

	"go.uber.org/zap"

	"namereg/internal/discovery"
	"namereg/internal/logging"
	"namereg/internal/settings"
	"namereg/internal/storage"
)

func main() {
	var backend string
	flag.StringVar(&backend, "backend", "memory", "Storage backend: memory, fs or s3")
	var dir string
	flag.StringVar(&dir, "dir", "", "Base directory for the fs backend")
	var bucket string
	flag.StringVar(&bucket, "bucket", "", "Bucket for the s3 backend")
	var prefix string
	flag.StringVar(&prefix, "prefix", "", "Key prefix for the s3 backend")
	var region string
	flag.StringVar(&region, "region", "", "AWS region for the s3 backend")
	var cacheSize int
	flag.IntVar(&cacheSize, "cache-size", 0, "Number of blobs to keep in the read cache (0 disables it)")
	var port int
	flag.IntVar(&port, "port", 0, "Port to listen on (0 for random available port)")
	var discoveryURL string
	flag.StringVar(&discoveryURL, "discovery", "", "URL of a discovery service to register with")
	var advertise string
	flag.StringVar(&advertise, "advertise", "", "Address to advertise to the discovery service (default http://localhost:<port>)")
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level")
	flag.Parse()

	logger, err := logging.New(logLevel, "console")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	var s storage.Storage
	s, err = settings.OpenStorage(ctx, settings.StorageSettings{
		Backend:   backend,
		Dir:       dir,
		Bucket:    bucket,
		Prefix:    prefix,
		Region:    region,
		CacheSize: cacheSize,
	})
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("backend", backend), zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", addr), zap.Error(err))
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port
	logger.Info("storage service listening", zap.Int("port", actualPort), zap.String("backend", backend))

	server := storage.NewServer(s, logger)
	if discoveryURL != "" {
		desc, err := discovery.Advertise(ctx, discovery.NewClient(discoveryURL, nil),
			server.ID(), advertise, actualPort, discovery.StorageProtocol)
		if err != nil {
			logger.Fatal("failed to register with discovery", zap.String("discovery", discoveryURL), zap.Error(err))
		}
		logger.Info("registered with discovery", zap.String("discovery", discoveryURL), zap.String("address", desc.Address))
	}

	if err := http.Serve(listener, server); err != nil {
		logger.Error("storage service stopped", zap.Error(err))
	}
}
