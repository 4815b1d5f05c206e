package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	redisapi "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kokukuma/zero-auth/internal/server"
	"github.com/kokukuma/zero-auth/session"
	"github.com/kokukuma/zero-auth/zk"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to create logger:", err)
	}
	defer logger.Sync()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	publicURL := os.Getenv("PUBLIC_URL")
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://localhost:%s", port)
	}

	var store session.Store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redisapi.NewClient(&redisapi.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", addr), zap.Error(err))
		}
		store = session.NewRedisStore(client)
		logger.Info("using redis session store", zap.String("addr", addr))
	} else {
		store = session.NewMemoryStore()
		logger.Info("using in-memory session store")
	}

	registry := zk.NewRegistry(zk.NewMemoryKeyStore(), logger)
	if err := registry.LoadFromStore(context.Background()); err != nil {
		logger.Fatal("failed to initialize verification key registry", zap.Error(err))
	}

	opts := []server.Option{}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			logger.Fatal("invalid SESSION_TTL", zap.String("value", ttl), zap.Error(err))
		}
		opts = append(opts, server.WithSessionTTL(d))
	}
	if keyFile := os.Getenv("QR_SIGNING_KEY_FILE"); keyFile != "" {
		sigKey, err := loadSigningKey(keyFile)
		if err != nil {
			logger.Fatal("failed to load qr signing key", zap.String("file", keyFile), zap.Error(err))
		}
		opts = append(opts, server.WithSigningKey(sigKey))
	}

	srv := server.NewServer(store, registry, zk.NewGroth16Verifier(), publicURL, logger, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.NewSweeper(store, logger).Run(ctx)

	cors := handlers.CORS(
		handlers.AllowedMethods([]string{"POST", "GET", "DELETE"}),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowCredentials(),
	)

	addr := ":" + port
	logger.Info("starting zero-auth relay", zap.String("addr", addr), zap.String("public_url", publicURL))
	if err := http.ListenAndServe(addr, cors(srv.Handler())); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func loadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %v", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EC private key: %v", err)
	}
	return key, nil
}
