// netproxy forwards HTTP requests to an upstream API through the network
// client, adding retry, error classification and an optional Redis-backed
// response cache. It also exposes Prometheus metrics for the traffic it
// proxies.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/appleniks969/kmmNetworkClient/pkg/client"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Configuration from environment
	baseURL := getEnv("UPSTREAM_URL", "")
	redisURL := getEnv("REDIS_URL", "")
	port := getEnv("PORT", "8080")

	if baseURL == "" {
		log.Fatal("UPSTREAM_URL must be set")
	}

	cfg := client.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.ExpectSuccess = false
	cfg.LogRequests = true

	// Setup Redis when configured; the proxy runs without a cache otherwise.
	if redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: redisURL,
		})

		ctx := context.Background()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Printf("Connected to Redis at %s", redisURL)

		cfg.Redis = redisClient
	}

	netClient, err := client.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer netClient.Close()

	// HTTP Server
	http.HandleFunc("/health", healthHandler)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/proxy/", proxyHandler(netClient))

	addr := ":" + port
	log.Printf("Starting proxy server on %s", addr)
	log.Printf("Upstream: %s", baseURL)

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func proxyHandler(netClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Extract the upstream endpoint from the request path.
		// Example: /proxy/v1/users/42 -> /v1/users/42
		endpoint := r.URL.Path[len("/proxy"):]
		if r.URL.RawQuery != "" {
			endpoint += "?" + r.URL.RawQuery
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		resp, err := netClient.Do(ctx, r.Method, endpoint, nil, nil)
		if err != nil {
			status := http.StatusBadGateway
			if client.IsTimeout(err) {
				status = http.StatusGatewayTimeout
			}
			http.Error(w, fmt.Sprintf("upstream request failed: %v", err), status)
			return
		}

		// Copy response headers
		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		// Copy status code
		w.WriteHeader(resp.StatusCode)

		// Copy body
		if _, err := w.Write(resp.Body); err != nil {
			log.Printf("Failed to write response: %v", err)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
