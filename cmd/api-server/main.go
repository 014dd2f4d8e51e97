package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"snapvault/internal/catalog"
	"snapvault/internal/events"
	"snapvault/internal/gate"
	"snapvault/internal/signer"
	"snapvault/pkg/objstore"
	"snapvault/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	cfg := utils.LoadServerConfig()

	// Fail closed: without complete storage config there is nothing safe to
	// serve.
	storeCfg, err := objstore.LoadConfig()
	if err != nil {
		log.Fatalf("storage config: %v", err)
	}
	store, err := objstore.NewMinioStore(storeCfg)
	if err != nil {
		log.Fatalf("storage client: %v", err)
	}

	if cfg.UploadAuth == "" {
		log.Println("[api] SNAPVAULT_UPLOAD_AUTH not set; uploads are locked")
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Start the TCP event feed first so binding errors show up early.
	hub := events.NewHub()
	router.GET("/ws", events.WSHandler(hub))
	tcpSrv := events.NewServer(cfg.EventsAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "catalog": cfg.CatalogKey})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":        "not_ready",
				"storage_error": err.Error(),
				"tcp_clients":   stats.TCPClients,
				"ws_clients":    stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"storage":     "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"catalog":     cfg.CatalogKey,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	catalogStore := catalog.NewStore(store, cfg.CatalogKey)
	catalogHandler := catalog.NewHandler(catalogStore, hub)

	// Public read surface: the gallery fetches the catalog here.
	public := router.Group("/api")
	catalogHandler.RegisterRead(public)

	// Gated write surface: signing and catalog upserts.
	protected := router.Group("/api")
	protected.Use(gate.Middleware(cfg.UploadAuth))
	signer.NewHandler(signer.New(store)).RegisterRoutes(protected)
	catalogHandler.RegisterWrite(protected)

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
