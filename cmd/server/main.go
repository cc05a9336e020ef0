package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shopchat/backend/config"
	httpDelivery "github.com/shopchat/backend/internal/delivery/http"
	"github.com/shopchat/backend/internal/domain"
	"github.com/shopchat/backend/internal/infrastructure/cache"
	"github.com/shopchat/backend/internal/infrastructure/history"
	"github.com/shopchat/backend/internal/infrastructure/ollama"
	"github.com/shopchat/backend/internal/infrastructure/openai"
	"github.com/shopchat/backend/internal/infrastructure/shopify"
	"github.com/shopchat/backend/internal/infrastructure/style"
	"github.com/shopchat/backend/internal/infrastructure/webhook"
	"github.com/shopchat/backend/internal/logging"
	"github.com/shopchat/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting ShopChat backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port))

	// Initialize infrastructure dependencies
	sessions := history.NewMemoryStore(cfg.Session.HistoryLimit, cfg.Session.IdleTTL)
	defer sessions.Close()

	productCache := cache.NewProductCache(cfg.Cache.TTL)
	defer productCache.Close()

	hook := webhook.NewClient(webhook.Config{
		URL:        cfg.Webhook.URL,
		AuthHeader: cfg.Webhook.AuthHeader,
		Username:   cfg.Webhook.Username,
		Password:   cfg.Webhook.Password,
		Timeout:    cfg.Webhook.Timeout,
	}, logger)
	logger.Info("webhook configured", zap.String("url", cfg.Webhook.URL))

	llm := newLLMClient(cfg.LLM, logger)

	storefront := shopify.NewClient(shopify.Config{
		StoreDomain:     cfg.Shopify.StoreDomain,
		StorefrontToken: cfg.Shopify.StorefrontToken,
		APIVersion:      cfg.Shopify.APIVersion,
		Timeout:         cfg.Shopify.Timeout,
		RateLimit:       cfg.Shopify.RateLimit,
	}, logger)
	cartClient := shopify.NewCartClient(cfg.Shopify.StoreDomain, cfg.Shopify.Timeout, logger)
	if cfg.Shopify.StoreDomain == "" || cfg.Shopify.StorefrontToken == "" {
		logger.Warn("storefront not configured, product search and direct cart adds will fail")
	}

	tokens, err := style.Load(cfg.Widget.StyleFile)
	if err != nil {
		logger.Fatal("failed to load style tokens", zap.Error(err))
	}

	// Initialize usecase layer
	prompts, err := usecase.NewPromptBuilder(cfg.Prompts.ExamplesFile)
	if err != nil {
		logger.Fatal("failed to load prompts", zap.Error(err))
	}
	planner := usecase.NewRenderPlanner(storefront.StoreDomain())

	search := usecase.NewProductSearchService(storefront, productCache, llm, prompts, usecase.ProductSearchConfig{
		Candidates:   cfg.Search.Candidates,
		CacheTTL:     cfg.Cache.TTL,
		EnableRerank: cfg.Search.EnableRerank,
	}, logger)
	chat := usecase.NewChatService(sessions, hook, llm, search, planner, prompts, usecase.ChatServiceConfig{
		MaxResults: cfg.Search.MaxResults,
	}, logger)
	cart := usecase.NewCartService(hook, cartClient, planner, logger)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(chat, search, cart, storefront, httpDelivery.WidgetConfig{
		APIURL:         cfg.Server.PublicURL,
		Theme:          cfg.Widget.Theme,
		Position:       cfg.Widget.Position,
		AutoOpen:       cfg.Widget.AutoOpen,
		WelcomeMessage: cfg.Widget.WelcomeMessage,
		PrimaryColor:   cfg.Widget.PrimaryColor,
		SecondaryColor: cfg.Widget.SecondaryColor,
		Style:          tokens.WithColors(cfg.Widget.PrimaryColor, cfg.Widget.SecondaryColor),
	}, logger)

	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newLLMClient picks the completion provider. "none" disables LLM features.
func newLLMClient(cfg config.LLMConfig, logger *zap.Logger) domain.LLMClient {
	switch cfg.Provider {
	case "ollama":
		logger.Info("LLM provider: ollama", zap.String("base_url", cfg.BaseURL), zap.String("model", cfg.Model))
		return ollama.NewClient(cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.Timeout, logger)
	case "openai":
		logger.Info("LLM provider: openai", zap.String("model", cfg.Model))
		return openai.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.Timeout)
	default:
		logger.Info("LLM disabled")
		return nil
	}
}
