package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/mohammad-safakhou/confpilot/config"
	"github.com/mohammad-safakhou/confpilot/internal/advisor"
	"github.com/mohammad-safakhou/confpilot/internal/agenda"
	"github.com/mohammad-safakhou/confpilot/internal/store"
	"github.com/mohammad-safakhou/confpilot/provider"
	openai_provider "github.com/mohammad-safakhou/confpilot/provider/openai"
	"github.com/mohammad-safakhou/confpilot/tools/relevance"
)

func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	registerDocs(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	dsn := cfg.Storage.Postgres.DSN()
	_ = Migrate("file://migrations", dsn, "up", 0)

	// Initialize shared dependencies (top-level DI)
	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
	}
	cache := store.NewCatalogCache(rdb, cfg.Storage.Redis.CacheTTL)

	// Advisor and embeddings are optional; without an API key the engine
	// falls back to heuristic scoring and keyword-only search.
	var llm provider.Provider
	apiKey := cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey != "" {
		llm = openai_provider.NewOpenAIClient(apiKey, cfg.LLM.Model, cfg.LLM.EmbeddingModel,
			cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout)
	} else {
		log.Printf("[SERVE] no LLM api key configured; advisor disabled")
	}

	index, err := relevance.New(llm)
	if err != nil {
		return err
	}
	catalog, err := cache.Sessions(ctx, st)
	if err != nil {
		return err
	}
	if err := index.IndexCatalog(ctx, catalog); err != nil {
		log.Printf("[SERVE] catalog indexing failed: %v", err)
	}

	var adv agenda.Advisor
	if llm != nil {
		adv = advisor.New(llm)
	}
	engine := agenda.NewEngine(agenda.NewScorer(cfg.Scoring.Policy()), index, adv)

	api := e.Group("/api")
	ah := &AgendaHandler{Store: st, Cache: cache, Engine: engine}
	ah.Register(api.Group("/agenda"))
	sh := &SessionsHandler{Store: st, Cache: cache, Index: index}
	sh.Register(api.Group("/sessions"))
	ph := &ProfilesHandler{Store: st}
	ph.Register(api.Group("/profiles"))

	if cfg.Scheduler.Enabled {
		sched := &Scheduler{
			Store:    st,
			Cache:    cache,
			Index:    index,
			Rdb:      rdb,
			Schedule: cfg.Scheduler.RefreshSchedule,
			LockTTL:  cfg.Scheduler.LockTTL,
			Stop:     make(chan struct{}),
		}
		sched.Start()
	}

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	if addr[0] != ':' {
		addr = ":" + addr
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
