// Package server exposes the research agent over HTTP: a streaming research
// endpoint, an archive lookup, health and metrics.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/astroamber/amber/config"
	"github.com/astroamber/amber/internal/agent"
	"github.com/astroamber/amber/internal/archive"
	"github.com/astroamber/amber/internal/llm"
	"github.com/astroamber/amber/internal/research"
	"github.com/astroamber/amber/internal/tavily"
	"github.com/astroamber/amber/internal/telemetry"
)

// Archive is the slice of the result archive the handlers use; nil disables
// archiving. Satisfied by *archive.Store.
type Archive interface {
	Save(ctx context.Context, answer research.FinalAnswer) error
	Get(ctx context.Context, sessionID string) (research.FinalAnswer, error)
}

// BuildSession wires the research stack (LLM client, Tavily provider,
// toolbox, runtime factory) from config. Shared by the HTTP server and the
// one-shot CLI command.
func BuildSession(cfg *appconfig.Config) (*research.Session, error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Tavily.Validate(); err != nil {
		return nil, err
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.NewMetrics(nil)
	}

	chatClient := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	webProvider := tavily.NewClient(cfg.Tavily.APIKey, cfg.Tavily.BaseURL, cfg.Tavily.Timeout)

	formatterModel := cfg.LLM.FormatterModel
	if formatterModel == "" {
		formatterModel = cfg.LLM.Model
	}
	formatter := agent.NewResponseFormatter(chatClient, formatterModel, cfg.LLM.Temperature, cfg.LLM.MaxTokens)

	toolbox := research.NewToolbox(webProvider, formatter, research.ToolboxOptions{
		SearchMaxResults: cfg.Tavily.SearchMaxResults,
		CrawlMaxDepth:    cfg.Tavily.CrawlMaxDepth,
		CrawlLimit:       cfg.Tavily.CrawlLimit,
	}, nil)

	factory := func(ctx context.Context) (research.Runtime, error) {
		return agent.New(chatClient, toolbox, agent.Options{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			MaxTurns:    cfg.LLM.MaxTurns,
		}, nil), nil
	}

	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	return research.NewSession(factory, orchLogger, metrics), nil
}

// Run wires the full research stack from config and serves until the
// listener fails.
func Run(cfg *appconfig.Config) error {
	session, err := BuildSession(cfg)
	if err != nil {
		return err
	}

	var store Archive
	if cfg.Redis.Enabled {
		st, err := archive.Connect(context.Background(), cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Timeout, cfg.Redis.TTL)
		if err != nil {
			return err
		}
		defer st.Close()
		store = st
	}

	e := New(cfg, session, store)
	return e.Start(cfg.Server.Address)
}

// New assembles the echo instance with middleware and routes. Split from Run
// so tests can drive handlers without a listener.
func New(cfg *appconfig.Config, session *research.Session, store Archive) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

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
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	if cfg.Server.JWTSecret != "" {
		api.Use(AuthMiddleware([]byte(cfg.Server.JWTSecret)))
	}

	handler := &ResearchHandler{Config: cfg, Session: session, Archive: store}
	handler.Register(api)

	return e
}
