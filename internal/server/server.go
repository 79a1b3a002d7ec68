package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/sitechat/sitechat/config"
	"github.com/sitechat/sitechat/internal/bot"
	"github.com/sitechat/sitechat/internal/chat"
	"github.com/sitechat/sitechat/internal/scrape"
	"github.com/sitechat/sitechat/internal/store"
	"github.com/sitechat/sitechat/internal/worker"
)

func Run(cfg *appconfig.Config, addr string) error {
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
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.Storage.Postgres.DSN()
	_ = Migrate("file://migrations", dsn, "up", 0)

	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	scrapeInvoker := &worker.ScriptInvoker{
		Interpreter: cfg.Worker.Python,
		Script:      cfg.Worker.ScraperScript,
		Timeout:     cfg.Worker.Timeout,
		Logger:      log.New(log.Writer(), "[WORKER] ", log.LstdFlags),
	}
	chatInvoker := &worker.ScriptInvoker{
		Interpreter: cfg.Worker.Python,
		Script:      cfg.Worker.ChatScript,
		Timeout:     cfg.Chat.Timeout,
		Logger:      log.New(log.Writer(), "[WORKER] ", log.LstdFlags),
	}

	orch := scrape.NewOrchestrator(scrapeInvoker, cfg.Scrape.BatchTimeout, nil)
	dispatcher := chat.NewDispatcher(chatInvoker, nil)
	bots := bot.NewManager(bot.DialTelegram, st, dispatcher, cfg.Telegram.LongPollTimeout, nil)

	api := e.Group("/api")

	sh := &ScrapeHandler{Scraper: orch}
	sh.Register(api)

	ch := &ChatHandler{Dispatcher: dispatcher, Records: st}
	ch.Register(api)

	rh := &RecordsHandler{Store: st}
	rh.Register(api.Group("/records"))

	th := &TelegramHandler{Bots: bots, Enabled: cfg.Telegram.Enabled}
	th.Register(api.Group("/telegram"))

	if addr == "" {
		addr = cfg.General.Listen
		if addr != "" && addr[0] != ':' {
			addr = ":" + addr
		}
		if addr == "" {
			addr = ":5000"
		}
	}

	// Stop the listener and every live bot on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		bots.StopAll(shutdownCtx)
		if err := e.Shutdown(shutdownCtx); err != nil {
			baseLogger.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
