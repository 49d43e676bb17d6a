package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veilspire/realmgov/src/approval"
	"github.com/veilspire/realmgov/src/data"
	"github.com/veilspire/realmgov/src/discordsig"
	"github.com/veilspire/realmgov/src/forums"
	"github.com/veilspire/realmgov/src/gateway/config"
	"github.com/veilspire/realmgov/src/gateway/webserver"
	"github.com/veilspire/realmgov/src/ingest"
	"github.com/veilspire/realmgov/src/interactions"
	"github.com/veilspire/realmgov/src/notify"
)

func main() {
	cfg := config.Load()

	key, err := discordsig.ParseKey(cfg.DiscordPublicKey)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	rdb := data.MustRedis(cfg.RedisURL)

	notifier, err := notify.New(cfg.BotToken, cfg.ContractsWebhookURL, cfg.ReviewChannelID)
	if err != nil {
		log.Fatalf("notify: %v", err)
	}

	forumStore := forums.NewStore(db)
	engine := approval.NewEngine(db, cfg.TrustedRoleID, cfg.RequiredApprovals)
	pipeline := ingest.NewPipeline(db, forumStore, notifier)
	router := interactions.NewRouter(notifier.Session(), forumStore, engine, rdb, cfg.AppID)

	if cfg.GuildID != "" {
		if err := interactions.RegisterCommands(notifier.Session(), cfg.AppID, cfg.GuildID); err != nil {
			log.Printf("slash commands: %v", err)
		}
	}

	handler := webserver.New(webserver.Deps{
		Config:    cfg,
		DB:        db,
		RDB:       rdb,
		PublicKey: key,
		Router:    router,
		Forums:    forumStore,
		Pipeline:  pipeline,
		Notifier:  notifier,
	})

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("realmgov gateway listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutCtx)
	log.Println("realmgov gateway stopped")
}
