package main

import (
	"fmt"
	"log"
	"time"

	"github.com/hyi96/taskweb/internal/config"
	"github.com/hyi96/taskweb/internal/database"
	"github.com/hyi96/taskweb/internal/router"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// resolve the calendar timezone used by the period logic
	loc := time.Local
	if cfg.App.Timezone != "" {
		loc, err = time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			log.Fatalf("load timezone %q: %v", cfg.App.Timezone, err)
		}
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// setup router
	r := router.SetupRouter(cfg, db, loc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
