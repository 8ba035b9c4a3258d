package main

import (
	"context"
	"log"

	"github.com/wheslancardoso/backend-mindmesh/internal/bootstrap"
	"github.com/wheslancardoso/backend-mindmesh/internal/config"
	"github.com/wheslancardoso/backend-mindmesh/internal/server"
	"github.com/wheslancardoso/backend-mindmesh/internal/tracer"
	"github.com/wheslancardoso/backend-mindmesh/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
