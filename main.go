package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luco5826/dsp/internal/bootstrap"
	"github.com/luco5826/dsp/internal/bus"
	"github.com/luco5826/dsp/internal/conf"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/internal/presence"
	"github.com/luco5826/dsp/internal/selection"
	"github.com/luco5826/dsp/pkg/utils"
	"github.com/luco5826/dsp/server"
)

func main() {
	bootstrap.InitConfig()
	bootstrap.InitLog()
	bootstrap.InitDB()
	bootstrap.InitData()

	eventBus := bus.New()
	if err := eventBus.Start(); err != nil {
		utils.Log.Fatalf("failed to start event bus: %+v", err)
	}
	registry := presence.NewRegistry(eventBus)
	coordinator := selection.NewCoordinator(eventBus, registry)
	if err := coordinator.PrimeRetained(); err != nil {
		utils.Log.Fatalf("failed to prime retained selection state: %+v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	server.Init(engine, coordinator, registry, eventBus)

	addr := fmt.Sprintf("%s:%d", conf.Conf.Address, conf.Conf.Port)
	srv := &http.Server{Addr: addr, Handler: engine}
	go func() {
		utils.Log.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Log.Fatalf("failed to start server: %+v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Log.Errorf("server shutdown: %+v", err)
	}
	eventBus.Stop()
	db.Close()
}
