package main

import (
	"go.uber.org/zap"

	"github.com/cppla/board/config"
	"github.com/cppla/board/models"
	"github.com/cppla/board/routes"
	"github.com/cppla/board/utils"
)

func main() {
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	db := config.InitDatabase(models.All()...)
	defer utils.CloseRedis()

	addr := ":" + cfg.AppPort
	utils.Logger.Info("board api listening",
		zap.String("addr", addr),
		zap.String("db_driver", cfg.DBDriver),
		zap.Bool("redis", cfg.RedisEnabled),
	)
	if err := utils.GraceServer(addr, routes.SetupRouter(db)); err != nil {
		utils.Logger.Fatal("server stopped", zap.Error(err))
	}
}
