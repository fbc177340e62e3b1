package main

import (
	"go.uber.org/zap"
)

func InitLogger() {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"wibloo.log", "stderr"}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}
