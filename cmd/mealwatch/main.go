package main

import (
	"os"

	"github.com/korjavin/mealwatch/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Global.Error("%v", err)
		os.Exit(1)
	}
}
