// Package main is the entry point for the kinoray application.
package main

import (
	"github.com/kinoray-player/kinoray/cmd"
	"github.com/kinoray-player/kinoray/config"
	"github.com/kinoray-player/kinoray/internal/cache"
	"github.com/kinoray-player/kinoray/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	// Initialize asynchronous background maintenance of the probe cache.
	go cache.CollectGarbage()

	cmd.Execute()
}
