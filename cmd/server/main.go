package main

import (
	"context"
	"log"

	// Bundle tzdata so the Europe/Warsaw zone resolves on minimal images.
	_ "time/tzdata"

	"github.com/pwisniewski/hipokrates/internal/server"
	"github.com/pwisniewski/hipokrates/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
