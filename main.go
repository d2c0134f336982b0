package main

import (
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/api/handlers"
	"github.com/reunite-app/missing-persons-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Config.Validate(); err != nil {
		log.Fatal(err)
	}

	if err := a.Initialize(); err != nil { //initialize database, router and scheduler
		log.Fatal(err)
	}

	port := a.Config.Port
	if port == "" {
		port = "8080"
	}
	zap.S().Infow("missing-persons-api is up and running",
		"port", port,
		"url", a.Config.BaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
