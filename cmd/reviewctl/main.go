package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/guildgate/internal/staffcli"
)

func main() {

	ctx := context.Background()
	cfg, err := staffcli.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	client, err := staffcli.NewClient(cfg.Endpoint, cfg.AccessToken)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer client.Close()

	staffcli.NewApp(client, cfg.PageSize, os.Stdout).Run(ctx)

}
