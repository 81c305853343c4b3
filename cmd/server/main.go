// Command usersync-server runs the passive server side of the replication
// pair, normally on PostgreSQL.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/usersync/internal/app"
	"github.com/dmitrijs2005/usersync/internal/config"
)

func run(ctx context.Context, cfg *config.Config) error {
	a, err := app.NewApp(ctx, cfg, os.Stdin, os.Stdout, os.Stdout)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

func main() {

	if err := run(context.Background(), config.LoadConfig(config.RoleServer)); err != nil {
		log.Fatalf("%v", err)
	}

}
