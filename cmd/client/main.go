// Command usersync-client runs the interactive client side of the
// replication pair on a local SQLite store.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/usersync/internal/app"
	"github.com/dmitrijs2005/usersync/internal/config"
)

func run(ctx context.Context, cfg *config.Config) error {
	a, err := app.NewApp(ctx, cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

func main() {

	if err := run(context.Background(), config.LoadConfig(config.RoleClient)); err != nil {
		log.Fatalf("%v", err)
	}

}
