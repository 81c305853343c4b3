package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/usersync/internal/flagx"
)

var valueFlags = []string{"-a", "-p", "-n", "-d", "-s", "-t", "-w", "-o", "-m", "-l", "-u", "-k", "-b", "-g", "-e"}

var boolFlags = []string{"-headless", "-nosync"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   replication endpoint bind address
//	-p string   peer address (host:port)
//	-n string   peer process identity
//	-d string   database DSN (SQLite path or postgres:// URL)
//	-s string   shared peer secret
//	-t int      peer token validity, seconds
//	-w int      startup sync delay, milliseconds
//	-o int      connection timeout, milliseconds
//	-m int      max records processed by one startup pull
//	-l string   log level (debug, info, warn, error)
//	-u/-k       S3 user / password
//	-b/-g/-e    S3 bucket / region / base endpoint
//	-headless   disable the interactive dashboard
//	-nosync     skip the startup pull
//
// Duration flags are integers and are converted to time.Duration values.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], valueFlags, boolFlags...)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ListenAddr, "a", cfg.ListenAddr, "address and port to serve replication on")
	fs.StringVar(&cfg.PeerAddr, "p", cfg.PeerAddr, "peer address and port")
	fs.StringVar(&cfg.PeerProcess, "n", cfg.PeerProcess, "peer process identity")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.PeerSecret, "s", cfg.PeerSecret, "shared peer secret")

	tokenValidity := fs.Int("t", int(cfg.PeerTokenValidity.Seconds()), "peer token validity (in seconds)")
	startupDelay := fs.Int("w", int(cfg.StartupSyncDelay.Milliseconds()), "startup sync delay (in milliseconds)")
	connTimeout := fs.Int("o", int(cfg.ConnectionTimeout.Milliseconds()), "connection timeout (in milliseconds)")

	fs.IntVar(&cfg.MaxBatchSize, "m", cfg.MaxBatchSize, "max records per startup pull")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "k", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket for snapshots")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	headless := fs.Bool("headless", !cfg.Interactive, "run without the interactive dashboard")
	noSync := fs.Bool("nosync", !cfg.StartupSyncEnabled, "skip the startup pull")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PeerTokenValidity = time.Duration(*tokenValidity) * time.Second
	cfg.StartupSyncDelay = time.Duration(*startupDelay) * time.Millisecond
	cfg.ConnectionTimeout = time.Duration(*connTimeout) * time.Millisecond
	cfg.Interactive = !*headless
	cfg.StartupSyncEnabled = !*noSync
}
