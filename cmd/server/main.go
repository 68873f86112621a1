package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/entl/botdeck/internal/command"
	"github.com/entl/botdeck/internal/config"
	"github.com/entl/botdeck/internal/device"
	"github.com/entl/botdeck/internal/executor"
	"github.com/entl/botdeck/internal/history"
	"github.com/entl/botdeck/internal/server"
	"github.com/entl/botdeck/internal/session"
	"github.com/entl/botdeck/internal/storage"
	"github.com/entl/botdeck/internal/system"
)

// version and build are injected at link time:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.build=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	build   = "unknown"
)

func main() {
	log.SetOutput(os.Stdout)

	var configPath string
	var seedDemo bool

	rootCmd := &cobra.Command{
		Use:   "botdeck-server",
		Short: "Web backend for queuing and executing robot commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, seedDemo)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	rootCmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "insert demo catalog applications on first start")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("botdeck-server %s (build %s)\n", version, build)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, seedDemo bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// --- Storage & history --------------------------------------------------
	db, err := storage.NewDB(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	historySvc := history.NewService(db)

	if seedDemo {
		if err := seedCatalog(db); err != nil {
			log.Printf("failed to seed demo catalog: %v", err)
		}
	}

	// --- Device & execution core --------------------------------------------
	drv, err := newDriver(cfg.Device)
	if err != nil {
		return err
	}
	exec := executor.New(command.Default(), cfg.Device.CommandTimeout.Std())

	sessionMgr := session.NewManager(db, cfg.Queue.MaxPending)
	sessionSvc := session.NewService(sessionMgr, exec, drv, historySvc)

	// --- HTTP gateway ---------------------------------------------------------
	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		Version:      version,
	}, sessionSvc, db, system.New(version, build))

	srv.StartAsync()
	log.Printf("botdeck-server %s started at %s", version, srv.Address())

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	if err := sessionMgr.Close(); err != nil {
		log.Printf("session manager close error: %v", err)
	}
	if err := historySvc.Close(); err != nil {
		log.Printf("history service close error: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("db close error: %v", err)
	}
	log.Println("Server stopped.")
	return nil
}

// newDriver builds the configured device driver. Only the simulator ships
// in-tree; real SDK drivers would hook in here.
func newDriver(cfg config.DeviceConfig) (device.Driver, error) {
	switch cfg.Driver {
	case "", "sim":
		return device.NewSimDriver(), nil
	default:
		return nil, fmt.Errorf("unknown device driver %q", cfg.Driver)
	}
}

// seedCatalog inserts a handful of demo applications so the catalog search
// has something to show on a fresh install.
func seedCatalog(db *storage.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	existing, err := db.ListApplications(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil // never overwrite a populated catalog
	}

	demos := []storage.AppRecord{
		{Name: "RobotArm", Description: "Wave and point gestures", Author: "entl", Installed: true},
		{Name: "Patrol", Description: "Drive a patrol loop around the room", Author: "entl"},
		{Name: "Greeter", Description: "Say hello when a face is seen", Author: "community"},
		{Name: "Lamp", Description: "Use the backpack light as a desk lamp", Author: "community"},
	}
	for i := range demos {
		if _, err := db.AddApplication(ctx, &demos[i]); err != nil {
			return err
		}
	}
	log.Printf("seeded %d demo applications", len(demos))
	return nil
}
