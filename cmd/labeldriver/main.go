// cmd/labeldriver/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"device-service/internal/config"
	"device-service/internal/job"
	"device-service/internal/routes"
	"device-service/internal/serialio"
	"device-service/internal/server"
	"device-service/internal/storage"
	"device-service/internal/utils"
)

// driverVersion is the label driver's release version string, printed by
// the --version CLI mode.
const driverVersion = "1.0.0"

// @title Label Driver Admin API
// @version 1.0.0
// @description Operational surface for a thermal label printer / scale driver: health, job counters, recent jobs, live job events.

// @host localhost:8084
// @BasePath /api/v1
func main() {
	args := os.Args[1:]

	switch {
	case len(args) == 1 && args[0] == "--version":
		fmt.Println(driverVersion)
		return
	case len(args) == 2:
		if err := runSingleJob(args[0], args[1]); err != nil {
			fmt.Printf("print job failed: %v\n", err)
			os.Exit(1)
		}
		return
	case len(args) == 0:
		app, err := NewApplication()
		if err != nil {
			fmt.Printf("failed to initialize application: %v\n", err)
			os.Exit(1)
		}
		if err := app.Run(); err != nil {
			app.logger.Fatal("application exited with error", zap.Error(err))
		}
		return
	default:
		fmt.Println("usage: labeldriver [--version | <config.json> <slot>]")
		os.Exit(2)
	}
}

// runSingleJob implements the CLI's single-job mode: read a job document,
// look up the slot's template directly from storage, run the interpreter,
// and exit. No TCP server is started.
func runSingleJob(configPath, slotArg string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer utils.CloseLogger(logger)

	store, err := storage.Open(cfg.Storage.Path, cfg.Storage.MigrationsPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	serial := serialio.New(portConfig(cfg.Serial.Printer), portConfig(cfg.Serial.Scale), logger)
	if err := serial.OpenPrinter(); err != nil {
		return fmt.Errorf("open printer: %w", err)
	}
	_ = serial.OpenScale()
	defer serial.Close()

	docBytes, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read job document: %w", err)
	}

	slot := 0
	for _, r := range slotArg {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid slot %q", slotArg)
		}
		slot = slot*10 + int(r-'0')
	}

	orch := job.New(store, serial, logger)
	reply, err := orch.RunPrintJob(job.Envelope{JobDocumentPath: configPath, TemplateSlot: slot}, docBytes)
	fmt.Println(reply)
	return err
}

func portConfig(c config.SerialPortConfig) serialio.PortConfig {
	return serialio.PortConfig{
		Device:   c.Device,
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
		Timeout:  c.Timeout,
	}
}

// Application wires together the label TCP server and the optional admin
// HTTP surface for the driver's server mode.
type Application struct {
	config *config.Config
	logger *zap.Logger

	store  *storage.Store
	serial *serialio.Manager
	srv    *server.Server

	adminServer *http.Server
}

// NewApplication performs phased initialization of every dependency the
// server mode needs, matching the teacher's initialize* sequencing.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.Info("starting label driver", zap.String("version", driverVersion))

	app := &Application{config: cfg, logger: logger}

	if err := app.initializeStorage(); err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if err := app.initializeSerial(); err != nil {
		return nil, fmt.Errorf("init serial: %w", err)
	}
	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("init server: %w", err)
	}
	if err := app.initializeAdminServer(); err != nil {
		return nil, fmt.Errorf("init admin server: %w", err)
	}

	return app, nil
}

func (app *Application) initializeStorage() error {
	store, err := storage.Open(app.config.Storage.Path, app.config.Storage.MigrationsPath)
	if err != nil {
		return err
	}
	app.store = store
	app.logger.Info("storage opened", zap.String("path", app.config.Storage.Path))
	return nil
}

func (app *Application) initializeSerial() error {
	app.serial = serialio.New(
		portConfig(app.config.Serial.Printer),
		portConfig(app.config.Serial.Scale),
		app.logger,
	)
	if err := app.serial.OpenPrinter(); err != nil {
		return err
	}
	if err := app.serial.OpenScale(); err != nil {
		return err
	}
	return nil
}

func (app *Application) initializeServer() error {
	orch := job.New(app.store, app.serial, app.logger)
	app.srv = server.New(app.config.ServerAddr(), orch, app.logger)
	return nil
}

func (app *Application) initializeAdminServer() error {
	router := routes.NewRouter(app.config, app.logger, app.store, app.serial, app.srv)
	engine := router.SetupRouter()

	app.adminServer = &http.Server{
		Addr:         app.config.AdminAddr(),
		Handler:      engine,
		ReadTimeout:  app.config.Admin.ReadTimeout,
		WriteTimeout: app.config.Admin.WriteTimeout,
		IdleTimeout:  app.config.Admin.IdleTimeout,
	}
	return nil
}

// Run starts the label TCP server and the admin HTTP surface, then blocks
// until an interrupt signal triggers graceful shutdown.
func (app *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		app.logger.Info("label server starting", zap.String("addr", app.config.ServerAddr()))
		if err := app.srv.ListenAndServe(ctx); err != nil {
			app.logger.Error("label server stopped", zap.Error(err))
		}
	}()

	go func() {
		app.logger.Info("admin server starting", zap.String("addr", app.adminServer.Addr))
		if err := app.adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error("admin server stopped", zap.Error(err))
		}
	}()

	app.waitForShutdown(cancel)
	return nil
}

func (app *Application) waitForShutdown(cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	app.logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	cancel()

	ctx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()

	if err := app.adminServer.Shutdown(ctx); err != nil {
		app.logger.Error("admin server shutdown error", zap.Error(err))
	}
	if err := app.serial.Close(); err != nil {
		app.logger.Error("serial close error", zap.Error(err))
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error("storage close error", zap.Error(err))
	}

	app.logger.Info("shutdown complete")
	utils.CloseLogger(app.logger)
}
