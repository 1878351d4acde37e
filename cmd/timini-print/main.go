// timini-print serves a local /print endpoint and drives one TiMini
// family thermal printer over BLE or a serial link.
//
// Usage:
//
//	timini-print --bluetooth TiMini
//	timini-print --serial /dev/rfcomm0 --model X6
//
// Flags override the environment (PRINTER_BLUETOOTH, PRINTER_SERIAL,
// PRINTER_MODEL, PRINT_HOST, PRINT_PORT), which overrides the optional
// YAML config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"timini-print/internal/config"
	"timini-print/internal/device"
	"timini-print/internal/logging"
	"timini-print/internal/print"
	"timini-print/internal/server"
	"timini-print/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		bluetooth  = flag.String("bluetooth", "", "BLE printer name prefix or address")
		serialPort = flag.String("serial", "", "serial port, e.g. /dev/rfcomm0")
		model      = flag.String("model", "", "printer model override")
		host       = flag.String("host", "", "bind address")
		port       = flag.Int("port", 0, "HTTP port")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bluetooth":
			cfg.Printer.Bluetooth = *bluetooth
		case "serial":
			cfg.Printer.Serial = *serialPort
		case "model":
			cfg.Printer.Model = *model
		case "host":
			cfg.Server.Host = *host
		case "port":
			cfg.Server.Port = *port
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.Logging)
	gin.SetMode(gin.ReleaseMode)

	target := cfg.Target()
	resolver := &device.Resolver{
		Registry:    device.NewRegistry(),
		ScanTimeout: cfg.BLE.ScanTimeout,
		Strict:      cfg.Printer.StrictResolve,
	}
	var link transport.Transport
	if target.Kind == device.KindBLE {
		resolver.Scanner = transport.BLEScanner{}
		link = transport.BLE{}
	} else {
		link = transport.Serial{}
	}

	coordinator := &print.Coordinator{
		Target:     target,
		Resolver:   resolver,
		Transport:  link,
		Density:    cfg.Printer.Density,
		BLETimeout: cfg.BLE.PrintTimeout,
		Log:        log,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.New(coordinator, cfg.Server.MaxBodyBytes, log).Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info().
		Str("addr", addr).
		Str("transport", target.Kind.String()).
		Str("target", target.Target).
		Msg("print server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
