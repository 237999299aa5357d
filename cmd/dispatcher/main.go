// Command dispatcher runs the multi-elevator simulation described by
// SPEC_FULL.md: one floor injector replaying a scripted input file, one
// scheduler, and N car actors, all communicating over loopback UDP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/galemire/elevator-dispatch/internal/car"
	"github.com/galemire/elevator-dispatch/internal/constants"
	"github.com/galemire/elevator-dispatch/internal/floor"
	"github.com/galemire/elevator-dispatch/internal/httpapi"
	"github.com/galemire/elevator-dispatch/internal/infra/config"
	"github.com/galemire/elevator-dispatch/internal/infra/health"
	"github.com/galemire/elevator-dispatch/internal/infra/logging"
	"github.com/galemire/elevator-dispatch/internal/infra/observability"
	"github.com/galemire/elevator-dispatch/internal/registry"
	"github.com/galemire/elevator-dispatch/internal/scheduler"
	"github.com/galemire/elevator-dispatch/internal/transport"
)

// startFloor is the floor every car is seeded at before the first
// assignment arrives.
const startFloor = 1

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.InitConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		return 1
	}
	logging.InitLogger(cfg.LogLevel)

	inputPath, numElevators, err := parseArgs(cfg.NumElevators)
	if err != nil {
		slog.Error("invalid command line arguments", slog.String("error", err.Error()))
		return 1
	}

	inputFile, err := os.Open(inputPath)
	if err != nil {
		slog.Error("failed to open input file", slog.String("path", inputPath), slog.String("error", err.Error()))
		return 1
	}
	defer inputFile.Close()
	events := floor.ParseInputFile(inputFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetry, err := observability.NewTelemetryProvider(&observability.Config{
		Enabled:     cfg.ObservabilityEnabled,
		ServiceName: "elevator-dispatch",
	}, slog.Default())
	if err != nil {
		slog.Error("failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	tracer := telemetry.Tracer()

	carIDs := make([]int, numElevators)
	for i := range carIDs {
		carIDs[i] = i
	}
	reg := registry.New(carIDs, startFloor)

	sched, err := scheduler.New(cfg.SchedulerPort, cfg.FloorPort, reg, cfg.CarPort, tracer)
	if err != nil {
		slog.Error("failed to start scheduler", slog.String("error", err.Error()))
		return 1
	}
	defer sched.Close()

	cars := make([]*car.Car, numElevators)
	for i := range cars {
		c, carErr := car.New(car.Config{
			ID:               i,
			StartFloor:       startFloor,
			SchedulerPort:    cfg.SchedulerPort,
			Port:             cfg.CarPort(i),
			Timing:           cfg.Timing(),
			ElevatorCapacity: cfg.ElevatorCapacity,
			Tracer:           tracer,
		})
		if carErr != nil {
			slog.Error("failed to start car", slog.Int("car_id", i), slog.String("error", carErr.Error()))
			return 1
		}
		cars[i] = c
	}

	floorEgress, err := transport.Listen(0)
	if err != nil {
		slog.Error("failed to bind floor egress socket", slog.String("error", err.Error()))
		return 1
	}
	defer floorEgress.Close()

	floorIngress, err := transport.Listen(cfg.FloorPort)
	if err != nil {
		slog.Error("failed to bind floor ingress socket", slog.String("error", err.Error()))
		return 1
	}
	defer floorIngress.Close()

	injector := floor.NewInjector(floorEgress, sched.Port())
	receiver := floor.NewReceiver(floorIngress)
	receiver.SetTotal(len(events))

	var wg sync.WaitGroup
	wg.Add(1 + numElevators + 1)

	go func() { defer wg.Done(); sched.Run(ctx) }()
	for _, c := range cars {
		c := c
		go func() { defer wg.Done(); c.Run(ctx) }()
	}
	go func() { defer wg.Done(); receiver.Run(ctx) }()

	healthSvc := newHealthService(reg)
	opsServer := httpapi.NewOpsServer(cfg.MetricsEnabled, cfg.MetricsPort, cfg.HealthEnabled, cfg.HealthPort, healthSvc)
	opsErrs := opsServer.Start()
	go func() {
		for err := range opsErrs {
			slog.Error("ops server stopped", slog.String("error", err.Error()))
		}
	}()

	var wsServer *httpapi.WebSocketServer
	if cfg.WebSocketEnabled {
		wsServer = httpapi.NewWebSocketServer(cfg.WebSocketPort, reg, slog.With(slog.String("component", "websocket-server")))
		go func() {
			if err := wsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("websocket server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("dispatcher running",
		slog.Int("num_elevators", numElevators),
		slog.Int("total_requests", len(events)))

	injectionDone := make(chan struct{})
	go func() {
		defer close(injectionDone)
		injector.Run(ctx, events)
	}()

	select {
	case <-receiver.Done():
		slog.Info("all requests completed", slog.Int("completed", receiver.CompletedCount()))
	case sig := <-quit:
		slog.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	cancel()
	<-injectionDone
	wg.Wait()

	for _, c := range cars {
		_ = c.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("ops server shutdown failed", slog.String("error", err.Error()))
	}
	if wsServer != nil {
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("websocket server shutdown failed", slog.String("error", err.Error()))
		}
	}

	time.Sleep(time.Duration(cfg.ShutdownGrace) * constants.TimeUnit)
	slog.Info("dispatcher shut down")
	return 0
}

func parseArgs(defaultElevators int) (string, int, error) {
	if len(os.Args) < 2 {
		return "", 0, fmt.Errorf("usage: dispatcher <input-file> [num-elevators]")
	}
	numElevators := defaultElevators
	if len(os.Args) >= 3 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n <= 0 {
			return "", 0, fmt.Errorf("num-elevators must be a positive integer: %q", os.Args[2])
		}
		numElevators = n
	}
	return os.Args[1], numElevators, nil
}

func newHealthService(reg *registry.Registry) *health.HealthService {
	svc := health.NewHealthService(5 * time.Second)
	svc.Register(health.NewLivenessChecker())
	svc.Register(health.NewSystemResourceChecker(0, 0))
	svc.Register(health.NewFleetChecker(func() (int, int) {
		return len(reg.CarIDs()), reg.FleetSize()
	}))
	return svc
}

