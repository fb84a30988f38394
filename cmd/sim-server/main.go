package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"macrosim.com/internal/agents"
	"macrosim.com/internal/sim"
	"macrosim.com/internal/txlog"
	"macrosim.com/pkg/config"
	"macrosim.com/pkg/logger"
	"macrosim.com/pkg/metrics"
	"macrosim.com/pkg/safe"
)

type Config struct {
	Service struct {
		Name     string `mapstructure:"name"`
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"service"`
	Run struct {
		Mode      string  `mapstructure:"mode"` // "sim" or "realtime"
		Days      float64 `mapstructure:"days"`
		DayLength float64 `mapstructure:"day_length"`
	} `mapstructure:"run"`
	Metrics struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`
	TradeLog struct {
		WALPath    string `mapstructure:"wal_path"`
		SQLitePath string `mapstructure:"sqlite_path"`
		FlushAt    int    `mapstructure:"flush_at"`
	} `mapstructure:"trade_log"`
	World struct {
		Locations         []string `mapstructure:"locations"`
		Commodity         string   `mapstructure:"commodity"`
		Productivity      float64  `mapstructure:"productivity"`
		JGWage            int64    `mapstructure:"jg_wage"`
		JGWorkers         int64    `mapstructure:"jg_workers"`
		ProducersPerLoc   int      `mapstructure:"producers_per_location"`
		ProducerMoney     int64    `mapstructure:"producer_money"`
		HouseholdMoney    int64    `mapstructure:"household_money"`
		HouseholdFallback int64    `mapstructure:"household_fallback_price"`
	} `mapstructure:"world"`
}

func main() {
	var cfg Config
	if _, err := config.LoadAndWatch("sim-server", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Service.Name, cfg.Service.LogLevel)
	defer logger.Sync()
	metrics.MustRegister()

	ctx := context.Background()
	if cfg.Metrics.Addr != "" {
		safe.Go(func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error(ctx, "metrics listener exited", zap.Error(err))
			}
		})
	}

	if err := run(ctx, &cfg); err != nil {
		logger.Fatal(ctx, "run failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *Config) error {
	mode := sim.TimeModeSim
	if cfg.Run.Mode == "realtime" {
		mode = sim.TimeModeRealtime
	}
	s := sim.New(mode)
	if cfg.Run.DayLength > 0 {
		s.DayLength = cfg.Run.DayLength
	}

	sink, runID, err := buildSink(cfg)
	if err != nil {
		return err
	}
	if sink != nil {
		defer sink.Close()
		s.TradeSink = sink
	}
	logger.Info(ctx, "starting run", zap.String("run_id", runID), zap.String("mode", cfg.Run.Mode))

	if err := buildWorld(s, cfg); err != nil {
		return err
	}

	if mode == sim.TimeModeRealtime {
		return driveRealtime(ctx, s)
	}
	return driveBatch(ctx, s, cfg.Run.Days)
}

func buildSink(cfg *Config) (txlog.Sink, string, error) {
	var sinks txlog.MultiSink
	runID := txlog.NewRunID()
	if cfg.TradeLog.WALPath != "" {
		ws, err := txlog.OpenWALSink(cfg.TradeLog.WALPath, 0)
		if err != nil {
			return nil, "", err
		}
		runID = ws.RunID()
		sinks = append(sinks, ws)
	}
	if cfg.TradeLog.SQLitePath != "" {
		ss, err := txlog.OpenSQLiteSink(cfg.TradeLog.SQLitePath, runID, cfg.TradeLog.FlushAt)
		if err != nil {
			sinks.Close()
			return nil, "", err
		}
		sinks = append(sinks, ss)
	}
	if len(sinks) == 0 {
		return nil, runID, nil
	}
	return sinks, runID, nil
}

// buildWorld wires one commodity traded at each configured location, with a
// job guarantee, a household sector and the configured producers per
// location. The job guarantee must exist before producers, since their
// hiring decisions query its wage.
func buildWorld(s *sim.Simulation, cfg *Config) error {
	comID := s.AddCommodity(sim.NewCommodity(cfg.World.Commodity, cfg.World.Productivity))
	for _, name := range cfg.World.Locations {
		locID := s.AddLocation(sim.NewLocation(name))
		jg := agents.NewJobGuarantee(locID, comID, s.GovernmentID, cfg.World.JGWage, cfg.World.JGWorkers)
		if _, err := s.AddAgent(jg); err != nil {
			return err
		}
		hh := agents.NewHouseholdSector(locID, comID, cfg.World.HouseholdMoney, cfg.World.HouseholdFallback)
		hhID, err := s.AddAgent(hh)
		if err != nil {
			return err
		}
		s.SetHousehold(locID, hhID)
		for i := 0; i < cfg.World.ProducersPerLoc; i++ {
			p := agents.NewProducerLabour(fmt.Sprintf("%s_producer_%d", name, i), cfg.World.ProducerMoney, locID, comID)
			if _, err := s.AddAgent(p); err != nil {
				return err
			}
		}
	}
	return s.GenerateMarkets()
}

// driveBatch runs the event queue as fast as possible until the clock
// passes the configured horizon.
func driveBatch(ctx context.Context, s *sim.Simulation, days float64) error {
	for s.Time < days {
		worked, err := s.Step()
		if err != nil {
			return err
		}
		if !worked {
			if !s.AdvanceToNextEvent() {
				break
			}
		}
	}
	logger.Info(ctx, "run complete",
		zap.Float64("sim_time", s.Time), zap.Int64("total_money", s.TotalMoney()))
	return nil
}

// driveRealtime ticks the scaled wall clock and steps the queue until
// interrupted.
func driveRealtime(ctx context.Context, s *sim.Simulation) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			logger.Info(ctx, "shutting down", zap.Float64("sim_time", s.Time))
			return nil
		case <-ticker.C:
			s.IncrementTime()
			for {
				worked, err := s.Step()
				if err != nil {
					return err
				}
				if !worked {
					break
				}
			}
		}
	}
}
