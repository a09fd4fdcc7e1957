package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solar-sizer/config"
	"solar-sizer/internal/api"
	"solar-sizer/internal/catalog"
	"solar-sizer/internal/mqtt"
	"solar-sizer/internal/sizing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "solar-sizer",
		Short: "Off-grid PV installation sizer",
		Long:  "Sizes an off-grid photovoltaic installation from load and site parameters against an equipment catalog",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sizeCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the sizing service",
		Long:  "Start the HTTP API and the optional MQTT event publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			store, err := catalog.NewStore(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()
			log.Printf("Database opened at %s", cfg.Database.Path)

			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
			} else if cfg.MQTT.Enabled {
				log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			var server *api.Server
			if cfg.Server.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:      cfg.Server.Port,
					Store:     store,
					Publisher: publisher,
				})

				go func() {
					if err := server.Start(); err != nil {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			log.Println("Solar Sizer started. Press Ctrl+C to stop.")

			<-sigChan
			log.Println("Shutting down...")
			if server != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Stop(ctx); err != nil {
					log.Printf("API shutdown error: %v", err)
				}
			}
			if publisher != nil {
				publisher.Close()
			}

			return nil
		},
	}
}

// sizeRequest mirrors the HTTP calculation payload for file input.
type sizeRequest struct {
	DailyEnergyWh    float64 `json:"daily_energy_wh"`
	PeakPowerW       float64 `json:"peak_power_w"`
	AutonomyDays     int     `json:"autonomy_days"`
	IrradiationKWhM2 float64 `json:"irradiation_kwh_m2"`
	BusVoltageV      float64 `json:"bus_voltage_v"`
	Location         string  `json:"location"`
	CableRunM        float64 `json:"cable_run_m"`
	Strategy         string  `json:"strategy"`
}

func sizeCmd() *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "size",
		Short: "Run one sizing calculation",
		Long:  "Size an installation from a JSON input file against the catalog and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			raw, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			var req sizeRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("failed to parse input: %w", err)
			}

			store, err := catalog.NewStore(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()

			params, err := store.EffectiveParameters()
			if err != nil {
				return fmt.Errorf("failed to load parameters: %w", err)
			}

			engine := sizing.NewEngine(store)
			result, err := engine.Size(sizing.Input{
				DailyEnergyWh:    decimal.NewFromFloat(req.DailyEnergyWh),
				PeakPowerW:       decimal.NewFromFloat(req.PeakPowerW),
				AutonomyDays:     req.AutonomyDays,
				IrradiationKWhM2: decimal.NewFromFloat(req.IrradiationKWhM2),
				BusVoltageV:      decimal.NewFromFloat(req.BusVoltageV),
				Location:         req.Location,
				CableRunM:        decimal.NewFromFloat(req.CableRunM),
				Strategy:         sizing.Strategy(req.Strategy),
			}, sizing.NewParameters(
				params.GlobalEfficiency,
				params.SafetyCoefficient,
				params.DepthOfDischarge,
				params.InverterCoefficient,
				params.MaxOversize,
				params.CurrentSafetyMargin,
			))
			if err != nil {
				return fmt.Errorf("sizing failed: %w", err)
			}

			output, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(output))

			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "input.json", "JSON file with the calculation input")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the base equipment catalog",
		Long:  "Insert the base equipment set into the catalog, skipping existing references",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			store, err := catalog.NewStore(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()

			created, err := store.Seed()
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}

			fmt.Printf("Seeded %d catalog items\n", created)
			return nil
		},
	}
}
