package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/tbellamy/membank/pkg/app"
)

// program adapts the membank run loop to the kardianos/service interface.
type program struct {
	configPath string
	errCh      chan error

	// onFailure is invoked when the run loop exits with an error, so a
	// startup failure (bad config, port in use) terminates the service
	// instead of leaving it "running" with nothing listening.
	onFailure func(error)
}

func (p *program) Start(_ service.Service) error {
	go func() {
		err := app.Run(app.RunParams{
			ConfigPath: p.configPath,
			Version:    version,
			Commit:     commit,
			Date:       date,
			LogLevel:   slog.LevelInfo,
		})
		p.errCh <- err
		if err != nil && p.onFailure != nil {
			p.onFailure(err)
		}
	}()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	// app.Run exits on SIGTERM, which the service manager sends on stop.
	// If it already exited with an error, report that instead of a clean
	// shutdown.
	select {
	case err := <-p.errCh:
		return err
	default:
		return nil
	}
}

// serviceCmd manages membank as a system service (systemd, launchd, SCM).
func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service [install|uninstall|start|stop|run]",
		Short:     "Manage membank as a system service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			svcConfig := &service.Config{
				Name:        "membank",
				DisplayName: "membank memory bank",
				Description: "Conversation memory bank with LLM-backed fact extraction and search.",
				Arguments:   []string{"service", "run"},
			}
			if cfgPath != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgPath)
			}

			prg := &program{
				configPath: cfgPath,
				errCh:      make(chan error, 1),
				onFailure: func(err error) {
					slog.Error("membank service failed", "error", err)
					os.Exit(1)
				},
			}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return fmt.Errorf("service: %w", err)
			}

			switch args[0] {
			case "install":
				if err := svc.Install(); err != nil {
					return fmt.Errorf("service install: %w", err)
				}
				fmt.Println("Service installed.")
			case "uninstall":
				if err := svc.Uninstall(); err != nil {
					return fmt.Errorf("service uninstall: %w", err)
				}
				fmt.Println("Service uninstalled.")
			case "start":
				if err := svc.Start(); err != nil {
					return fmt.Errorf("service start: %w", err)
				}
				fmt.Println("Service started.")
			case "stop":
				if err := svc.Stop(); err != nil {
					return fmt.Errorf("service stop: %w", err)
				}
				fmt.Println("Service stopped.")
			case "run":
				return svc.Run()
			}
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
