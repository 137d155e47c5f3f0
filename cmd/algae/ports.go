package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/algae/internal/log"
	"github.com/gwillem/algae/pkg/robot"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type PortsCommand struct {
	BaudRate int `long:"baud" default:"1000000" description:"Bus baud rate"`
	MaxID    int `long:"max-id" default:"20" description:"Highest servo ID to scan for"`
}

// servoInfo is one servo found while scanning.
type servoInfo struct {
	port  string
	id    int
	model string
}

func (s servoInfo) String() string {
	return fmt.Sprintf("%s  id %d  %s", s.port, s.id, s.model)
}

func (c *PortsCommand) Execute(args []string) error {
	// Defaults stand in for a missing or broken config.
	cfg, err := loadConfig()
	if err != nil {
		cfg = robot.DefaultConfig()
		if opts.LogLevel != "" {
			cfg.LogLevel = opts.LogLevel
		}
	}
	initLogging(cfg)
	if err != nil {
		log.Warn("config not loaded, starting from defaults", "error", err)
	}

	fmt.Println(headerStyle.Render("Algae Port Scan"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println()

	found := c.findServos()
	if len(found) == 0 {
		fmt.Println("No Feetech servos found.")
		fmt.Println("Make sure the pivot is connected and powered on.")
		os.Exit(1)
	}

	pick := found[0]
	if len(found) > 1 {
		if pick, err = selectServo(found); err != nil {
			return err
		}
	}

	cfg.Simulate = false
	cfg.Pivot.Port = pick.port
	cfg.Pivot.BaudRate = c.BaudRate
	cfg.Pivot.Calibration.ID = pick.id

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(successStyle.Render("Pivot servo: " + pick.String()))
	fmt.Printf("Save this as %s to run on hardware:\n\n", robot.DefaultConfigFile)
	fmt.Println(string(data))
	return nil
}

func (c *PortsCommand) findServos() []servoInfo {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var found []servoInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		log.Debug("scanning port", "port", port, "max_id", c.MaxID)
		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: c.BaudRate,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			log.Debug("open port failed", "port", port, "error", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		servos, err := bus.Scan(ctx, 1, c.MaxID)
		cancel()
		bus.Close()
		if err != nil {
			continue
		}

		for _, s := range servos {
			fmt.Printf("  Found servo %d on %s\n", s.ID, port)
			found = append(found, servoInfo{port: port, id: s.ID, model: fmt.Sprint(s.Model)})
		}
	}
	return found
}

func selectServo(found []servoInfo) (servoInfo, error) {
	options := make([]huh.Option[int], len(found))
	for i, s := range found {
		options[i] = huh.NewOption(s.String(), i)
	}

	var choice int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Which servo is the intake pivot?").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return servoInfo{}, err
	}
	return found[choice], nil
}
