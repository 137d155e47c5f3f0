// Package algae drives a robot's algae intake: a pivot arm under closed-loop
// position control and a roller under open-loop power.
//
// The same subsystem runs against a Feetech pivot servo and a GPIO roller,
// or against a physics model of a single-jointed arm.
//
// # Installation
//
//	go install github.com/gwillem/algae/cmd/algae@latest
//
// # Usage
//
// Run the intake in simulation with a live terminal view:
//
//	algae run
//
// Find the pivot servo and print a hardware config:
//
//	algae ports
//
// Chart a simulated mode sequence:
//
//	algae plot --sequence run-intake:2s,stow:3s
//
// # Packages
//
//   - cmd/algae: CLI with run, ports and plot commands
//   - pkg/intake: modes, setpoints and the periodic driver
//   - pkg/sim: arm physics, simulated motor controller and mechanism view
//   - pkg/robot: hardware backend, calibration and configuration
//   - pkg/teleop: fixed-rate control loop
//   - pkg/dashboard: HTTP and websocket telemetry
package algae
