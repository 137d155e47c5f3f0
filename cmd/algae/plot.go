package main

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gwillem/algae/internal/log"
	"github.com/gwillem/algae/pkg/intake"
	"github.com/gwillem/algae/pkg/robot"
)

type PlotCommand struct {
	Output   string `short:"o" long:"output" default:"algae.png" description:"PNG file to write"`
	Sequence string `long:"sequence" default:"run-intake:2s,hold:2s,reverse-intake:2s,stow:3s" description:"Comma-separated mode:duration steps"`
}

// step is one entry of a simulated mode sequence.
type step struct {
	mode intake.Mode
	dur  time.Duration
}

func parseSequence(s string) ([]step, error) {
	var steps []step
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, dur, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("step %q: want mode:duration", part)
		}
		m, err := intake.ParseMode(name)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", part, err)
		}
		d, err := time.ParseDuration(dur)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", part, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("step %q: duration must be positive", part)
		}
		steps = append(steps, step{mode: m, dur: d})
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty sequence")
	}
	return steps, nil
}

// trace holds one sample per tick.
type trace struct {
	position, setpoint, angle, current plotter.XYs
}

// simulate runs steps through a simulated intake built from cfg.
func simulate(cfg *robot.Config, steps []step) (*trace, error) {
	sim := *cfg
	sim.Simulate = true
	in, err := robot.Open(&sim, nil)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	period := time.Second / time.Duration(max(sim.Hz, 1))
	tr := &trace{}
	var t time.Duration
	for _, st := range steps {
		in.RequestMode(st.mode)
		for end := t + st.dur; t < end; t += period {
			r := in.Periodic(false)
			in.UpdateBattery()
			x := t.Seconds()
			tr.position = append(tr.position, plotter.XY{X: x, Y: r.ArmPosition})
			tr.setpoint = append(tr.setpoint, plotter.XY{X: x, Y: in.CurrentSetpoints().ArmPosition})
			tr.angle = append(tr.angle, plotter.XY{X: x, Y: in.Sim.VisualAngle()})
			tr.current = append(tr.current, plotter.XY{X: x, Y: in.CurrentDraw()})
		}
	}
	return tr, nil
}

func (tr *trace) plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Algae intake pivot"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "encoder (rotations)"
	p.Add(plotter.NewGrid())

	lines := []struct {
		name  string
		xys   plotter.XYs
		color color.Color
		dash  bool
	}{
		{"setpoint", tr.setpoint, color.RGBA{R: 255, G: 140, A: 255}, true},
		{"position", tr.position, color.RGBA{G: 160, A: 255}, false},
	}
	for _, l := range lines {
		line, err := plotter.NewLine(l.xys)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = l.color
		if l.dash {
			line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(line)
		p.Legend.Add(l.name, line)
	}
	p.Legend.Top = true
	return p, nil
}

func (c *PlotCommand) Execute(args []string) error {
	steps, err := parseSequence(c.Sequence)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	initLogging(cfg)
	log.Debug("simulating sequence", "steps", len(steps), "hz", cfg.Hz)

	tr, err := simulate(cfg, steps)
	if err != nil {
		return err
	}
	p, err := tr.plot()
	if err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, c.Output); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}

	last := tr.current[len(tr.current)-1].Y
	fmt.Printf("Wrote %s (%d samples, final angle %.1f°, final current %.1f A)\n",
		c.Output, len(tr.position), tr.angle[len(tr.angle)-1].Y, last)
	return nil
}
