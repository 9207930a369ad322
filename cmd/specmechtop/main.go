// Command specmechtop is a live terminal dashboard for a running
// specMech: environment, vacuum, pneumatics, collimator, and
// nitrogen-system status, polled on a fixed interval.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stlalpha/specmech/internal/config"
	"github.com/stlalpha/specmech/internal/mech/client"
	"github.com/stlalpha/specmech/internal/mech/coordinate"
)

func main() {
	configPath := flag.String("config", "specmech.json", "path to specMech config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	c := client.New(cfg.SpecMech.Address, cfg.SpecMech.Port, cfg.SpecMech.SequenceWrap)
	if err := c.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "connecting to specMech: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	coord := coordinate.New(c, cfg)

	p := tea.NewProgram(newModel(coord))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "specmechtop: %v\n", err)
		os.Exit(1)
	}
}
