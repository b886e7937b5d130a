package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_pool/internal/config"
	"github.com/andrei-cloud/go_pool/internal/logging"
	"github.com/andrei-cloud/go_pool/internal/workload"
	"github.com/andrei-cloud/go_pool/pkg/pool"
)

// tickMsg advances the dashboard one workload step.
type tickMsg time.Time

// watchModel renders live stats for every registered pool while stepping
// the demo workload cooperatively inside the TUI loop.
type watchModel struct {
	registry *pool.Registry
	load     *workload.Workload
	interval time.Duration
	ticks    int
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.load.Step()
		m.ticks++

		return m, m.tick()
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString("Pool Monitor\n\n")
	b.WriteString(fmt.Sprintf("%-14s %-12s %7s %7s %10s\n", "Group", "Tag", "Total", "Active", "Available"))
	b.WriteString(strings.Repeat("-", 54) + "\n")

	pools := m.registry.Pools()
	sort.Slice(pools, func(i, j int) bool {
		if pools[i].Group() != pools[j].Group() {
			return pools[i].Group() < pools[j].Group()
		}
		return pools[i].Tag() < pools[j].Tag()
	})

	for _, p := range pools {
		stats := p.Stats()
		b.WriteString(fmt.Sprintf(
			"%-14s %-12s %7d %7d %10d\n",
			p.Group(), p.Tag(), stats.Total, stats.Active, stats.Available,
		))
	}

	b.WriteString(fmt.Sprintf("\nticks: %d  held: %d\n", m.ticks, m.load.Live()))
	b.WriteString("\nq to quit\n")

	return b.String()
}

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of pool stats",
	Long:  `Run the demo workload over the configured pools and show their counts live in the terminal.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		// The TUI owns the terminal; keep logs out of the way.
		logging.InitLogger(false, false)

		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg := config.Get()

		registry := pool.NewRegistry()
		defer registry.Close()

		if err := registry.RegisterAll(workload.Templates(cfg.Pools)); err != nil {
			return fmt.Errorf("failed to register configured pools: %w", err)
		}

		interval := cfg.Workload.Interval
		if interval <= 0 {
			interval = 250 * time.Millisecond
		}

		m := watchModel{
			registry: registry,
			load:     workload.New(registry, cfg),
			interval: interval,
		}
		if _, err := tea.NewProgram(m).Run(); err != nil {
			log.Error().Err(err).Msg("dashboard terminated with error")
			return err
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
