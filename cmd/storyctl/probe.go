package main

import (
	"fmt"
	"strings"
	"time"

	"story-server/internal/ai"
	"story-server/internal/config"
	"story-server/internal/logger"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var probePrompt string

var probeCmd = &cobra.Command{
	Use:   "probe [provider...]",
	Short: "Send a short prompt through each AI provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		providers := []ai.Provider{ai.ProviderDeepSeek, ai.ProviderGoogle}
		if len(args) > 0 {
			providers = providers[:0]
			for _, raw := range args {
				p, ok := ai.ParseProvider(raw)
				if !ok {
					return fmt.Errorf("unknown provider %q", raw)
				}
				providers = append(providers, p)
			}
		}

		dispatchLog, err := probeLogger(verbose)
		if err != nil {
			return err
		}
		defer func() { _ = dispatchLog.Sync() }()
		dispatcher := ai.NewProviderDispatcher(cfg.AIConfig, dispatchLog)
		messages := []ai.Message{{Role: ai.RoleUser, Content: probePrompt}}

		results := make([]probeResult, 0, len(providers))
		for _, p := range providers {
			log.Debug().Str("provider", string(p)).Msg("Probing provider")
			start := time.Now()
			gen, err := dispatcher.Generate(cmd.Context(), ai.NewSelector(string(p), nil), messages)
			res := probeResult{requested: p, latency: time.Since(start), err: err}
			if err == nil {
				res.marker = !cfg.ProvenanceMarkers || strings.HasSuffix(gen.Text, ai.ProvenanceMarker(gen.Provider))
				res.preview = ai.StripProvenance(gen.Text)
			} else {
				log.Warn().Str("provider", string(p)).Err(err).Msg("Provider probe failed")
			}
			results = append(results, res)
		}

		printProbeResults(results)
		for _, r := range results {
			if r.err != nil {
				return fmt.Errorf("%d provider(s) failed", countFailed(results))
			}
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVar(&probePrompt, "prompt", "用一句话介绍你自己。", "prompt to send")
}

type probeResult struct {
	requested ai.Provider
	marker    bool
	latency   time.Duration
	preview   string
	err       error
}

func countFailed(results []probeResult) int {
	n := 0
	for _, r := range results {
		if r.err != nil {
			n++
		}
	}
	return n
}

func printProbeResults(results []probeResult) {
	var (
		headerColor = lipgloss.Color("#F780FF")
		okColor     = lipgloss.Color("#50FA7B")
		failColor   = lipgloss.Color("#FF5555")
		borderColor = lipgloss.Color("#6272A4")
		textColor   = lipgloss.Color("#E9E9F4")
	)

	const (
		providerWidth = 12
		statusWidth   = 10
		latencyWidth  = 10
		previewWidth  = 48
	)

	headerStyle := lipgloss.NewStyle().Foreground(headerColor).Bold(true).Padding(0, 1)
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	cell := func(width int) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(textColor).Padding(0, 1).Width(width)
	}

	fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Width(providerWidth).Render("PROVIDER"),
		headerStyle.Width(statusWidth).Render("STATUS"),
		headerStyle.Width(latencyWidth).Render("LATENCY"),
		headerStyle.Width(previewWidth).Render("ANSWER"),
	))
	fmt.Println(borderStyle.Render(strings.Repeat("─", providerWidth+statusWidth+latencyWidth+previewWidth)))

	for _, r := range results {
		status := lipgloss.NewStyle().Foreground(okColor).Padding(0, 1).Width(statusWidth).Render("ok")
		preview := r.preview
		if r.err != nil {
			status = lipgloss.NewStyle().Foreground(failColor).Padding(0, 1).Width(statusWidth).Render("failed")
			preview = r.err.Error()
		} else if !r.marker {
			status = lipgloss.NewStyle().Foreground(failColor).Padding(0, 1).Width(statusWidth).Render("no marker")
		}
		fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
			cell(providerWidth).Render(string(r.requested)),
			status,
			cell(latencyWidth).Align(lipgloss.Right).Render(r.latency.Round(time.Millisecond).String()),
			cell(previewWidth).Render(truncate(preview, previewWidth-2)),
		))
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// probeLogger пишет повторы и ошибки диспетчера в stderr только в режиме --verbose.
func probeLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return logger.New(logger.Config{Level: "debug", Encoding: "console", OutputPath: "stderr"})
}
