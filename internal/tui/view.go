package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/strafe/internal/judge"
	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/stats"
)

const (
	cardWidth  = 44
	trendWidth = 3
)

var (
	backgroundColor = lipgloss.Color("#0A0C14")
	textColor       = lipgloss.Color("#F5F8FF")
	accentColor     = lipgloss.Color("#58A6FF")
	goodColor       = lipgloss.Color("#34D399")
	warningColor    = lipgloss.Color("#FBBF24")
	badColor        = lipgloss.Color("#F87171")
	neutralColor    = lipgloss.Color("#94A3B8")
	mutedColor      = lipgloss.Color("#1E2433")

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(1, 1).
			Width(cardWidth)
	mainStyle    = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	subStyle     = lipgloss.NewStyle().Foreground(neutralColor)
	textStyle    = lipgloss.NewStyle().Foreground(textColor).Bold(true)
	centerStyle  = lipgloss.NewStyle().Width(cardWidth - 2).Align(lipgloss.Center)
	statsBarWrap = lipgloss.NewStyle().Padding(0, 1)
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.done {
		return ""
	}
	blocks := []string{
		cardStyle.Render(m.renderMain()),
		cardStyle.Render(m.renderFeed()),
		statsBarWrap.Render(renderStatsBar(m.snap.Stats, m.snap.Shots)),
	}
	if trend := renderTrend(m.snap.Trend); trend != "" {
		blocks = append(blocks, statsBarWrap.Render(trend))
	}
	blocks = append(blocks, statsBarWrap.Render(m.help.View(m.keys)))
	content := lipgloss.JoinVertical(lipgloss.Center, blocks...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderMain() string {
	snap := m.snap
	if snap.Display.ShowTimer && snap.HasLiveHold {
		color, symbol := liveStyle(snap.LiveHold)
		timer := lipgloss.NewStyle().Foreground(color).Bold(true).
			Render(fmt.Sprintf("%s %s", judge.FormatMs(snap.LiveHold), symbol))
		ratio := float64(snap.LiveHold) / float64(judge.MaxHold)
		if ratio > 1 {
			ratio = 1
		}
		lines := []string{
			centerStyle.Render(timer),
			centerStyle.Render(subStyle.Render(fmt.Sprintf("TARGET: %s", judge.FormatMs(judge.OptimalHold)))),
			"",
			centerStyle.Render(m.progress.ViewAs(ratio)),
		}
		return strings.Join(lines, "\n")
	}
	lines := []string{
		centerStyle.Render(mainStyle.Render(snap.Display.Main)),
		"",
		centerStyle.Render(subStyle.Render(snap.Display.Sub)),
		"",
	}
	return strings.Join(lines, "\n")
}

// liveStyle colors the running timer by the band it is currently in.
func liveStyle(hold time.Duration) (lipgloss.Color, string) {
	switch {
	case hold < judge.MinHold:
		return badColor, "⚡"
	case hold > judge.MaxHold:
		return badColor, "⏱"
	default:
		if judge.Evaluate(hold) == model.Perfect {
			return goodColor, model.Perfect.Glyph()
		}
		return warningColor, model.Good.Glyph()
	}
}

func (m *Model) renderFeed() string {
	if len(m.snap.Feed) == 0 {
		return centerStyle.Render(subStyle.Render("No attempts yet"))
	}
	lines := make([]string, 0, len(m.snap.Feed))
	for _, entry := range m.snap.Feed {
		text := runewidth.Truncate(fmt.Sprintf("%s %s", entry.Glyph, entry.Message), cardWidth-2, "…")
		text = runewidth.FillRight(text, cardWidth-2)
		style := lipgloss.NewStyle().Foreground(fade(qualityColor(entry.Quality), entry.Opacity))
		lines = append(lines, style.Render(text))
	}
	return strings.Join(lines, "\n")
}

func qualityColor(q model.Quality) lipgloss.Color {
	switch q {
	case model.Perfect:
		return goodColor
	case model.Good:
		return warningColor
	default:
		return badColor
	}
}

// fade blends c toward the background as opacity drops to 0.
func fade(c lipgloss.Color, opacity float64) lipgloss.Color {
	if opacity >= 1 {
		return c
	}
	if opacity < 0 {
		opacity = 0
	}
	fg, err := colorful.Hex(string(c))
	if err != nil {
		return c
	}
	bg, err := colorful.Hex(string(backgroundColor))
	if err != nil {
		return c
	}
	return lipgloss.Color(bg.BlendLab(fg, opacity).Clamped().Hex())
}

func renderStatsBar(t stats.Tally, shots int) string {
	sep := subStyle.Render("  │  ")
	segments := []string{
		lipgloss.NewStyle().Foreground(goodColor).Bold(true).Render(fmt.Sprintf("%s %d", model.Perfect.Glyph(), t.Perfect)) +
			" " + subStyle.Render(fmt.Sprintf("%.0f%%", t.PerfectPercent())),
		lipgloss.NewStyle().Foreground(warningColor).Bold(true).Render(fmt.Sprintf("%s %d", model.Good.Glyph(), t.Good)),
		lipgloss.NewStyle().Foreground(badColor).Bold(true).Render(fmt.Sprintf("%s %d", model.Failed.Glyph(), t.Failed)),
		subStyle.Render(fmt.Sprintf("total %d", t.Total)),
	}
	if shots > 0 {
		segments = append(segments, subStyle.Render(fmt.Sprintf("shots %d", shots)))
	}
	return strings.Join(segments, sep)
}

func renderTrend(holds []float64) string {
	if len(holds) < 2 {
		return ""
	}
	line := stats.Sparkline(stats.MovingAverage(holds, trendWidth))
	return subStyle.Render("trend ") + textStyle.Render(line)
}
