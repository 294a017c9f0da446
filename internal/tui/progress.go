package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressState tracks a running operation. The engine does not report
// progress, so the bar advances against an expected duration and holds
// short of full until the operation returns.
type ProgressState struct {
	progress    progress.Model
	percent     float64
	description string
	started     time.Time
	expected    time.Duration
	isActive    bool
}

// maxEstimated caps the bar while the operation is still running.
const maxEstimated = 0.95

// NewProgressState creates a new progress tracking state.
func NewProgressState() ProgressState {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)
	return ProgressState{
		progress: p,
	}
}

// Start begins tracking an operation expected to take about d. A zero d
// shows the description without a bar.
func (p *ProgressState) Start(description string, d time.Duration) {
	p.isActive = true
	p.percent = 0
	p.description = description
	p.started = time.Now()
	p.expected = d
}

// Advance recomputes the bar for the current time.
func (p *ProgressState) Advance(now time.Time) {
	if !p.isActive || p.expected <= 0 {
		return
	}
	pct := float64(now.Sub(p.started)) / float64(p.expected)
	if pct > maxEstimated {
		pct = maxEstimated
	}
	if pct > p.percent {
		p.percent = pct
	}
}

// Complete marks the operation as complete.
func (p *ProgressState) Complete() {
	p.percent = 1.0
	p.isActive = false
}

// IsActive returns whether an operation is in progress.
func (p *ProgressState) IsActive() bool {
	return p.isActive
}

// Description names the running operation.
func (p *ProgressState) Description() string {
	return p.description
}

// Percent is the current bar fill, 0.0 to 1.0.
func (p *ProgressState) Percent() float64 {
	return p.percent
}

// View renders the progress bar.
func (p ProgressState) View() string {
	if !p.isActive {
		return ""
	}
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if p.expected <= 0 {
		return descStyle.Render(p.description)
	}
	return descStyle.Render(p.description) + "\n" + p.progress.ViewAs(p.percent)
}
