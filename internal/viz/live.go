package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/monte/internal/completion"
	"github.com/san-kum/monte/internal/monte"
)

const (
	historyCapacity = 300
	visibleRuns     = 8
	barWidth        = 20
)

type runKey struct {
	campaign string
	run      int
}

type runRow struct {
	key        runKey
	conditions monte.Conditions
	last       completion.Result
	labels     []string
	halfWidths map[string][]float64
	precision  map[string]float64
}

// Model is the live campaign view.
type Model struct {
	feed     *Feed
	title    string
	maxCount int64
	theme    int
	styles   styles
	rows     []*runRow
	index    map[runKey]*runRow
	selected int
	done     bool
	err      error
	width    int
}

// NewModel builds a view reading from feed. maxCount scales the progress
// bars; 0 hides them.
func NewModel(feed *Feed, title string, maxCount int64, theme string) Model {
	m := Model{
		feed:     feed,
		title:    title,
		maxCount: maxCount,
		index:    make(map[runKey]*runRow),
		width:    80,
	}
	for i, t := range Themes {
		if t.Name == theme {
			m.theme = i
		}
	}
	m.styles = newStyles(Themes[m.theme])
	return m
}

func (m Model) Init() tea.Cmd {
	return m.feed.Wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.feed.Stop()
			return m, tea.Quit
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = newStyles(Themes[m.theme])
		case "tab":
			m.selected++
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case CheckMsg:
		m.record(msg)
		return m, m.feed.Wait()
	case DoneMsg:
		m.done, m.err = true, msg.Err
	}
	return m, nil
}

func (m *Model) record(msg CheckMsg) {
	key := runKey{msg.Campaign, msg.Run}
	row, ok := m.index[key]
	if !ok {
		row = &runRow{
			key:        key,
			conditions: msg.Conditions,
			halfWidths: make(map[string][]float64),
			precision:  make(map[string]float64),
		}
		m.index[key] = row
		m.rows = append(m.rows, row)
	}
	row.last = msg.Result
	if !msg.Result.Checked {
		return
	}
	for _, cr := range msg.Result.Criteria {
		label := criterionLabel(cr)
		if _, seen := row.precision[label]; !seen {
			row.labels = append(row.labels, label)
		}
		row.precision[label] = cr.Precision
		if !cr.Resolved {
			continue
		}
		h := append(row.halfWidths[label], cr.Estimate.HalfWidth)
		if len(h) > historyCapacity {
			h = h[len(h)-historyCapacity:]
		}
		row.halfWidths[label] = h
	}
}

func criterionLabel(cr completion.CriterionResult) string {
	switch {
	case cr.Name != "":
		return cr.Observable + "/" + cr.Name
	case cr.Component > 0:
		return fmt.Sprintf("%s[%d]", cr.Observable, cr.Component)
	}
	return cr.Observable
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render(m.title))
	b.WriteString("\n")

	start := max(0, len(m.rows)-visibleRuns)
	for _, row := range m.rows[start:] {
		b.WriteString(m.renderRow(row))
		b.WriteString("\n")
	}
	if len(m.rows) == 0 {
		b.WriteString(m.styles.muted.Render("waiting for the first check"))
		b.WriteString("\n")
	}

	if len(m.rows) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderCriteria(m.rows[len(m.rows)-1]))
	}

	b.WriteString("\n")
	switch {
	case m.done && m.err != nil:
		b.WriteString(m.styles.reason[completion.CutoffReached].Render("failed: " + m.err.Error()))
		b.WriteString("\n")
	case m.done:
		b.WriteString(m.styles.reason[completion.Converged].Render("all campaigns finished"))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.muted.Render("q quit | t theme | tab next criterion"))
	return b.String()
}

func (m Model) renderRow(row *runRow) string {
	p := row.last.Progress
	name := fmt.Sprintf("%s#%d", row.key.campaign, row.key.run)
	cols := []string{
		m.styles.value.Render(fmt.Sprintf("%-14s", name)),
		m.styles.label.Render(row.conditions.String()),
		m.styles.reason[row.last.Reason].Render(fmt.Sprintf("%-14s", row.last.Reason)),
		m.styles.value.Render(fmt.Sprintf("passes %-8d samples %-6d", p.Count, p.Samples)),
	}
	if m.maxCount > 0 {
		cols = append(cols, ProgressBar(float64(p.Count)/float64(m.maxCount), barWidth))
	}
	return strings.Join(cols, " ")
}

func (m Model) renderCriteria(row *runRow) string {
	if len(row.labels) == 0 {
		return m.styles.muted.Render("no convergence check yet")
	}

	var lines []string
	for _, cr := range row.last.Criteria {
		mark := "·"
		if cr.Satisfied {
			mark = "✓"
		}
		label := criterionLabel(cr)
		lines = append(lines, fmt.Sprintf("%s %s mean %-12.6g ±%-10.4g (want %-8.3g) %s",
			mark, m.styles.label.Render(fmt.Sprintf("%-16s", label)), cr.Estimate.Mean, cr.Estimate.HalfWidth, cr.Precision,
			Sparkline(row.halfWidths[label], barWidth)))
	}

	label := row.labels[m.selected%len(row.labels)]
	if h := row.halfWidths[label]; len(h) > 1 {
		limit := make([]float64, len(h))
		for i := range limit {
			limit[i] = row.precision[label]
		}
		chart := asciigraph.PlotMany([][]float64{h, limit},
			asciigraph.Height(8),
			asciigraph.Width(min(60, max(20, m.width-20))),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Red),
			asciigraph.Caption(label+" half-width vs precision"))
		lines = append(lines, "", chart)
	}
	return m.styles.panel.Render(strings.Join(lines, "\n"))
}

// Run shows the live view while work runs. Quitting the view cancels the
// context given to work. The returned error is work's.
func Run(ctx context.Context, m Model, work func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		err := work(ctx)
		m.feed.Close(err)
		errc <- err
	}()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, uiErr := p.Run()
	m.feed.Stop()
	cancel()

	if err := <-errc; err != nil {
		return err
	}
	if uiErr != nil && ctx.Err() == nil {
		return uiErr
	}
	return nil
}
