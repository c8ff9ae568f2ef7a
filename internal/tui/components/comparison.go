package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dallionking/levelchain/internal/compare"
	"github.com/Dallionking/levelchain/internal/tui/styles"
)

// Comparison is a scrollable side-by-side of each level's SQL and its dbt
// model. It implements the Bubble Tea Model interface.
type Comparison struct {
	rows     []compare.Row
	viewport viewport.Model
	color    bool
	width    int
	height   int
}

// NewComparison creates a viewer for rows with the given dimensions.
func NewComparison(rows []compare.Row, width, height int, color bool) Comparison {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle().Background(styles.BgPanel)
	c := Comparison{
		rows:     rows,
		viewport: vp,
		color:    color,
		width:    width,
		height:   height,
	}
	c.refresh()
	return c
}

// Init satisfies tea.Model. No initial command needed.
func (c Comparison) Init() tea.Cmd {
	return nil
}

// Update forwards scrolling keys to the viewport.
func (c Comparison) Update(msg tea.Msg) (Comparison, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "g", "home":
			c.viewport.GotoTop()
			return c, nil
		case "G", "end":
			c.viewport.GotoBottom()
			return c, nil
		}
	}
	c.viewport, cmd = c.viewport.Update(msg)
	return c, cmd
}

// View returns the title line and the viewport.
func (c Comparison) View() string {
	title := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Bold(true).
		Render("dbt Model Comparison")

	pct := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(percent(c.viewport.ScrollPercent()))

	return title + "  " + pct + "\n" + c.viewport.View()
}

// SetSize resizes the viewport and re-renders the markdown at the new width.
func (c *Comparison) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.viewport.Width = width
	c.viewport.Height = height
	c.refresh()
}

// Rows returns the rows being shown.
func (c Comparison) Rows() []compare.Row {
	return c.rows
}

func (c *Comparison) refresh() {
	wrap := c.width - 4
	if wrap < 20 {
		wrap = 20
	}
	c.viewport.SetContent(compare.Render(compare.Markdown(c.rows), wrap, c.color))
}

func percent(f float64) string {
	return fmt.Sprintf("%3.f%%", max(0, min(f, 1))*100)
}
