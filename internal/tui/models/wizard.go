package models

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dallionking/levelchain/internal/chain"
	"github.com/Dallionking/levelchain/internal/compare"
	"github.com/Dallionking/levelchain/internal/pipeline"
	"github.com/Dallionking/levelchain/internal/tui/components"
	"github.com/Dallionking/levelchain/internal/tui/styles"
	"github.com/Dallionking/levelchain/internal/wizard"
)

// ---------------------------------------------------------------------------
// Field enumeration
// ---------------------------------------------------------------------------

// Field enumerates the inputs of the level editor.
type Field int

const (
	FieldDataset Field = iota // 0
	FieldName                 // 1
	FieldType                 // 2
	FieldQuery                // 3
)

const fieldCount = 4

// datasetsFailedMessage is shown in place of the dataset selector when the
// catalog could not be fetched.
const datasetsFailedMessage = "Failed to load datasets. Please try again later."

// ---------------------------------------------------------------------------
// Tea messages
// ---------------------------------------------------------------------------

type projectsLoadedMsg struct {
	ids []string
	err error
}

type datasetsLoadedMsg struct {
	ids []string
	err error
}

type submitDoneMsg struct {
	outcome pipeline.Outcome
}

// dialogKind tells which staged action an open dialog confirms.
type dialogKind int

const (
	dialogNone dialogKind = iota
	dialogAdd
	dialogDelete
)

// ---------------------------------------------------------------------------
// WizardModel
// ---------------------------------------------------------------------------

// WizardOptions wires a WizardModel to its collaborators.
type WizardOptions struct {
	Controller *wizard.Controller
	Catalog    wizard.Catalog
	Submitter  pipeline.Submitter

	// Shown in the header.
	BackendURL string
	Storage    string

	// Timeout bounds each backend call. Zero means 10s.
	Timeout time.Duration
	Color   bool
}

// WizardModel implements tea.Model for the level chain editor. It edits one
// visible level at a time and overlays, in priority order:
//
//	quit confirmation   -- y quits, anything else resumes
//	add/delete dialog   -- confirms or cancels the staged action
//	comparison          -- scrollable SQL vs dbt per level
//	submission overlay  -- spinner, success actions or the failure message
type WizardModel struct {
	ctrl      *wizard.Controller
	catalog   wizard.Catalog
	submitter pipeline.Submitter

	backendURL string
	storage    string
	timeout    time.Duration
	color      bool

	// Editor for the current level.
	index   int
	focus   Field
	dataset string
	objType chain.ObjectType
	name    textinput.Model
	query   textarea.Model

	// Inline feedback.
	notice    string
	noticeErr bool
	fieldErrs map[string]string

	// Overlays.
	dialog      components.ConfirmDialog
	dialogKind  dialogKind
	confirmQuit bool
	failure     string
	hideFailure bool
	showCompare bool
	comparison  components.Comparison
	spin        spinner.Model

	// Layout
	width  int
	height int
}

// NewWizardModel creates the editor positioned on the chain's current level.
func NewWizardModel(opts WizardOptions) WizardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.AccentPrimary)

	name := textinput.New()
	name.Placeholder = "object name"
	name.CharLimit = 128
	name.Width = 40

	query := textarea.New()
	query.Placeholder = "SELECT ..."
	query.ShowLineNumbers = false
	query.SetWidth(72)
	query.SetHeight(6)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	m := WizardModel{
		ctrl:       opts.Controller,
		catalog:    opts.Catalog,
		submitter:  opts.Submitter,
		backendURL: opts.BackendURL,
		storage:    opts.Storage,
		timeout:    timeout,
		color:      opts.Color,
		name:       name,
		query:      query,
		spin:       s,
		width:      80,
		height:     40,
	}
	m.loadLevel()
	return m
}

// ---------------------------------------------------------------------------
// tea.Model interface
// ---------------------------------------------------------------------------

// Init starts both catalog fetches.
func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchProjects(), m.fetchDatasets(), m.spin.Tick)
}

// Update processes messages and key events.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width < 60 {
			m.width = 60
		}
		m.height = msg.Height
		m.name.Width = clampWidth(m.width-20, 60)
		m.query.SetWidth(clampWidth(m.width-8, 100))
		if m.showCompare {
			m.comparison.SetSize(clampWidth(m.width-4, 120), m.compareHeight())
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case projectsLoadedMsg:
		m.ctrl.FinishProjects(msg.ids, msg.err)
		return m, nil

	case datasetsLoadedMsg:
		m.ctrl.FinishDatasets(msg.ids, msg.err)
		if msg.err == nil {
			m.dataset = chain.DefaultDataset(m.dataset, msg.ids)
		}
		return m, nil

	case submitDoneMsg:
		m.ctrl.FinishSubmit(msg.outcome)
		if m.ctrl.Pipeline().Status() == pipeline.StatusError {
			m.failure = msg.outcome.Message()
			m.hideFailure = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

// View renders the editor and any active overlay.
func (m WizardModel) View() string {
	state := m.ctrl.State()
	var sections []string

	header := components.Header{
		Project: state.ProjectID,
		Backend: m.backendURL,
		Storage: m.storage,
		Width:   m.width,
	}
	sections = append(sections, header.Render())
	sections = append(sections, "")
	sections = append(sections, "  "+components.LevelNav{State: state}.Render())
	sections = append(sections, "")
	sections = append(sections, "  "+styles.Divider(clampWidth(m.width-4, 100)))
	sections = append(sections, "")

	switch {
	case m.dialogKind != dialogNone:
		sections = append(sections, m.centered(m.dialog.View()))
	case m.showCompare:
		sections = append(sections, "  "+m.comparison.View())
	case m.overlayActive():
		sections = append(sections, m.centered(m.overlay().Render()))
	default:
		sections = append(sections, m.viewEditor(state))
	}

	if m.confirmQuit {
		sections = append(sections, "")
		quitStyle := lipgloss.NewStyle().
			Background(styles.BgSurface).
			Foreground(styles.StatusWarn).
			Border(styles.RoundedBorder).
			BorderForeground(styles.StatusWarn).
			Padding(0, 1)
		sections = append(sections, "  "+quitStyle.Render("Quit levelchain? Saved levels are kept.  y/n"))
	}

	sections = append(sections, "")
	sections = append(sections, "  "+styles.Divider(clampWidth(m.width-4, 100)))
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// ---------------------------------------------------------------------------
// Key handling
// ---------------------------------------------------------------------------

func (m WizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Quit confirmation takes priority.
	if m.confirmQuit {
		switch key {
		case "y", "Y":
			return m, tea.Quit
		default:
			m.confirmQuit = false
			return m, nil
		}
	}

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch {
	case m.dialogKind != dialogNone:
		return m.handleDialogKey(msg)
	case m.showCompare:
		return m.handleCompareKey(msg)
	case m.overlayActive():
		return m.handleOverlayKey(key)
	}
	return m.handleEditorKey(msg)
}

func (m WizardModel) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.confirmQuit = true
		return m, nil
	case "tab":
		return m.setFocus((m.focus + 1) % fieldCount)
	case "shift+tab":
		return m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case "ctrl+s":
		return m.save()
	case "ctrl+a":
		return m.requestAdd()
	case "ctrl+d":
		return m.requestDelete()
	case "ctrl+n":
		return m.step(1)
	case "ctrl+p":
		return m.step(-1)
	case "ctrl+o":
		if err := m.ctrl.CycleProject(); err != nil {
			m.setError(err.Error())
		}
		return m, nil
	case "ctrl+r":
		return m, tea.Batch(m.fetchProjects(), m.fetchDatasets())
	case "ctrl+g":
		return m.submit()
	}

	switch m.focus {
	case FieldDataset:
		return m.handleDatasetKey(msg.String())
	case FieldType:
		return m.handleTypeKey(msg.String())
	}
	return m.updateInputs(msg)
}

func (m WizardModel) handleDatasetKey(key string) (tea.Model, tea.Cmd) {
	ids, err := m.ctrl.Datasets()
	if err != nil || len(ids) == 0 {
		return m, nil
	}
	cur := slices.Index(ids, m.dataset)
	switch key {
	case "right", "l", "down", "j", " ":
		m.dataset = ids[(cur+1)%len(ids)]
	case "left", "h", "up", "k":
		if cur <= 0 {
			cur = len(ids)
		}
		m.dataset = ids[cur-1]
	}
	return m, nil
}

func (m WizardModel) handleTypeKey(key string) (tea.Model, tea.Cmd) {
	if m.index == 1 {
		return m, nil
	}
	switch key {
	case "left", "right", "h", "l", " ", "enter":
		if m.objType == chain.ObjectView {
			m.objType = chain.ObjectTable
		} else {
			m.objType = chain.ObjectView
		}
	}
	return m, nil
}

func (m WizardModel) handleDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.dialog, cmd = m.dialog.Update(msg)
	if !m.dialog.Done {
		return m, cmd
	}

	kind := m.dialogKind
	m.dialogKind = dialogNone
	switch {
	case kind == dialogAdd && m.dialog.Confirmed:
		if err := m.ctrl.ConfirmAdd(); err != nil {
			m.setError(err.Error())
			return m, cmd
		}
		m.loadLevel()
		if msg := m.ctrl.Message(); msg != "" {
			m.setNotice(msg)
		} else {
			m.setNotice(fmt.Sprintf("Level %d added.", m.index))
		}
	case kind == dialogAdd:
		m.ctrl.CancelAdd()
	case kind == dialogDelete && m.dialog.Confirmed:
		target, _ := m.ctrl.PendingDelete()
		if err := m.ctrl.ConfirmDelete(); err != nil {
			m.setError(err.Error())
			return m, cmd
		}
		m.loadLevel()
		m.setNotice(fmt.Sprintf("Level %d removed.", target))
	case kind == dialogDelete:
		m.ctrl.CancelDelete()
	}
	return m, cmd
}

func (m WizardModel) handleCompareKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.showCompare = false
		return m, nil
	case "m":
		m.showCompare = false
		return m.makeChanges()
	case "q":
		m.confirmQuit = true
		return m, nil
	}
	var cmd tea.Cmd
	m.comparison, cmd = m.comparison.Update(msg)
	return m, cmd
}

func (m WizardModel) handleOverlayKey(key string) (tea.Model, tea.Cmd) {
	switch m.ctrl.Pipeline().Status() {
	case pipeline.StatusSuccess:
		switch key {
		case "enter", "d":
			rows := compare.Rows(m.ctrl.State(), m.ctrl.Pipeline().Result())
			m.comparison = components.NewComparison(rows, clampWidth(m.width-4, 120), m.compareHeight(), m.color)
			m.showCompare = true
		case "m":
			return m.makeChanges()
		case "q", "esc":
			m.confirmQuit = true
		}
	case pipeline.StatusError:
		switch key {
		case "r", "enter":
			return m.submit()
		case "esc":
			m.hideFailure = true
		}
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

func (m WizardModel) save() (tea.Model, tea.Cmd) {
	if err := m.ctrl.Save(m.index, m.formValues()); err != nil {
		m.showError(err)
		return m, nil
	}
	m.fieldErrs = nil
	if msg := m.ctrl.Message(); msg != "" {
		m.setNotice(msg)
	} else {
		m.setNotice(fmt.Sprintf("Level %d saved.", m.index))
	}
	return m, nil
}

func (m WizardModel) requestAdd() (tea.Model, tea.Cmd) {
	if err := m.ctrl.RequestAdd(m.index, m.formValues()); err != nil {
		m.showError(err)
		return m, nil
	}
	m.fieldErrs = nil
	next := m.ctrl.NextLevel()
	m.dialog = components.NewConfirmDialog(
		fmt.Sprintf("Add Level %d", next),
		fmt.Sprintf("Save level %d and add level %d?", m.index, next),
	).WithButtons("Add", "Cancel")
	m.dialogKind = dialogAdd
	return m, nil
}

func (m WizardModel) requestDelete() (tea.Model, tea.Cmd) {
	if err := m.ctrl.RequestDelete(m.index); err != nil {
		m.showError(err)
		return m, nil
	}
	m.dialog = components.NewConfirmDialog(
		fmt.Sprintf("Delete Level %d", m.index),
		fmt.Sprintf("Remove level %d and its saved data? Other levels keep their numbers.", m.index),
	).WithButtons("Delete", "Cancel")
	m.dialogKind = dialogDelete
	return m, nil
}

// step moves to the next or previous visible level. Unsaved edits are
// discarded.
func (m WizardModel) step(dir int) (tea.Model, tea.Cmd) {
	visible := m.ctrl.State().Visible
	pos := slices.Index(visible, m.index) + dir
	if pos < 0 || pos >= len(visible) {
		return m, nil
	}
	if err := m.ctrl.Select(visible[pos]); err != nil {
		m.setError(err.Error())
		return m, nil
	}
	m.loadLevel()
	m.notice = ""
	return m, nil
}

func (m WizardModel) submit() (tea.Model, tea.Cmd) {
	run, err := m.ctrl.BeginSubmit()
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}
	m.failure = ""
	m.hideFailure = false
	m.notice = ""

	pipe, sub, timeout := m.ctrl.Pipeline(), m.submitter, m.timeout
	execute := func() tea.Msg {
		// Two sequential calls share the deadline.
		ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
		defer cancel()
		return submitDoneMsg{outcome: pipe.Execute(ctx, sub, run)}
	}
	return m, tea.Batch(execute, m.spin.Tick)
}

func (m WizardModel) makeChanges() (tea.Model, tea.Cmd) {
	if err := m.ctrl.MakeChanges(); err != nil {
		m.setError(err.Error())
		return m, nil
	}
	m.loadLevel()
	return m, nil
}

func (m WizardModel) fetchProjects() tea.Cmd {
	if !m.ctrl.BeginProjects() {
		return nil
	}
	cat, timeout := m.catalog, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ids, err := wizard.LoadProjects(ctx, cat)
		return projectsLoadedMsg{ids: ids, err: err}
	}
}

func (m WizardModel) fetchDatasets() tea.Cmd {
	if !m.ctrl.BeginDatasets() {
		return nil
	}
	cat, timeout := m.catalog, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ids, err := wizard.LoadDatasets(ctx, cat)
		return datasetsLoadedMsg{ids: ids, err: err}
	}
}

// ---------------------------------------------------------------------------
// Editor state
// ---------------------------------------------------------------------------

// loadLevel points the editor at the chain's current level.
func (m *WizardModel) loadLevel() {
	m.index = m.ctrl.State().Current
	v := m.ctrl.EditorValues(m.index)
	m.dataset = v.DatasetID
	m.objType = v.ObjectType
	m.name.SetValue(v.ObjectName)
	m.query.SetValue(v.Query)
	m.fieldErrs = nil
	m.setFocus(FieldDataset)
}

func (m WizardModel) formValues() chain.Level {
	return chain.Level{
		DatasetID:  m.dataset,
		ObjectName: strings.TrimSpace(m.name.Value()),
		ObjectType: m.objType,
		Query:      strings.TrimSpace(m.query.Value()),
	}
}

func (m *WizardModel) setFocus(f Field) (tea.Model, tea.Cmd) {
	m.focus = f
	m.name.Blur()
	m.query.Blur()
	var cmd tea.Cmd
	switch f {
	case FieldName:
		cmd = m.name.Focus()
	case FieldQuery:
		cmd = m.query.Focus()
	}
	return *m, cmd
}

func (m WizardModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FieldName:
		m.name, cmd = m.name.Update(msg)
	case FieldQuery:
		m.query, cmd = m.query.Update(msg)
	}
	return m, cmd
}

func (m *WizardModel) showError(err error) {
	var verrs wizard.ValidationErrors
	if errors.As(err, &verrs) {
		m.fieldErrs = make(map[string]string, len(verrs))
		for _, e := range verrs {
			m.fieldErrs[e.Field] = e.Message
		}
		m.setError("Fix the highlighted fields.")
		return
	}
	m.setError(err.Error())
}

func (m *WizardModel) setNotice(s string) {
	m.notice = s
	m.noticeErr = false
}

func (m *WizardModel) setError(s string) {
	m.notice = s
	m.noticeErr = true
}

// overlayActive reports whether the submission overlay owns the screen.
func (m WizardModel) overlayActive() bool {
	switch m.ctrl.Pipeline().Status() {
	case pipeline.StatusLoading, pipeline.StatusSuccess:
		return true
	case pipeline.StatusError:
		return !m.hideFailure
	}
	return false
}

func (m WizardModel) overlay() components.SubmissionOverlay {
	return components.SubmissionOverlay{
		Status:  m.ctrl.Pipeline().Status(),
		Spinner: m.spin.View(),
		Message: m.failure,
		Levels:  len(m.ctrl.State().SortedLevels()),
	}
}

func (m WizardModel) compareHeight() int {
	h := m.height - 12
	if h < 5 {
		h = 5
	}
	return h
}

// ---------------------------------------------------------------------------
// Views
// ---------------------------------------------------------------------------

func (m WizardModel) viewEditor(state chain.State) string {
	var b strings.Builder

	title := styles.Title.Render(fmt.Sprintf("Level %d", m.index))
	if _, saved := state.Level(m.index); !saved {
		if prev, ok := chain.Derived(state, m.index); ok {
			title += "  " + styles.Hint.Render(fmt.Sprintf("defaults from %s.%s", prev.DatasetID, prev.ObjectName))
		}
	}
	b.WriteString("  " + title + "\n\n")

	b.WriteString(m.renderField(FieldDataset, "DATASET", "dataset_id", m.viewDataset()))
	b.WriteString(m.renderField(FieldName, "OBJECT NAME", "object_name", m.name.View()))
	b.WriteString(m.renderField(FieldType, "OBJECT TYPE", "object_type", m.viewType()))
	b.WriteString(m.renderField(FieldQuery, "QUERY", "query", m.query.View()))

	if m.notice != "" {
		style := styles.SuccessText
		if m.noticeErr {
			style = styles.ErrorText
		}
		b.WriteString("\n  " + style.Render(m.notice) + "\n")
	}
	if m.ctrl.Pipeline().Status() == pipeline.StatusError && m.hideFailure {
		b.WriteString("\n  " + styles.ErrorText.Render("Last submission failed: "+m.failure) +
			styles.Dim("  (ctrl+g to submit again)") + "\n")
	}
	if _, err := m.ctrl.Projects(); err != nil {
		b.WriteString("\n  " + styles.ErrorText.Render("Failed to load projects.") +
			styles.Dim("  (ctrl+r to retry)") + "\n")
	}

	return b.String()
}

func (m WizardModel) renderField(f Field, label, key, body string) string {
	style := styles.Field
	if m.focus == f {
		style = styles.FieldFocused
	}
	out := "  " + styles.Label.Render(label) + "\n" + indent(style.Render(body), 2) + "\n"
	if msg, ok := m.fieldErrs[key]; ok {
		out += "  " + styles.ErrorText.Render(msg) + "\n"
	}
	return out
}

func (m WizardModel) viewDataset() string {
	if m.ctrl.DatasetsLoading() {
		return m.spin.View() + " " + styles.Dim("Loading...")
	}
	if _, err := m.ctrl.Datasets(); err != nil {
		return styles.ErrorText.Render(datasetsFailedMessage) + styles.Dim("  (ctrl+r to retry)")
	}
	if m.dataset == "" {
		return styles.Dim("no datasets available")
	}
	return styles.Dim("‹ ") + styles.Value.Render(m.dataset) + styles.Dim(" ›")
}

func (m WizardModel) viewType() string {
	if m.index == 1 {
		return styles.Value.Render(string(chain.ObjectView)) + styles.Dim("  (level 1 is always a view)")
	}
	var parts []string
	for _, t := range []chain.ObjectType{chain.ObjectTable, chain.ObjectView} {
		if t == m.objType {
			parts = append(parts, lipgloss.NewStyle().Foreground(styles.AccentPrimary).Bold(true).Render("● "+string(t)))
		} else {
			parts = append(parts, styles.Dim("○ "+string(t)))
		}
	}
	return strings.Join(parts, "   ")
}

func (m WizardModel) centered(s string) string {
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, s)
}

// ---------------------------------------------------------------------------
// Footer
// ---------------------------------------------------------------------------

func (m WizardModel) renderFooter() string {
	var footer components.Footer
	switch {
	case m.dialogKind != dialogNone:
		footer = components.DialogFooter(m.width)
	case m.showCompare:
		footer = components.ComparisonFooter(m.width)
	case m.overlayActive():
		var hints []components.KeyHint
		switch m.ctrl.Pipeline().Status() {
		case pipeline.StatusLoading:
			hints = append(hints, components.KeyHint{Key: "ctrl+c", Desc: "abort"})
		case pipeline.StatusSuccess:
			hints = append(hints,
				components.KeyHint{Key: "enter", Desc: "show dbt"},
				components.KeyHint{Key: "m", Desc: "make changes"},
				components.KeyHint{Key: "q", Desc: "quit"},
			)
		case pipeline.StatusError:
			hints = append(hints,
				components.KeyHint{Key: "r", Desc: "submit again"},
				components.KeyHint{Key: "esc", Desc: "back"},
			)
		}
		footer = components.Footer{Hints: hints, Width: m.width}
	default:
		footer = components.EditorFooter(m.width, m.ctrl.CatalogReady(), m.ctrl.AddEnabled(m.index), m.index != 1)
	}
	return footer.Render()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n")
}

func clampWidth(val, max int) int {
	if val > max {
		return max
	}
	if val < 10 {
		return 10
	}
	return val
}
