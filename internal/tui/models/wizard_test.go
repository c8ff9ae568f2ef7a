package models

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dallionking/levelchain/internal/backend"
	"github.com/Dallionking/levelchain/internal/chain"
	"github.com/Dallionking/levelchain/internal/logging"
	"github.com/Dallionking/levelchain/internal/pipeline"
	"github.com/Dallionking/levelchain/internal/wizard"
)

type fakeBackend struct {
	projects    []string
	datasets    []string
	datasetsErr error
	submitErr   error
}

func (f *fakeBackend) ProjectIDs(context.Context) ([]string, error) { return f.projects, nil }
func (f *fakeBackend) Datasets(context.Context) ([]string, error)   { return f.datasets, f.datasetsErr }

func (f *fakeBackend) Submit(context.Context, backend.SubmitPayload) error {
	return f.submitErr
}

func (f *fakeBackend) Convert(_ context.Context, req backend.ConvertRequest) (map[int]backend.Conversion, error) {
	out := map[int]backend.Conversion{}
	for i, l := range req.Data.Levels {
		out[i] = backend.Conversion{DBTFormat: "select * from " + l.ObjectName, FilePath: "models/" + l.ObjectName + ".sql"}
	}
	return out, nil
}

func newTestModel(t *testing.T, be *fakeBackend) WizardModel {
	t.Helper()
	logger := logging.Discard()
	c := chain.NewContainer(chain.NewState(chain.DefaultProjectID), nil, logger)
	ctrl := wizard.New(c, pipeline.New(logger), logger)
	m := NewWizardModel(WizardOptions{
		Controller: ctrl,
		Catalog:    be,
		Submitter:  be,
		BackendURL: "http://test/api",
		Timeout:    time.Second,
	})
	return drain(t, m, m.Init())
}

// drain runs cmd and feeds its messages back into m. Spinner ticks are
// dropped so the loop terminates.
func drain(t *testing.T, m WizardModel, cmd tea.Cmd) WizardModel {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil, spinner.TickMsg, tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
		return m
	default:
		next, _ := m.Update(msg)
		return next.(WizardModel)
	}
}

func press(t *testing.T, m WizardModel, keys ...tea.KeyMsg) (WizardModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(WizardModel)
	}
	return m, cmd
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// fillLevelOne focuses each text field in turn and types the values.
func fillLevelOne(t *testing.T, m WizardModel) WizardModel {
	t.Helper()
	m, _ = press(t, m,
		key(tea.KeyTab), runes("orders"),
		key(tea.KeyTab), key(tea.KeyTab), runes("SELECT 1"),
	)
	return m
}

func TestWizardModel_InitLoadsCatalogs(t *testing.T) {
	m := newTestModel(t, &fakeBackend{projects: []string{"p1", "p2"}, datasets: []string{"ds1", "ds2"}})

	assert.Equal(t, "p1", m.ctrl.State().ProjectID)
	assert.Equal(t, "ds1", m.dataset)
	assert.False(t, m.ctrl.DatasetsLoading())
	assert.Contains(t, m.View(), "ds1")
}

func TestWizardModel_AddLevelScenario(t *testing.T) {
	be := &fakeBackend{projects: []string{"p1"}, datasets: []string{"ds1"}, submitErr: &backend.APIError{
		Endpoint: backend.PathSubmit, StatusCode: 500, Message: "database unavailable",
	}}
	m := fillLevelOne(t, newTestModel(t, be))

	m, _ = press(t, m, key(tea.KeyCtrlA))
	require.Equal(t, dialogAdd, m.dialogKind)
	assert.Contains(t, m.View(), "Add Level 2")

	m, _ = press(t, m, runes("y"))
	assert.Equal(t, dialogNone, m.dialogKind)
	assert.Equal(t, []int{1, 2}, m.ctrl.State().Visible)
	assert.Equal(t, 2, m.index)
	assert.Equal(t, "SELECT * FROM `ds1.orders`", m.query.Value())
	assert.Equal(t, "orders", m.name.Value())
	assert.Equal(t, chain.ObjectTable, m.objType)

	m, _ = press(t, m, key(tea.KeyCtrlS))
	assert.Equal(t, wizard.CompletedMessage, m.notice)

	m, cmd := press(t, m, key(tea.KeyCtrlG))
	assert.Equal(t, pipeline.StatusLoading, m.ctrl.Pipeline().Status())
	m = drain(t, m, cmd)
	require.Equal(t, pipeline.StatusError, m.ctrl.Pipeline().Status())
	assert.Equal(t, "database unavailable", m.failure)
	assert.Contains(t, m.View(), "Submission Failed")
	assert.Len(t, m.ctrl.State().Levels, 2)

	be.submitErr = nil
	m, cmd = press(t, m, runes("r"))
	m = drain(t, m, cmd)
	require.Equal(t, pipeline.StatusSuccess, m.ctrl.Pipeline().Status())
	assert.Contains(t, m.View(), "Submission Successful!")

	m, _ = press(t, m, key(tea.KeyEnter))
	require.True(t, m.showCompare)
	require.Len(t, m.comparison.Rows(), 2)
	assert.Equal(t, "select * from orders", m.comparison.Rows()[0].DBT)

	m, _ = press(t, m, runes("m"))
	assert.False(t, m.showCompare)
	assert.Equal(t, pipeline.StatusIdle, m.ctrl.Pipeline().Status())
}

func TestWizardModel_CancelAddKeepsState(t *testing.T) {
	m := fillLevelOne(t, newTestModel(t, &fakeBackend{datasets: []string{"ds1"}}))

	m, _ = press(t, m, key(tea.KeyCtrlA), runes("n"))
	assert.Equal(t, dialogNone, m.dialogKind)
	assert.Equal(t, []int{1}, m.ctrl.State().Visible)
	assert.Empty(t, m.ctrl.State().Levels)

	_, pending := m.ctrl.PendingAdd()
	assert.False(t, pending)
}

func TestWizardModel_DeleteLevel(t *testing.T) {
	m := fillLevelOne(t, newTestModel(t, &fakeBackend{datasets: []string{"ds1"}}))
	m, _ = press(t, m, key(tea.KeyCtrlD))
	assert.Equal(t, dialogNone, m.dialogKind, "level 1 is never offered for deletion")
	assert.True(t, m.noticeErr)

	m, _ = press(t, m, key(tea.KeyCtrlA), runes("y"))
	require.Equal(t, 2, m.index)

	m, _ = press(t, m, key(tea.KeyCtrlD))
	require.Equal(t, dialogDelete, m.dialogKind)
	m, _ = press(t, m, runes("y"))

	assert.Equal(t, []int{1}, m.ctrl.State().Visible)
	assert.Equal(t, 1, m.index)
	assert.Equal(t, "orders", m.name.Value())
	assert.Equal(t, "Level 2 removed.", m.notice)
}

func TestWizardModel_ValidationErrorsShowPerField(t *testing.T) {
	m := newTestModel(t, &fakeBackend{datasets: []string{"ds1"}})

	m, _ = press(t, m, key(tea.KeyCtrlS))
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.fieldErrs, "object_name")
	assert.Contains(t, m.fieldErrs, "query")
	assert.NotContains(t, m.fieldErrs, "dataset_id")
	assert.Empty(t, m.ctrl.State().Levels)
}

func TestWizardModel_DatasetFailureDisablesAdd(t *testing.T) {
	m := fillLevelOne(t, newTestModel(t, &fakeBackend{datasetsErr: errors.New("boom")}))

	assert.Contains(t, m.View(), datasetsFailedMessage)
	assert.NotContains(t, m.renderFooter(), "add level")

	m, _ = press(t, m, key(tea.KeyCtrlA))
	assert.Equal(t, dialogNone, m.dialogKind)
	assert.Equal(t, wizard.ErrAddDisabled.Error(), m.notice)

	m, _ = press(t, m, key(tea.KeyCtrlS))
	assert.True(t, m.noticeErr)
	assert.Equal(t, wizard.ErrCatalogUnavailable.Error(), m.notice)
	assert.Empty(t, m.ctrl.State().Levels)

	m, cmd := press(t, m, key(tea.KeyCtrlG))
	assert.Nil(t, cmd)
	assert.Equal(t, pipeline.StatusIdle, m.ctrl.Pipeline().Status())
	assert.Equal(t, wizard.ErrCatalogUnavailable.Error(), m.notice)

	footer := m.renderFooter()
	assert.Contains(t, footer, "retry datasets")
	assert.NotContains(t, footer, "submit")
}

func TestWizardModel_AddOnlyFromLastLevel(t *testing.T) {
	m := fillLevelOne(t, newTestModel(t, &fakeBackend{datasets: []string{"ds1"}}))
	m, _ = press(t, m, key(tea.KeyCtrlA), runes("y"))
	require.Equal(t, []int{1, 2}, m.ctrl.State().Visible)

	m, _ = press(t, m, key(tea.KeyCtrlP))
	require.Equal(t, 1, m.index)
	assert.NotContains(t, m.renderFooter(), "add level")
	m, _ = press(t, m, key(tea.KeyCtrlA))
	assert.Equal(t, dialogNone, m.dialogKind)
	assert.Equal(t, wizard.ErrAddDisabled.Error(), m.notice)

	m, _ = press(t, m, key(tea.KeyCtrlN))
	require.Equal(t, 2, m.index)
	m, _ = press(t, m, key(tea.KeyCtrlA))
	require.Equal(t, dialogAdd, m.dialogKind)
	assert.Contains(t, m.View(), "Add Level 3")
}

func TestWizardModel_TypeToggleAndDatasetCycle(t *testing.T) {
	m := fillLevelOne(t, newTestModel(t, &fakeBackend{datasets: []string{"ds1", "ds2"}}))
	m, _ = press(t, m, key(tea.KeyCtrlA), runes("y"))
	require.Equal(t, 2, m.index)

	m, _ = press(t, m, key(tea.KeyRight))
	assert.Equal(t, "ds2", m.dataset)
	m, _ = press(t, m, key(tea.KeyRight))
	assert.Equal(t, "ds1", m.dataset)
	m, _ = press(t, m, key(tea.KeyLeft))
	assert.Equal(t, "ds2", m.dataset)

	m, _ = press(t, m, key(tea.KeyTab), key(tea.KeyTab))
	require.Equal(t, FieldType, m.focus)
	m, _ = press(t, m, runes(" "))
	assert.Equal(t, chain.ObjectView, m.objType)

	m, _ = press(t, m, key(tea.KeyCtrlP))
	assert.Equal(t, 1, m.index)
	m, _ = press(t, m, key(tea.KeyTab), key(tea.KeyTab), runes(" "))
	assert.Equal(t, chain.ObjectView, m.objType, "level 1 stays a view")
}

func TestWizardModel_SubmitRequiresCompleteChain(t *testing.T) {
	m := newTestModel(t, &fakeBackend{datasets: []string{"ds1"}})
	m, cmd := press(t, m, key(tea.KeyCtrlG))
	assert.Nil(t, cmd)
	assert.Equal(t, pipeline.StatusIdle, m.ctrl.Pipeline().Status())
	assert.Equal(t, wizard.ErrNotReady.Error(), m.notice)
}

func TestWizardModel_QuitConfirmation(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = press(t, m, key(tea.KeyEsc))
	require.True(t, m.confirmQuit)
	m, cmd := press(t, m, runes("n"))
	assert.False(t, m.confirmQuit)
	assert.Nil(t, cmd)

	m, _ = press(t, m, key(tea.KeyEsc))
	_, cmd = press(t, m, runes("y"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWizardModel_Teatest(t *testing.T) {
	be := &fakeBackend{projects: []string{"p1"}, datasets: []string{"ds1"}}
	m := newTestModel(t, be)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("ds1"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(key(tea.KeyTab))
	tm.Type("orders")
	tm.Send(key(tea.KeyTab))
	tm.Send(key(tea.KeyTab))
	tm.Type("SELECT 1")
	tm.Send(key(tea.KeyCtrlA))
	tm.Type("y")

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Level 2"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(key(tea.KeyCtrlC))

	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(WizardModel)
	assert.Equal(t, []int{1, 2}, final.ctrl.State().Visible)
	assert.Equal(t, "SELECT * FROM `ds1.orders`", final.query.Value())
}
