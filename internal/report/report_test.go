package report

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/histoqcview/internal/render"
	"github.com/five82/histoqcview/internal/state"
)

func finishedSnapshot() state.Snapshot {
	var s state.Store
	s.Inject(template.HTML("<div></div>"))
	s.Status().SetText(render.StatusText([]string{"step1", "done"}))
	s.Table().SetContent(render.Table{}, template.HTML("<p>"+render.NoOutputsMessage+"</p>"))
	return s.Snapshot()
}

func TestPage(t *testing.T) {
	page := Page(finishedSnapshot(), "")

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>HistoQC</title>")
	assert.Contains(t, page, `id="`+DefaultMountID+`"`)
	assert.Contains(t, page, "step1\n\ndone</textarea>")
	assert.Contains(t, page, render.NoOutputsMessage)
	assert.NotContains(t, page, render.LoadingMessage)
}

func TestPage_BeforeTableLoads(t *testing.T) {
	var s state.Store
	assert.Contains(t, Page(s.Snapshot(), "x"), render.LoadingMessage)
}

func TestWrite_Stdout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write("-", finishedSnapshot(), "Folder A", &out))
	assert.Contains(t, out.String(), "<title>Folder A</title>")
}

func TestWrite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "histoqc.html")
	require.NoError(t, Write(path, finishedSnapshot(), "", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "histoqc-widget")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

type recordingStatus struct {
	texts []string
}

func (r *recordingStatus) Show()               {}
func (r *recordingStatus) Hide()               {}
func (r *recordingStatus) ScrollToBottom()     {}
func (r *recordingStatus) SetText(text string) { r.texts = append(r.texts, text) }

func TestEcho_PrintsOnlyNewLines(t *testing.T) {
	inner := &recordingStatus{}
	var out bytes.Buffer
	echo := &Echo{StatusArea: inner, Out: &out}

	echo.SetText(render.StartedText("abc"))
	echo.SetText(render.StatusText([]string{"step1"}))
	echo.SetText(render.StatusText([]string{"step1", "done"}))

	assert.Len(t, inner.texts, 3)
	assert.Equal(t, "HistoQC job abc has started. Please wait...\nstep1\ndone\n", out.String())
}
