package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/histoqcview/internal/girder"
)

type fakeURLs struct{}

func (fakeURLs) ThumbnailURL(id string) string { return "/api/v1/item/" + id + "/tiles/thumbnail" }
func (fakeURLs) ItemURL(id string) string      { return "/#item/" + id }

func record(name string, artifacts ...girder.Artifact) girder.OutputRecord {
	return girder.OutputRecord{SourceImage: girder.ItemRef{ID: name + "-id", Name: name}, Outputs: artifacts}
}

func TestBuildTable_NoArtifacts(t *testing.T) {
	for _, records := range [][]girder.OutputRecord{nil, {record("a"), record("b")}} {
		table := BuildTable(records)
		assert.True(t, table.Empty())
		assert.Equal(t, "<p>"+NoOutputsMessage+"</p>", string(HTML(table, fakeURLs{})))
	}
	assert.Equal(t, "No HistoQC outputs detected. Please rerun it.", NoOutputsMessage)
}

func TestBuildTable_HeadersSortedDescending(t *testing.T) {
	table := BuildTable([]girder.OutputRecord{
		record("slide1", girder.Artifact{ID: "i1", Type: "blurry"}, girder.Artifact{ID: "i2", Type: "dark"}),
	})
	assert.Equal(t, []string{"Source", "dark", "blurry"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []Cell{{Type: "dark", ItemID: "i2"}, {Type: "blurry", ItemID: "i1"}}, table.Rows[0].Cells)
	assert.True(t, table.Aligned())
}

func TestBuildTable_SkipsEmptyRecords(t *testing.T) {
	records := []girder.OutputRecord{
		record("empty1"),
		record("s1", girder.Artifact{ID: "a", Type: "thumb"}, girder.Artifact{ID: "b", Type: "mask_use"}),
		record("empty2"),
		record("s2", girder.Artifact{ID: "c", Type: "mask_use"}, girder.Artifact{ID: "d", Type: "thumb"}),
	}
	table := BuildTable(records)

	assert.Equal(t, []string{"Source", "thumb", "mask_use"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "s1", table.Rows[0].Source)
	assert.Equal(t, "s2", table.Rows[1].Source)
	assert.Equal(t, "d", table.Rows[1].Cells[0].ItemID)

	html := string(HTML(table, fakeURLs{}))
	assert.Equal(t, 3, strings.Count(html, "<tr>"), "header plus one row per non-empty record")
	assert.NotContains(t, html, "empty1")
}

func TestBuildTable_RowsSortedIndependently(t *testing.T) {
	table := BuildTable([]girder.OutputRecord{
		record("s1", girder.Artifact{ID: "a", Type: "thumb"}, girder.Artifact{ID: "b", Type: "dark"}),
		record("s2", girder.Artifact{ID: "c", Type: "spur"}, girder.Artifact{ID: "d", Type: "blurry"}),
	})
	assert.Equal(t, []string{"Source", "thumb", "dark"}, table.Headers)
	assert.Equal(t, "spur", table.Rows[1].Cells[0].Type)
	assert.False(t, table.Aligned())
}

func TestBuildTable_StableForEqualTags(t *testing.T) {
	in := []girder.Artifact{
		{ID: "x1", Type: "hist"},
		{ID: "y", Type: "thumb"},
		{ID: "x2", Type: "hist"},
	}
	table := BuildTable([]girder.OutputRecord{record("s", in...)})
	ids := []string{}
	for _, c := range table.Rows[0].Cells {
		ids = append(ids, c.ItemID)
	}
	assert.Equal(t, []string{"y", "x1", "x2"}, ids)
	assert.Equal(t, "x1", in[0].ID, "input must not be reordered")
	assert.Equal(t, "y", in[1].ID, "input must not be reordered")
}

func TestHTML_LinksThumbnails(t *testing.T) {
	table := BuildTable([]girder.OutputRecord{
		record("slide <1>.svs", girder.Artifact{ID: "i1", Type: "thumb"}),
		record("slide2.svs", girder.Artifact{ID: "i2", Type: "thumb"}),
	})
	html := string(HTML(table, fakeURLs{}))

	assert.Contains(t, html, "<h4>HistoQC Individual Outputs</h4>")
	assert.Contains(t, html, "<th>Source</th><th>thumb</th>")
	assert.Contains(t, html, `<a href="/#item/i1"><img src="/api/v1/item/i1/tiles/thumbnail" alt="thumb"/></a>`)
	assert.Contains(t, html, ">slide &lt;1&gt;.svs</a></td>")
	assert.Contains(t, html, `<td><a href="/#item/slide2.svs-id">slide2.svs</a></td>`)
}

func TestHTML_SourceWithoutIDIsPlainText(t *testing.T) {
	table := Table{
		Headers: []string{SourceColumn, "thumb"},
		Rows:    []Row{{Source: "orphan.svs", Cells: []Cell{{Type: "thumb", ItemID: "i9"}}}},
	}
	html := string(HTML(table, fakeURLs{}))

	assert.Contains(t, html, "<td>orphan.svs</td>")
	assert.NotContains(t, html, `href="/#item/"`)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "", StatusText(nil))
	assert.Equal(t, "\n\nstep1", StatusText([]string{"step1"}))

	lines := []string{"step1", "done"}
	first := StatusText(lines)
	assert.Equal(t, "\n\nstep1\n\ndone", first)
	assert.Equal(t, first, StatusText(lines))
}

func TestStartedText(t *testing.T) {
	assert.Equal(t, "HistoQC job abc has started. Please wait...", StartedText("abc"))
}

func TestWidgetBlockVisibility(t *testing.T) {
	block := string(WidgetBlock(WidgetView{
		ButtonVisible: false,
		StatusVisible: true,
		TableVisible:  false,
		StatusText:    "\n\nstep1 <ok>",
	}))
	assert.Contains(t, block, `<button id="histoqc-button" hidden>`)
	assert.Contains(t, block, `<div id="histoqc-table-div" hidden>`)
	assert.Contains(t, block, "step1 &lt;ok&gt;</textarea>")
	assert.Contains(t, block, ProjectURL)

	initial := string(WidgetBlock(InitialWidgetView()))
	assert.Contains(t, initial, `<button id="histoqc-button">`)
	assert.Contains(t, initial, "<p>"+LoadingMessage+"</p>")

	page := Page("HistoQC", "mount", WidgetBlock(InitialWidgetView()))
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Less(t, strings.Index(page, `id="mount"`), strings.Index(page, "histoqc-widget"))
}
