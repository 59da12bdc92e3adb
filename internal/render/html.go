package render

import (
	"bytes"
	"html/template"
)

// URLBuilder resolves Girder item ids to links. *girder.Client implements it.
type URLBuilder interface {
	ThumbnailURL(itemID string) string
	ItemURL(itemID string) string
}

const (
	// ProjectURL is linked from the widget header.
	ProjectURL = "https://github.com/choosehappy/HistoQC"

	// LoadingMessage fills the table container until results arrive.
	LoadingMessage = "Loading histoqc results..."

	// ButtonLabel is the trigger button caption.
	ButtonLabel = "Click here to (re)run HistoQC on all images in this folder."
)

var tableTemplate = template.Must(template.New("table").Parse(
	`{{if .Empty}}<p>{{.Message}}</p>{{else}}<h4>HistoQC Individual Outputs</h4><table>
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr><td>{{if .Href}}<a href="{{.Href}}">{{.Source}}</a>{{else}}{{.Source}}{{end}}</td>{{range .Cells}}<td style="padding:5px;"><a href="{{.Href}}"><img src="{{.Src}}" alt="{{.Type}}"/></a></td>{{end}}</tr>
{{end}}</table>{{end}}`))

var widgetTemplate = template.Must(template.New("widget").Parse(`<div class="histoqc-widget">
<hr><hr>
<h3>HistoQC</h3>
<a href="{{.ProjectURL}}" target="_blank">View on Github</a>
<br>
<br>
<button id="histoqc-button"{{if not .ButtonVisible}} hidden{{end}}>{{.ButtonLabel}}</button>
<br>
<textarea style="overflow:auto;" cols="100" rows="10" id="histoqc-status"{{if not .StatusVisible}} hidden{{end}} readonly>{{.StatusText}}</textarea>
<br>
<div id="histoqc-table-div"{{if not .TableVisible}} hidden{{end}}>
{{.TableHTML}}
</div>
<br>
<hr><hr>
</div>`))

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="{{.MountID}}"></div>
{{.Widget}}
</body>
</html>
`))

type cellView struct {
	Type string
	Href string
	Src  string
}

type rowView struct {
	Source string
	Href   string
	Cells  []cellView
}

// HTML renders t as a thumbnail table linked through urls. Source names link
// to their item page when the row carries the source item id.
func HTML(t Table, urls URLBuilder) template.HTML {
	data := struct {
		Empty   bool
		Message string
		Headers []string
		Rows    []rowView
	}{
		Empty:   t.Empty(),
		Message: NoOutputsMessage,
		Headers: t.Headers,
	}
	for _, row := range t.Rows {
		rv := rowView{Source: row.Source, Cells: make([]cellView, len(row.Cells))}
		if row.SourceID != "" {
			rv.Href = urls.ItemURL(row.SourceID)
		}
		for i, c := range row.Cells {
			rv.Cells[i] = cellView{Type: c.Type, Href: urls.ItemURL(c.ItemID), Src: urls.ThumbnailURL(c.ItemID)}
		}
		data.Rows = append(data.Rows, rv)
	}
	return execute(tableTemplate, data)
}

// WidgetView is the visible state of the widget block.
type WidgetView struct {
	ButtonVisible bool
	StatusVisible bool
	TableVisible  bool
	StatusText    string
	TableHTML     template.HTML
}

// WidgetBlock renders the widget's fixed markup populated with v.
func WidgetBlock(v WidgetView) template.HTML {
	return execute(widgetTemplate, struct {
		WidgetView
		ProjectURL  string
		ButtonLabel string
	}{v, ProjectURL, ButtonLabel})
}

// InitialWidgetView is the state right after mounting: button and status
// visible, table showing the loading notice.
func InitialWidgetView() WidgetView {
	return WidgetView{
		ButtonVisible: true,
		StatusVisible: true,
		TableVisible:  true,
		TableHTML:     template.HTML("<p>" + template.HTMLEscapeString(LoadingMessage) + "</p>"),
	}
}

// Page wraps a widget block in a standalone HTML document. The widget is
// placed right after the mount element.
func Page(title, mountID string, widget template.HTML) string {
	return string(execute(pageTemplate, struct {
		Title   string
		MountID string
		Widget  template.HTML
	}{title, mountID, widget}))
}

func execute(tmpl *template.Template, data any) template.HTML {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		panic(err)
	}
	return template.HTML(buf.String())
}
