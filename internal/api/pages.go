package api

import (
	"html/template"
	"net/url"

	"reporter_service/internal/filter"
)

type indexPage struct {
	Palettes   []string
	Categories []string
	Wards      []string
	Zips       []string
	Form       url.Values
	Palette    string
	Geography  string
	Error      string
	Map        template.HTML
	Links      filter.Links
}

type printPage struct {
	Title     string
	Period    string
	Generated string
	Geography string
	Map       template.HTML
	Links     filter.Links
}

var funcs = template.FuncMap{
	"has": func(values url.Values, key, v string) bool {
		for _, x := range values[key] {
			if x == v {
				return true
			}
		}
		return false
	},
}

var indexTemplate = template.Must(template.New("index").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Calls and Issues</title></head>
<body>
<form method="get" action="/">
  <label>Title <input type="text" name="report_title" value="{{.Form.Get "report_title"}}"></label>
  <label>Colors
    <select name="color_choice">
      {{- range .Palettes}}
      <option value="{{.}}"{{if eq . $.Palette}} selected{{end}}>{{.}}</option>
      {{- end}}
    </select>
  </label>
  <label>From <input type="date" name="start_date" value="{{.Form.Get "start_date"}}"></label>
  <label>To <input type="date" name="end_date" value="{{.Form.Get "end_date"}}"></label>
  <label>Categories
    <select name="categories" multiple>
      {{- range .Categories}}
      <option value="{{.}}"{{if has $.Form "categories" .}} selected{{end}}>{{.}}</option>
      {{- end}}
    </select>
  </label>
  <fieldset>
    <label><input type="radio" name="geog" value="wards"{{if ne .Geography "zips"}} checked{{end}}> Wards</label>
    <label><input type="radio" name="geog" value="zips"{{if eq .Geography "zips"}} checked{{end}}> Zip codes</label>
  </fieldset>
  <label>Wards
    <select name="wards" multiple>
      {{- range .Wards}}
      <option value="{{.}}"{{if has $.Form "wards" .}} selected{{end}}>{{.}}</option>
      {{- end}}
    </select>
  </label>
  <label>Zip codes
    <select name="zip_codes" multiple>
      {{- range .Zips}}
      <option value="{{.}}"{{if has $.Form "zip_codes" .}} selected{{end}}>{{.}}</option>
      {{- end}}
    </select>
  </label>
  <button type="submit">Update</button>
</form>
{{- if .Error}}
<p class="error">{{.Error}}</p>
{{- else}}
<nav>
  <a href="{{.Links.CSV}}">Download CSV</a>
  <a href="{{.Links.DetailCSV}}">Detail CSV</a>
  <a href="{{.Links.XLSX}}">Detail XLSX</a>
  <a href="{{.Links.Print}}">Print</a>
</nav>
<div id="map">{{.Map}}</div>
{{- end}}
</body>
</html>
`))

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{if .Title}}{{.Title}}{{else}}Calls/Issues by {{.Geography}}{{end}}</title></head>
<body>
<header>
  {{- if .Title}}<h1>{{.Title}}</h1>{{end}}
  <h2>Calls/Issues by {{.Geography}}, {{.Period}}</h2>
  <p>Generated {{.Generated}}</p>
</header>
<div id="map">{{.Map}}</div>
<footer><a href="{{.Links.CSV}}">Download CSV</a></footer>
</body>
</html>
`))
