package display

import (
	"encoding/base64"
	"html/template"
	"strings"

	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// Renderer produces the markup pushed to the checkpoint displays.  The
// four variants cover every pipeline outcome; all template inputs have
// defaults, so rendering cannot fail at runtime.
type Renderer struct {
	welcome      *template.Template
	unauthorized *template.Template
	unknown      string
	departure    string
}

type panelData struct {
	Name    string
	Country string
	Photo   string // base64 jpeg, empty when the record has none
	Flag    string // base64 png
}

const welcomeTmpl = `<div class="panel welcome">
{{if .Photo}}<img class="photo" src="data:image/jpeg;base64,{{.Photo}}" alt=""/>{{end}}
<h1>Welcome, {{.Name}}!</h1>
{{if .Country}}<p class="country">{{.Country}}{{if .Flag}} <img class="flag" src="data:image/png;base64,{{.Flag}}" alt=""/>{{end}}</p>{{end}}
</div>`

const unauthorizedTmpl = `<div class="panel denied">
<h1>{{.Name}}</h1>
<p>Not registered for the current session.</p>
<p>Please see the registration desk.</p>
</div>`

const unknownMarkup = `<div class="panel unknown">
<h1>Badge not recognized</h1>
<p>Please see the registration desk.</p>
</div>`

const departureMarkup = `<div class="panel departure">
<h1>Thank you for attending!</h1>
<p>Safe travels home.</p>
</div>`

func NewRenderer() *Renderer {
	return &Renderer{
		welcome:      template.Must(template.New("welcome").Parse(welcomeTmpl)),
		unauthorized: template.Must(template.New("unauthorized").Parse(unauthorizedTmpl)),
		unknown:      unknownMarkup,
		departure:    departureMarkup,
	}
}

func (r *Renderer) Welcome(rec *types.IdentityRecord) string {
	return execute(r.welcome, dataFor(rec), r.unknown)
}

func (r *Renderer) Unauthorized(rec *types.IdentityRecord) string {
	return execute(r.unauthorized, dataFor(rec), r.unknown)
}

func (r *Renderer) Unknown() string { return r.unknown }

func (r *Renderer) Departure() string { return r.departure }

func dataFor(rec *types.IdentityRecord) panelData {
	if rec == nil {
		return panelData{Name: "Guest"}
	}

	d := panelData{
		Name:    strings.TrimSpace(rec.FullName),
		Country: strings.TrimSpace(rec.Country),
	}
	if d.Name == "" {
		d.Name = "Guest"
	}
	if len(rec.Photo) > 0 {
		d.Photo = base64.StdEncoding.EncodeToString(rec.Photo)
	}
	if len(rec.CountryImage) > 0 {
		d.Flag = base64.StdEncoding.EncodeToString(rec.CountryImage)
	}
	return d
}

func execute(t *template.Template, d panelData, fallback string) string {
	var b strings.Builder
	if err := t.Execute(&b, d); err != nil {
		return fallback
	}
	return b.String()
}
