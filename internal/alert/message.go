package alert

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang-cafe/job-alerts/internal/email"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

const (
	descriptionLimit  = 500
	requirementsLimit = 300
	emailCategory     = "job-alert"
)

var alertEmailTmpl = template.Must(template.New("alert").Parse(`<h2>{{.Title}}</h2>
<p><b>Company:</b> {{.Company}}<br />
<b>Location:</b> {{.Location}}<br />
{{- if .JobType}}
<b>Type:</b> {{.JobType}}<br />
{{- end}}
{{- if .Level}}
<b>Level:</b> {{.Level}}<br />
{{- end}}
{{- if .Salary}}
<b>Salary:</b> {{.Salary}}
{{- end}}</p>
{{if .Description}}<div>{{.Description}}</div>
{{end}}
{{- if .Requirements}}<p><b>Requirements:</b> {{.Requirements}}</p>
{{end -}}
<p><a href="{{.JobURL}}">{{.JobURL}}</a></p>
<hr />
<h6>This email was sent to <strong>{{.Email}}</strong> because of a job alert you created | <a href="{{.UnsubscribeURL}}">Unsubscribe</a></h6>`))

type emailData struct {
	Title          string
	Company        string
	Location       string
	JobType        string
	Level          string
	Salary         string
	Description    template.HTML
	Requirements   string
	JobURL         string
	UnsubscribeURL string
	Email          string
}

// Renderer turns an (alert, job) pair into the email sent to the subscriber.
type Renderer struct {
	appURL string
	policy *bluemonday.Policy
}

func NewRenderer(appURL string) Renderer {
	return Renderer{
		appURL: strings.TrimRight(appURL, "/"),
		policy: bluemonday.UGCPolicy(),
	}
}

func (r Renderer) JobURL(j *job.Job) string {
	return fmt.Sprintf("%s/jobs/%s", r.appURL, j.ID)
}

func (r Renderer) UnsubscribeURL(a *Alert) string {
	return fmt.Sprintf("%s/job-alerts/%s/unsubscribe", r.appURL, a.ID)
}

func (r Renderer) Render(a *Alert, j *job.Job) (email.Message, error) {
	data := emailData{
		Title:          j.Title,
		Company:        j.Company,
		Location:       j.Location,
		JobType:        j.JobType,
		Level:          j.Level,
		Salary:         SalaryRange(j),
		Requirements:   Truncate(j.Requirements, requirementsLimit),
		JobURL:         r.JobURL(j),
		UnsubscribeURL: r.UnsubscribeURL(a),
		Email:          a.Email,
	}
	if j.Description != "" {
		md := blackfriday.Run([]byte(Truncate(j.Description, descriptionLimit)))
		data.Description = template.HTML(r.policy.SanitizeBytes(md))
	}
	var html bytes.Buffer
	if err := alertEmailTmpl.Execute(&html, data); err != nil {
		return email.Message{}, err
	}
	return email.Message{
		To:       email.Address{Email: a.Email},
		Subject:  fmt.Sprintf("New job: %s at %s", j.Title, j.Company),
		HTML:     html.String(),
		Text:     r.text(data, j),
		Category: emailCategory,
	}, nil
}

func (r Renderer) text(d emailData, j *job.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nCompany: %s\nLocation: %s\n", d.Title, d.Company, d.Location)
	if d.JobType != "" {
		fmt.Fprintf(&b, "Type: %s\n", d.JobType)
	}
	if d.Level != "" {
		fmt.Fprintf(&b, "Level: %s\n", d.Level)
	}
	if d.Salary != "" {
		fmt.Fprintf(&b, "Salary: %s\n", d.Salary)
	}
	if j.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", Truncate(j.Description, descriptionLimit))
	}
	if d.Requirements != "" {
		fmt.Fprintf(&b, "\nRequirements: %s\n", d.Requirements)
	}
	fmt.Fprintf(&b, "\n%s\n\nUnsubscribe: %s\n", d.JobURL, d.UnsubscribeURL)
	return b.String()
}

// SalaryRange is only shown when both bounds are known.
func SalaryRange(j *job.Job) string {
	if j.SalaryMin == nil || j.SalaryMax == nil {
		return ""
	}
	currency := j.Currency
	if currency == "" {
		currency = job.DefaultCurrency
	}
	return fmt.Sprintf("%s %s - %s", currency, humanize.Commaf(*j.SalaryMin), humanize.Commaf(*j.SalaryMax))
}

// Truncate cuts s to at most limit runes, marking the cut with "...".
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
