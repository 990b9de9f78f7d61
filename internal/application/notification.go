package application

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/golang-cafe/job-alerts/internal/email"
	"github.com/golang-cafe/job-alerts/internal/job"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<p>Hi,</p>
<p>We received your application for <b>{{.Title}}</b> at <b>{{.Company}}</b> ({{.Location}}).</p>
<p>Current status: <b>{{.Status}}</b></p>
<p>You can review the job at <a href="{{.JobURL}}">{{.JobURL}}</a></p>
<p>Good luck!</p>`))

// ConfirmationMessage is the email an applicant receives after applying and
// again whenever an admin resends it.
func ConfirmationMessage(appURL string, a *Application, j *job.Job) (email.Message, error) {
	jobURL := fmt.Sprintf("%s/jobs/%s", strings.TrimRight(appURL, "/"), j.ID)
	var html bytes.Buffer
	err := confirmationTmpl.Execute(&html, map[string]string{
		"Title":    j.Title,
		"Company":  j.Company,
		"Location": j.Location,
		"Status":   a.Status,
		"JobURL":   jobURL,
	})
	if err != nil {
		return email.Message{}, err
	}
	return email.Message{
		To:       email.Address{Email: a.Email},
		Subject:  fmt.Sprintf("Application received: %s at %s", j.Title, j.Company),
		HTML:     html.String(),
		Text:     fmt.Sprintf("We received your application for %s at %s (%s).\nStatus: %s\n%s\n", j.Title, j.Company, j.Location, a.Status, jobURL),
		Category: "job-application",
	}, nil
}
