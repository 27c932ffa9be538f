package notifications

import (
	"bytes"
	"fmt"
	"html/template"

	"consultly/pkg/model"
)

const layout = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <style>
    body { font-family: Arial, sans-serif; background-color: #f4f6f8; padding: 20px; }
    .container { max-width: 600px; margin: auto; background: #ffffff; padding: 24px; border-radius: 8px; box-shadow: 0 2px 6px rgba(0,0,0,0.1); }
    .header { font-size: 20px; font-weight: bold; margin-bottom: 16px; color: #333; }
    .content { font-size: 14px; color: #555; line-height: 1.6; }
    .footer { margin-top: 24px; font-size: 12px; color: #999; text-align: center; }
    .status { font-weight: bold; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">{{.Title}}</div>
    <div class="content">{{template "content" .}}</div>
    <div class="footer">Appointment System &bull; Please do not reply to this email</div>
  </div>
</body>
</html>
`

const requestedContent = `{{define "content"}}
      <p>You have received a new appointment request.</p>
      <p>
        <strong>Client:</strong> {{.OtherPartyName}}<br/>
        <strong>Date:</strong> {{.Date}}<br/>
        <strong>Time:</strong> {{.Time}}
      </p>
      <p>Please log in to your dashboard to accept or reject the appointment.</p>
{{end}}`

const statusContent = `{{define "content"}}
      <p>
        Your appointment with
        <strong>{{.OtherPartyName}}</strong> has been
        <span class="status">{{.Status}}</span>.
      </p>
      <p>
        <strong>Date:</strong> {{.Date}}<br/>
        <strong>Time:</strong> {{.Time}}
      </p>
{{end}}`

var (
	requestedTemplate = template.Must(template.Must(template.New("requested").Parse(layout)).Parse(requestedContent))
	statusTemplate    = template.Must(template.Must(template.New("status").Parse(layout)).Parse(statusContent))
)

// Email is a rendered message ready for a Mailer.
type Email struct {
	Subject string
	HTML    string
}

type templateData struct {
	Title          string
	Status         string
	OtherPartyName string
	Date           string
	Time           string
}

// statusWord is the verb shown to recipients for each event type.
func statusWord(t model.EventType) (string, bool) {
	switch t {
	case model.EventAppointmentAccepted:
		return "ACCEPTED", true
	case model.EventAppointmentRejected:
		return "REJECTED", true
	case model.EventAppointmentCancelled:
		return "CANCELLED", true
	case model.EventAppointmentCompleted:
		return "COMPLETED", true
	default:
		return "", false
	}
}

// RenderEmail builds the message for eventType. Date and time are already
// formatted in the business timezone.
func RenderEmail(eventType model.EventType, otherPartyName, date, clock string) (Email, error) {
	data := templateData{
		OtherPartyName: otherPartyName,
		Date:           date,
		Time:           clock,
	}

	tmpl := statusTemplate
	if eventType == model.EventAppointmentRequested {
		data.Title = "New Appointment Request"
		tmpl = requestedTemplate
	} else {
		word, ok := statusWord(eventType)
		if !ok {
			return Email{}, fmt.Errorf("%w: no template for event type %q", ErrUndeliverable, eventType)
		}
		data.Status = word
		data.Title = "Appointment " + word
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("failed to render %s email: %w", eventType, err)
	}

	return Email{Subject: data.Title, HTML: buf.String()}, nil
}
