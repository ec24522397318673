package email

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const (
	VerificationSubject = "Verify your baby registry claim"
	ConfirmationSubject = "Your baby registry claim has been confirmed"
)

var (
	verificationText = texttemplate.Must(texttemplate.New("verification").Parse(
		"Hello,\n\nPlease verify your claim for {{.ItemName}} by clicking the link below:\n\n{{.Link}}\n\nThis link will expire in 24 hours.\n\nThank you!"))

	verificationHTML = htmltemplate.Must(htmltemplate.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verify Your Baby Registry Claim</h2>
  <p>Hello there,</p>
  <p>Please verify your claim for <strong>{{.ItemName}}</strong> by clicking the button below:</p>
  <div style="text-align: center; margin: 20px 0;">
    <a href="{{.Link}}" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Verify Claim</a>
  </div>
  <p>This link will expire in 24 hours.</p>
  <p>Thank you!<br>Daphne &amp; Hsin</p>
</div>`))

	confirmationText = texttemplate.Must(texttemplate.New("confirmation").Parse(
		"Hello,\n\nYour claim for {{.ItemName}} has been confirmed. Thank you for participating in the baby registry!\n\nBest regards,\nBaby Registry Team"))

	confirmationHTML = htmltemplate.Must(htmltemplate.New("confirmation").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Claim Confirmed</h2>
  <p>Hello there,</p>
  <p>Your claim for <strong>{{.ItemName}}</strong> has been confirmed.</p>
  <p>Thank you for participating in the baby registry!</p>
  <p>Best regards,<br>Daphne &amp; Hsin</p>
</div>`))
)

type templateData struct {
	ItemName string
	Link     string
}

// VerificationMessage builds the email asking a claimer to confirm their address
func VerificationMessage(to, itemName, link string) (Message, error) {
	return render(to, VerificationSubject, templateData{ItemName: itemName, Link: link}, verificationText, verificationHTML)
}

// ConfirmationMessage builds the email sent once a claim is verified
func ConfirmationMessage(to, itemName string) (Message, error) {
	return render(to, ConfirmationSubject, templateData{ItemName: itemName}, confirmationText, confirmationHTML)
}

func render(to, subject string, data templateData, text *texttemplate.Template, html *htmltemplate.Template) (Message, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := text.Execute(&textBuf, data); err != nil {
		return Message{}, err
	}
	if err := html.Execute(&htmlBuf, data); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: subject,
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}
