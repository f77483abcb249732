package email

import (
	"bytes"
	"html/template"
)

var verificationCodeTmpl = template.Must(template.New("verification_code").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Your Verification Code</h2>
  <p style="font-size: 16px; color: #666;">Your verification code for ForumFiles is:</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; text-align: center; margin: 20px 0;">
    <span style="font-size: 32px; font-weight: bold; color: #007bff; letter-spacing: 5px;">{{.Code}}</span>
  </div>
  <p style="font-size: 14px; color: #666;">This code will expire in 10 minutes.</p>
  <p style="font-size: 14px; color: #999;">If you didn't request this code, please ignore this email.</p>
</div>`))

var fileShareTmpl = template.Must(template.New("file_share").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">File Shared with You</h2>
  <p style="font-size: 16px; color: #666;">Someone has shared a file with you on ForumFiles.</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p style="margin: 0; font-weight: bold; color: #333;">File:</p>
    <p style="margin: 5px 0 0 0; color: #666;">{{.Filename}}</p>
  </div>
  {{if .Message}}
  <div style="background-color: #fff3cd; padding: 15px; border-radius: 5px; margin: 20px 0; border-left: 4px solid #ffc107;">
    <p style="margin: 0; font-weight: bold; color: #856404;">Message:</p>
    <p style="margin: 5px 0 0 0; color: #856404;">{{.Message}}</p>
  </div>
  {{end}}
  <p style="text-align: center; margin: 30px 0;">
    <a href="{{.DownloadURL}}" style="background-color: #007bff; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block; font-weight: bold;">Download File</a>
  </p>
</div>`))

// VerificationCodeMessage renders the one-time login code email.
func VerificationCodeMessage(to, code string) (*Message, error) {
	var buf bytes.Buffer
	if err := verificationCodeTmpl.Execute(&buf, struct{ Code string }{code}); err != nil {
		return nil, err
	}
	return &Message{To: to, Subject: "ForumFiles - Verification Code", HTML: buf.String()}, nil
}

// FileShareMessage renders the shared-file notification email.
func FileShareMessage(to, filename, downloadURL, message string) (*Message, error) {
	var buf bytes.Buffer
	data := struct {
		Filename, DownloadURL, Message string
	}{filename, downloadURL, message}
	if err := fileShareTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return &Message{To: to, Subject: "File Shared with You: " + filename, HTML: buf.String()}, nil
}
