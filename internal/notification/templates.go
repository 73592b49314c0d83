package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/spec-kit/account-service/internal/domain"
)

var codeTemplate = template.Must(template.New("code").Parse(`
<h1>{{.Heading}}</h1>
<p>Dear User,</p>
<p>Your OTP is <strong>{{.Code}}</strong>. {{.Instruction}} It expires in {{.Minutes}} minutes.</p>
<p>If you didn't request this OTP, please ignore this email.</p>
<p>Thank you!</p>`))

type codeView struct {
	Heading     string
	Code        string
	Instruction string
	Minutes     int
}

// CodeEmail builds the message carrying a one-time code.
func CodeEmail(from, to, code string, purpose domain.CodePurpose, ttl time.Duration) (Message, error) {
	view := codeView{Code: code, Minutes: int(ttl / time.Minute)}
	subject := ""
	switch purpose {
	case domain.CodePurposeEmailVerification:
		subject = "Email verification"
		view.Heading = "Your OTP for Verification"
		view.Instruction = "Please use this code to verify your email address."
	case domain.CodePurposePasswordReset:
		subject = "Password reset"
		view.Heading = "Your OTP for Password Reset"
		view.Instruction = "Please use this code to reset your password."
	default:
		return Message{}, fmt.Errorf("notification: unknown code purpose %q", purpose)
	}

	var buf bytes.Buffer
	if err := codeTemplate.Execute(&buf, view); err != nil {
		return Message{}, fmt.Errorf("render code email: %w", err)
	}
	return Message{From: from, To: to, Subject: subject, HTML: buf.String()}, nil
}
