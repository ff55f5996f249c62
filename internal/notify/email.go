package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"example/waxroom/internal/logger"

	"github.com/resend/resend-go/v2"
)

// emailSender is the part of the Resend client the notifier uses.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailNotifier sends the confirmation as an HTML email through Resend.
type EmailNotifier struct {
	sender emailSender
	from   string
}

// NewEmailNotifier builds a Resend-backed notifier.
func NewEmailNotifier(apiKey, from string) *EmailNotifier {
	return &EmailNotifier{sender: resend.NewClient(apiKey).Emails, from: from}
}

func (e *EmailNotifier) OrderConfirmed(ctx context.Context, c Confirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	html, err := RenderConfirmation(c)
	if err != nil {
		return err
	}
	resp, err := e.sender.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{c.BuyerEmail},
		Subject: fmt.Sprintf("Order Confirmed — %s | WAXROOM", c.OrderNumber()),
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	logger.Log.Infow("Confirmation email sent", "to", c.BuyerEmail, "order_id", c.OrderID, "email_id", resp.Id)
	return nil
}

// RenderConfirmation renders the HTML body of the confirmation email.
func RenderConfirmation(c Confirmation) (string, error) {
	first := c.BuyerName
	if f := strings.Fields(c.BuyerName); len(f) > 0 {
		first = f[0]
	}
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct {
		Confirmation
		FirstName string
		Date      string
	}{c, first, c.CreatedAt.Format("January 2, 2006")})
	if err != nil {
		return "", fmt.Errorf("render confirmation email: %w", err)
	}
	return buf.String(), nil
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width"></head>
<body style="margin:0;padding:0;background:#0a0a0a;font-family:'Helvetica Neue',Arial,sans-serif;">
<table width="100%" cellpadding="0" cellspacing="0" style="background:#0a0a0a;padding:40px 20px;">
<tr><td align="center">
<table width="560" cellpadding="0" cellspacing="0" style="max-width:560px;width:100%;">
  <tr><td style="padding-bottom:32px;font-size:22px;font-weight:800;color:#f0ede8;letter-spacing:0.1em;" align="center">WAXROOM</td></tr>
  <tr><td style="background:#111;border:1px solid #2a2a2a;border-radius:8px;padding:40px;border-top:3px solid #e8d5a3;">
    <div style="font-size:12px;font-family:monospace;color:#e8d5a3;letter-spacing:0.15em;margin-bottom:8px;">ORDER CONFIRMED</div>
    <h1 style="margin:0 0 8px;color:#f0ede8;font-size:28px;font-weight:800;">Thanks, {{.FirstName}}!</h1>
    <p style="color:#888;font-size:14px;margin:0 0 32px;line-height:1.6;">Your order has been placed and payment confirmed. Your music is ready to enjoy.</p>
    <table width="100%" cellpadding="0" cellspacing="0" style="background:#1a1a1a;border-radius:6px;margin-bottom:28px;">
      <tr>
        <td style="padding:20px;border-right:1px solid #2a2a2a;" width="50%">
          <div style="font-size:11px;font-family:monospace;color:#555;margin-bottom:6px;">ORDER NUMBER</div>
          <div style="font-size:16px;font-weight:700;color:#e8d5a3;font-family:monospace;">{{.OrderNumber}}</div>
        </td>
        <td style="padding:20px;" width="50%">
          <div style="font-size:11px;font-family:monospace;color:#555;margin-bottom:6px;">ORDER DATE</div>
          <div style="font-size:14px;color:#f0ede8;">{{.Date}}</div>
        </td>
      </tr>
    </table>
    <div style="font-size:11px;font-family:monospace;color:#555;margin-bottom:16px;">YOUR ALBUMS</div>
    <table width="100%" cellpadding="0" cellspacing="0">
    {{- range .Items}}
      <tr><td style="padding:12px 0;border-bottom:1px solid #2a2a2a;">
        <table width="100%" cellpadding="0" cellspacing="0"><tr>
          <td width="60"><img src="{{.CoverURL}}" width="56" height="56" style="border-radius:4px;display:block;" /></td>
          <td style="padding-left:14px;">
            <div style="font-weight:600;color:#f0ede8;font-size:14px;">{{.Title}}</div>
            <div style="color:#888;font-size:12px;margin-top:3px;">{{.Artist}}</div>
            <div style="color:#888;font-size:12px;">Qty: {{.Quantity}}</div>
          </td>
          <td align="right" style="font-family:monospace;color:#e8d5a3;font-size:14px;">${{.Subtotal.StringFixed 2}}</td>
        </tr></table>
      </td></tr>
    {{- end}}
    </table>
    <table width="100%" cellpadding="0" cellspacing="0" style="margin-top:20px;padding-top:20px;border-top:1px solid #2a2a2a;">
      <tr><td style="color:#888;font-size:13px;">Subtotal</td><td align="right" style="color:#f0ede8;font-family:monospace;">${{.Total.StringFixed 2}}</td></tr>
      <tr><td style="color:#888;font-size:13px;padding-top:8px;">Tax</td><td align="right" style="color:#f0ede8;font-family:monospace;padding-top:8px;">$0.00</td></tr>
      <tr><td style="font-size:16px;font-weight:700;color:#f0ede8;padding-top:16px;">Total Charged</td><td align="right" style="font-size:20px;font-weight:800;color:#e8d5a3;font-family:monospace;padding-top:16px;">${{.Total.StringFixed 2}}</td></tr>
    </table>
    {{- with .Billing}}{{if .Address}}
    <div style="margin-top:28px;padding-top:28px;border-top:1px solid #2a2a2a;">
      <div style="font-size:11px;font-family:monospace;color:#555;margin-bottom:12px;">BILLED TO</div>
      <div style="color:#f0ede8;font-size:14px;line-height:1.8;">
        {{.Name}}<br>{{.Address}}<br>{{.City}}, {{.State}} {{.Zip}}<br>{{.Country}}
      </div>
    </div>
    {{- end}}{{end}}
  </td></tr>
  <tr><td style="padding:28px 0;text-align:center;color:#444;font-size:12px;">Questions? Reply to this email.<br>© WAXROOM — Premium Music Store</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`))
