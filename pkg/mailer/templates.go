package mailer

import (
	"fmt"
	"time"
)

// EnrollmentStatusEmail renders the payment-verification outcome email.
// Accepted and rejected enrollments get distinct subjects and bodies.
func EnrollmentStatusEmail(to, userName, status, courseTitle, courseKind string) Message {
	accepted := status == "active"

	subject := fmt.Sprintf("Enrollment Update: %s - Let's Dance Academy", courseTitle)
	if accepted {
		subject = fmt.Sprintf("Enrollment Accepted: %s - Let's Dance Academy", courseTitle)
	}

	badge := "Enrollment Rejected"
	badgeColor := "#dc3545"
	detail := `<p>Unfortunately, your enrollment request could not be processed at this time.</p>
<p>This may be due to an issue with verifying your payment details (UTR Number). Please verify your details and try again, or contact support if you believe this is an error.</p>`
	if accepted {
		badge = "Enrollment Accepted"
		badgeColor = "#28a745"
		detail = `<p>Congratulations! Your payment has been verified and your enrollment is now active. You can now access all the course materials and join the sessions.</p>
<p>Please log in to your dashboard to get started.</p>`
	}

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9f9f9;">
    <div style="background-color: #000; color: #fff; padding: 20px; text-align: center;">
      <h1>Let's Dance Academy</h1>
    </div>
    <div style="background-color: #fff; padding: 30px; border-radius: 5px; margin-top: 20px;">
      <h2>Hello %s,</h2>
      <p>We are writing to update you on your enrollment status for the %s <strong>%s</strong>.</p>
      <div style="text-align: center;">
        <div style="display: inline-block; padding: 10px 20px; border-radius: 5px; color: white; font-weight: bold; text-transform: uppercase; background-color: %s;">%s</div>
      </div>
      %s
      <p>If you have any questions, feel free to reply to this email.</p>
    </div>
    <div style="text-align: center; margin-top: 20px; color: #666; font-size: 12px;">
      <p>&copy; %d Let's Dance Academy. All rights reserved.</p>
    </div>
  </div>
</body>
</html>`, userName, courseKind, courseTitle, badgeColor, badge, detail, time.Now().Year())

	textContent := fmt.Sprintf("Hello %s,\n\nYour enrollment for %s is now %s.\n\nLet's Dance Academy", userName, courseTitle, status)

	return Message{
		To:          to,
		Subject:     subject,
		HTMLContent: htmlContent,
		TextContent: textContent,
	}
}
