package alerting

import (
	"fmt"
	"strings"
)

// Batch headers and mail subjects. Operators have filters keyed on these, so
// the wording is load-bearing.
const (
	ChatOutageHeader    = "⚠️ Cameras Offline"
	ChatRecoveryHeader  = "✅ Cameras Recovered"
	MailOutageSubject   = "⚠️ Cameras Offline Alert"
	MailRecoverySubject = "✅ Cameras Recovered"
)

func chatOutageLine(name string, mins int, muted bool) string {
	line := fmt.Sprintf("🚨 %s (%dm)", name, mins)
	if muted {
		line += " 🔕(Muted)"
	}
	return line
}

func mailOutageLine(name string, mins int, muted bool) string {
	line := fmt.Sprintf("%s is offline for %d mins", name, mins)
	if muted {
		line += " (Alerts Muted)"
	}
	return line
}

func chatRecoveryLine(name string) string {
	return fmt.Sprintf("✅ %s is back Online", name)
}

func mailRecoveryLine(name string) string {
	return fmt.Sprintf("%s is back Online", name)
}

// ChatText renders one batch as a single Markdown message.
func ChatText(header string, lines []string) string {
	return "*" + header + "*\n" + strings.Join(lines, "\n")
}

// MailHTML renders the alert list as the email body.
func MailHTML(lines []string) string {
	var b strings.Builder
	b.WriteString("<h3>System Alert</h3><ul>")
	for _, l := range lines {
		b.WriteString("<li>")
		b.WriteString(l)
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}
