// Package notify surfaces deployment outcomes and one-time credentials
// to the operator.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"token-launchpad/internal/domain"
)

// Nop discards every notification.
type Nop struct{}

// Notify implements the orchestrator's notifier contract.
func (Nop) Notify(ctx context.Context, c domain.Candidate, out *domain.DeploymentOutcome) error {
	return nil
}

// Logger writes a one-line summary per outcome. Credentials are never written.
type Logger struct {
	logger *log.Logger
}

// NewLogger creates a new Logger notifier.
func NewLogger(logger *log.Logger) *Logger {
	if logger == nil {
		logger = log.Default()
	}
	return &Logger{logger: logger}
}

// Notify implements the orchestrator's notifier contract.
func (l *Logger) Notify(ctx context.Context, c domain.Candidate, out *domain.DeploymentOutcome) error {
	status := "failed"
	if out.Success {
		status = "deployed"
	}
	line := fmt.Sprintf("%s $%s (%s): %s", status, c.Symbol, c.Name, out.Message)
	if out.Credentials != nil {
		line += " (credentials issued for " + out.Credentials.AgentHandle + ")"
	}
	l.logger.Println(line)
	return nil
}

// FormatMessage renders an outcome for a human operator. It includes
// generated credentials because this is their only delivery channel.
func FormatMessage(c domain.Candidate, out *domain.DeploymentOutcome) string {
	var b strings.Builder
	if out.Success {
		fmt.Fprintf(&b, "Launched %s ($%s)\n", c.Name, c.Symbol)
	} else {
		fmt.Fprintf(&b, "Launch failed: %s ($%s)\n", c.Name, c.Symbol)
	}
	if out.Message != "" {
		b.WriteString(out.Message + "\n")
	}
	if out.PostURL != "" {
		b.WriteString("Post: " + out.PostURL + "\n")
	}
	if out.Degraded {
		b.WriteString("Launchpad trigger failed; it may still pick up the post.\n")
	}
	if cr := out.Credentials; cr != nil {
		b.WriteString("\nAgent credentials (shown once):\n")
		fmt.Fprintf(&b, "handle: %s\n", cr.AgentHandle)
		fmt.Fprintf(&b, "api key: %s\n", cr.APIKey)
		if cr.LinkedWallet != "" {
			fmt.Fprintf(&b, "wallet: %s\n", cr.LinkedWallet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
