package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edenpkg/edenpkg/internal/plan"
	"github.com/edenpkg/edenpkg/internal/verify"
)

type planItemJSON struct {
	SkillID     string   `json:"skill_id"`
	SourcePath  string   `json:"source_path"`
	TargetPath  string   `json:"target_path"`
	InstallMode string   `json:"install_mode"`
	Agent       string   `json:"agent"`
	Action      string   `json:"action"`
	Reasons     []string `json:"reasons"`
}

// formatPlanItems renders plan items as text or a JSON array. Rendering
// is separated from printing so the output stays byte-deterministic and
// golden-testable.
func formatPlanItems(items []plan.Item, asJSON bool) string {
	if asJSON {
		out := make([]planItemJSON, len(items))
		for i, item := range items {
			out[i] = planItemJSON{
				SkillID:     item.SkillID,
				SourcePath:  item.SourcePath,
				TargetPath:  item.TargetPath,
				InstallMode: item.InstallMode,
				Agent:       item.Agent,
				Action:      string(item.Action),
				Reasons:     item.Reasons,
			}
		}
		encoded, _ := json.MarshalIndent(out, "", "  ")
		return string(encoded) + "\n"
	}

	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s %s %s %s -> %s (%s)\n", item.Action, item.SkillID, item.Agent, item.SourcePath, item.TargetPath, item.InstallMode)
		for _, reason := range item.Reasons {
			fmt.Fprintf(&b, "  reason: %s\n", reason)
		}
	}
	return b.String()
}

func printPlanItems(items []plan.Item, asJSON bool) {
	fmt.Print(formatPlanItems(items, asJSON))
}

func printSummaryLine(created, updated, noop, conflict, removed int) {
	fmt.Printf("create=%d update=%d noop=%d conflict=%d remove=%d\n", created, updated, noop, conflict, removed)
}

type findingJSON struct {
	Code        string `json:"code"`
	Severity    string `json:"severity"`
	SkillID     string `json:"skill_id"`
	TargetPath  string `json:"target_path"`
	Message     string `json:"message"`
	Remediation string `json:"remediation"`
}

type doctorPayload struct {
	Findings []findingJSON `json:"findings"`
	Summary  struct {
		Total   int `json:"total"`
		Error   int `json:"error"`
		Warning int `json:"warning"`
	} `json:"summary"`
}

// formatFindings renders doctor findings plus their summary, as text or
// as the stable JSON payload shape.
func formatFindings(findings []verify.Finding, summary verify.Summary, asJSON bool) string {
	if asJSON {
		payload := doctorPayload{Findings: make([]findingJSON, len(findings))}
		for i, f := range findings {
			payload.Findings[i] = findingJSON{
				Code:        f.Code,
				Severity:    string(f.Severity),
				SkillID:     f.SkillID,
				TargetPath:  f.TargetPath,
				Message:     f.Message,
				Remediation: f.Remediation,
			}
		}
		payload.Summary.Total = summary.Total
		payload.Summary.Error = summary.Error
		payload.Summary.Warning = summary.Warning
		encoded, _ := json.MarshalIndent(payload, "", "  ")
		return string(encoded) + "\n"
	}

	var b strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&b, "code=%s severity=%s skill_id=%s target_path=%s message=%q remediation=%q\n",
			f.Code, f.Severity, f.SkillID, f.TargetPath, f.Message, f.Remediation)
	}
	fmt.Fprintf(&b, "summary: total=%d error=%d warning=%d\n", summary.Total, summary.Error, summary.Warning)
	return b.String()
}

func printFindings(findings []verify.Finding, summary verify.Summary, asJSON bool) {
	fmt.Print(formatFindings(findings, summary, asJSON))
}
