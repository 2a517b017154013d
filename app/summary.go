package app

import (
	"bytes"
	"fmt"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"voteaudit/domain/anomaly"
)

// RenderSummary writes a Markdown overview of a report: run identity, counts
// per category, the Benford verdict and the risk level.
func RenderSummary(r *anomaly.AnomalyReport) string {
	var b bytes.Buffer
	m := r.Metadata

	fmt.Fprintf(&b, "# Election anomaly report\n\n")
	if m.RunID != "" {
		fmt.Fprintf(&b, "Run `%s` generated %s\n\n", m.RunID, m.GeneratedAt.Format("2006-01-02 15:04 MST"))
	}
	fmt.Fprintf(&b, "**Risk level: %s** (%d of 3 global signals)\n\n", r.Risk.Level, r.Risk.SignalCount)
	fmt.Fprintf(&b, "- Units analysed: %d\n", m.TotalUnits)
	fmt.Fprintf(&b, "- Units with flags: %d (%.1f%%)\n\n", m.FlaggedUnits, m.FlaggedPct)

	fmt.Fprintf(&b, "## Findings\n\n")
	fmt.Fprintf(&b, "| Check | Count |\n|---|---|\n")
	rows := []struct {
		name  string
		count int
	}{
		{"Turnout outliers", r.Turnout.Summary.OutlierCount},
		{"High invalid ballots", r.InvalidBallots.Summary.OutlierCount},
		{"High blank votes", r.BlankVotes.Summary.OutlierCount},
		{"High wasted votes", r.WastedVotes.Summary.OutlierCount},
		{fmt.Sprintf("Landslide wins (>%g%%)", r.WinnerDominance.Summary.Threshold), r.WinnerDominance.Summary.ExtremeCount},
		{fmt.Sprintf("Close races (<%g%%)", r.CloseRaces.Summary.Threshold), r.CloseRaces.Summary.TotalClose},
		{"Turnout arithmetic errors", r.MathConsistency.Summary.TurnoutMathErrors},
		{"Candidate sum errors", r.MathConsistency.Summary.CandidateSumErrors},
		{"Monopoly provinces", len(r.ProvincePatterns.Monopoly)},
		{"High turnout variation provinces", len(r.ProvincePatterns.HighVariation)},
		{"Paused counting", r.CountingProgress.Summary.Paused},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %d |\n", row.name, row.count)
	}

	fmt.Fprintf(&b, "\n## Benford's law\n\n")
	if r.Benford.Valid {
		fmt.Fprintf(&b, "Chi-square %.2f, p=%.4f: **%s**\n\n", r.Benford.Summary.ChiSquare, r.Benford.Summary.PValue, r.Benford.Summary.Verdict)
	} else {
		fmt.Fprintf(&b, "Not tested: %s\n\n", r.Benford.Reason)
	}

	fmt.Fprintf(&b, "## Vote patterns\n\n")
	fmt.Fprintf(&b, "- %s\n", orReason(r.VotePatterns.RoundNumbers.Interpretation, r.VotePatterns.RoundNumbers.Reason))
	fmt.Fprintf(&b, "- %s\n", orReason(r.VotePatterns.Variance.Interpretation, r.VotePatterns.Variance.Reason))
	fmt.Fprintf(&b, "- %s\n", orReason(r.VotePatterns.Linear.Interpretation, r.VotePatterns.Linear.Reason))

	if r.Risk.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Risk.Description)
	}
	return b.String()
}

// RenderSummaryHTML renders the Markdown summary as a standalone HTML page.
func RenderSummaryHTML(r *anomaly.AnomalyReport) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(RenderSummary(r)))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Election anomaly report",
	})
	return markdown.Render(doc, renderer)
}

func orReason(text, reason string) string {
	if text != "" {
		return text
	}
	return "not evaluated: " + reason
}
