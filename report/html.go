package report

import (
	"bytes"
	"html/template"
)

// renderHTML renders the report as a single self-contained HTML page.
// The template reads the same RunReport value that WriteArtifacts
// JSON-marshals, so the two artifacts cannot drift apart.
func renderHTML(r *RunReport) ([]byte, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Compliance Report - {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM"}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
  background: #f8f9fa; color: #212529; line-height: 1.6;
}
.container { max-width: 1200px; margin: 0 auto; padding: 20px; }
.header {
  background: white; border-radius: 8px; padding: 24px; margin-bottom: 24px;
  box-shadow: 0 1px 3px rgba(0,0,0,0.1);
}
.header h1 { font-size: 24px; font-weight: 600; }
.header .subtitle { color: #6c757d; font-size: 14px; }
.stats {
  display: grid; grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
  gap: 16px; margin-bottom: 24px;
}
.stat-box {
  background: white; padding: 16px; border-radius: 8px;
  box-shadow: 0 1px 3px rgba(0,0,0,0.1);
}
.stat-value { font-size: 28px; font-weight: 600; }
.stat-label {
  font-size: 12px; color: #6c757d; text-transform: uppercase; letter-spacing: 0.5px;
}
.section {
  background: white; border-radius: 8px; padding: 24px; margin-bottom: 24px;
  box-shadow: 0 1px 3px rgba(0,0,0,0.1);
}
table { width: 100%; border-collapse: collapse; }
th {
  text-align: left; padding: 12px; font-size: 12px; font-weight: 600;
  color: #6c757d; text-transform: uppercase; letter-spacing: 0.5px;
  border-bottom: 2px solid #dee2e6;
}
td { padding: 12px; font-size: 14px; border-bottom: 1px solid #f1f3f5; vertical-align: top; }
tr:hover { background: #f8f9fa; }
.badge {
  display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 11px;
  font-weight: 600; text-transform: uppercase; letter-spacing: 0.5px; margin-right: 4px;
}
.badge-compliant, .badge-corrected { background: #d4edda; color: #155724; }
.badge-needs_review { background: #fff3cd; color: #856404; }
.badge-failed { background: #f8d7da; color: #721c24; }
.badge-skipped { background: #e2e3e5; color: #383d41; }
.badge-violation { background: #f8d7da; color: #721c24; }
.badge-warning { background: #fff3cd; color: #856404; }
.badge-info { background: #d1ecf1; color: #0c5460; }
.detail { font-size: 13px; color: #6c757d; margin-top: 4px; }
.recommendation {
  background: #fff3cd; border-left: 4px solid #ffc107; padding: 8px 12px;
  margin-top: 6px; border-radius: 4px; font-size: 13px; color: #856404;
}
.footer { text-align: center; padding: 24px; color: #6c757d; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Compliance Report</h1>
    <div class="subtitle">Generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM"}}</div>
  </div>

  <div class="stats">
    <div class="stat-box"><div class="stat-value">{{.Counts.Total}}</div><div class="stat-label">Total Files</div></div>
    <div class="stat-box"><div class="stat-value">{{.Counts.Therapy}}</div><div class="stat-label">Therapy Notes</div></div>
    <div class="stat-box"><div class="stat-value">{{.Counts.Medical}}</div><div class="stat-label">Medical Notes</div></div>
    <div class="stat-box"><div class="stat-value">{{.Counts.Compliant}}</div><div class="stat-label">Compliant</div></div>
    <div class="stat-box"><div class="stat-value">{{.Counts.Corrected}}</div><div class="stat-label">Auto-Corrected</div></div>
    <div class="stat-box"><div class="stat-value">{{.Counts.NeedsReview}}</div><div class="stat-label">Needs Review</div></div>
    <div class="stat-box"><div class="stat-value">{{.Counts.Skipped}}</div><div class="stat-label">Skipped</div></div>
    <div class="stat-box"><div class="stat-value">{{.Counts.Failed}}</div><div class="stat-label">Failed</div></div>
  </div>

  <div class="section">
    <table>
      <thead>
        <tr>
          <th>File</th>
          <th>Type</th>
          <th>Provider</th>
          <th>Findings</th>
          <th>Corrections</th>
          <th>Status</th>
        </tr>
      </thead>
      <tbody>
        {{range .Notes}}
        <tr>
          <td>{{.FileName}}</td>
          <td>{{.Classification}}</td>
          <td>{{if .Credential}}{{.Credential}}{{else}}&mdash;{{end}}</td>
          <td>
            {{if .Findings}}
              {{range .Findings}}
              <div><span class="badge badge-{{.Severity}}">{{.Severity}}</span>{{.RuleID}}
                <div class="detail">{{.Description}}</div>
              </div>
              {{end}}
            {{else}}&mdash;{{end}}
            {{if .MDM}}{{if not .MDM.MeetsModerate}}
              {{range .MDM.Recommendations}}<div class="recommendation">{{.}}</div>{{end}}
            {{end}}{{end}}
          </td>
          <td>
            {{if .Corrections}}
              {{range .Corrections}}
              <div>{{.Field}}: {{if .OldValue}}{{.OldValue}} &rarr; {{end}}{{.NewValue}}
                <div class="detail">{{.Method}}</div>
              </div>
              {{end}}
            {{else}}&mdash;{{end}}
            {{range .CorrectionFailures}}
              <div class="recommendation">correction failed ({{.RuleID}}): {{.Reason}}</div>
            {{end}}
          </td>
          <td>
            <span class="badge badge-{{.Status}}">{{.Status}}</span>
            {{if .FailureReason}}<div class="detail">{{.FailureReason}}</div>{{end}}
          </td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </div>

  <div class="footer">Clinical Note Compliance Processor</div>
</div>
</body>
</html>
`
