package mail

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// Digest is everything the templates need to render one email.
type Digest struct {
	Subject     string
	Intro       string
	Articles    []news.Article
	Tip         *news.Tip
	GeneratedAt time.Time
	HeaderImage bool // render the cid:header_image block
}

var htmlTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"inc":      func(i int) int { return i + 1 },
	"longDate": longDate,
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Subject}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
{{- if .HeaderImage}}
  <div style="text-align: center; margin-bottom: 30px;">
    <img src="cid:header_image" alt="Sumo Updates Newsletter" style="max-width: 100%; height: auto; display: block; margin: 0 auto;">
  </div>
{{- end}}

  <div style="margin-bottom: 20px;">
    <p style="font-size: 16px; margin-bottom: 20px;">{{.Intro}}</p>
  </div>
{{- range $i, $item := .Articles}}
  <div style="margin-bottom: 20px; padding: 15px; border-left: 4px solid #d2691e; background-color: #fafafa;">
    <div style="font-size: 16px; margin-bottom: 8px; color: #333;">
      <strong>{{inc $i}}.</strong> {{$item.Summary}}
    </div>
    <div style="font-size: 12px; color: #666; margin-bottom: 5px;">
      Date: {{longDate $item.ArticleDate}}
    </div>
    <div>
      <a href="{{$item.URL}}" style="color: #d2691e; text-decoration: none; font-weight: bold;">
        &gt;&gt; Read full article
      </a>
    </div>
  </div>
{{- end}}
{{- if .Tip}}
  <div style="margin-top: 25px; padding: 15px; background-color: #fff8ef; border: 1px solid #d2691e; border-radius: 6px;">
    <div style="font-size: 14px; font-weight: bold; color: #d2691e; margin-bottom: 6px;">
      Bite-Sized Sumo: {{.Tip.Title}}
    </div>
    <div style="font-size: 14px; color: #333;">{{.Tip.Content}}</div>
  </div>
{{- end}}

  <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px;">
    <p>This digest was automatically generated from multiple sumo news sources</p>
    <p>Generated on {{.GeneratedAt.Format "January 2, 2006"}} at {{.GeneratedAt.Format "3:04 PM"}}</p>
    <p style="margin-top: 15px; font-size: 11px;">
      To unsubscribe from these emails, please reply with "UNSUBSCRIBE" or contact the sender.<br>
      This is an automated digest service. We respect your privacy and email preferences.
    </p>
  </div>
</body>
</html>
`))

// RenderHTML produces the HTML body for one digest.
func RenderHTML(d Digest) (string, error) {
	var sb strings.Builder
	if err := htmlTemplate.Execute(&sb, d); err != nil {
		return "", fmt.Errorf("render html digest: %w", err)
	}
	return sb.String(), nil
}

// RenderText produces the plain-text alternative.
func RenderText(d Digest) string {
	var sb strings.Builder
	sb.WriteString("SUMO WRESTLING NEWS DIGEST\n\n")
	sb.WriteString(d.Intro)
	sb.WriteString("\n\n")
	for i, item := range d.Articles {
		fmt.Fprintf(&sb, "%d. %s\n   Date: %s\n   Link: %s\n\n", i+1, item.Summary, longDate(item.ArticleDate), item.URL)
	}
	if d.Tip != nil {
		fmt.Fprintf(&sb, "BITE-SIZED SUMO: %s\n%s\n\n", d.Tip.Title, d.Tip.Content)
	}
	sb.WriteString("---\n")
	sb.WriteString("This digest was automatically generated from multiple sumo news sources\n")
	fmt.Fprintf(&sb, "Generated on %s at %s\n\n", d.GeneratedAt.Format("January 2, 2006"), d.GeneratedAt.Format("3:04 PM"))
	sb.WriteString("To unsubscribe: Reply with \"UNSUBSCRIBE\" or contact the sender.\n")
	sb.WriteString("We respect your privacy and email preferences.\n")
	return sb.String()
}

// longDate formats a YYYY-MM-DD date as "January 2, 2006", passing through
// anything it cannot parse.
func longDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}
