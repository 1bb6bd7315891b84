package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"insight-stack/internal/models"
	"insight-stack/shared/config"
	"insight-stack/shared/report"

	"github.com/dustin/go-humanize"
)

//go:embed digest.html
var digestTemplate string

// QueryDigest is the part of a digest produced by one watch query.
type QueryDigest struct {
	Query          string
	VideosAnalyzed int
	NewInsights    []models.AnalysisItem
	Summary        report.Summary
}

// Digest collects the new insights of one watch run.
type Digest struct {
	Date    time.Time
	Queries []QueryDigest
}

func (d *Digest) TotalNew() int {
	n := 0
	for _, q := range d.Queries {
		n += len(q.NewInsights)
	}
	return n
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config   *config.EmailConfig
	tmpl     *template.Template
	sendMail sendFunc
}

func NewSender(cfg *config.EmailConfig) (*Sender, error) {
	tmpl, err := template.New("digest").Funcs(template.FuncMap{
		"comma":   humanize.Comma,
		"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
		"upper":   strings.ToUpper,
	}).Parse(digestTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse digest template: %w", err)
	}
	return &Sender{config: cfg, tmpl: tmpl, sendMail: smtp.SendMail}, nil
}

// SendDigest mails the digest. A digest without new insights is not sent.
func (s *Sender) SendDigest(d *Digest) error {
	if d == nil {
		return fmt.Errorf("digest cannot be nil")
	}
	total := d.TotalNew()
	if total == 0 {
		return nil
	}

	subject := fmt.Sprintf("YouTube Insights Digest - %d New Insights (%s)", total, d.Date.Format("Jan 2, 2006"))
	body, err := s.Render(d)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}
	return s.SendHTML(subject, body)
}

func (s *Sender) Render(d *Digest) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendHTML sends an email with custom HTML content.
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return s.sendMail(addr, auth, s.config.FromEmail, to, msg)
}
