package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "register", "reset", "dashboard", "profile", "logout"}

// pageData is what every page template receives.
type pageData struct {
	Title  string
	User   *domain.UserProfile
	Error  string
	Notice string

	// Form values echoed back after a failed submission. Passwords never are.
	Email    string
	FullName string
}

// pages holds one parsed template per page, each sharing the layout.
type pages map[string]*template.Template

func parsePages() (pages, error) {
	p := make(pages, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p[name] = t
	}
	return p, nil
}

func (p pages) render(w io.Writer, name string, data pageData) error {
	t, ok := p[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, name+".html", data)
}
