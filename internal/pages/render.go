// Package pages serves the server-rendered storefront on top of the same
// services as the JSON API.
package pages

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/handlers"
	"github.com/Keoroanthony/go-storefront/internal/logger"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutFile   = "templates/layout.html"
	partialsGlob = "templates/_*.html"
)

var funcs = template.FuncMap{
	"add":        func(a, b int) int { return a + b },
	"sub":        func(a, b int) int { return a - b },
	"deref":      deref,
	"fieldError": fieldError,
	"isAdmin":    func(u *models.User) bool { return u.IsAdmin() },
}

func fieldError(errs map[string]string, field string) string {
	return errs[field]
}

// Renderer holds one template set per page, each parsed together with the
// shared layout and partials so every page can define its own "content" block.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimPrefix(file, "templates/")
		if file == layoutFile || strings.HasPrefix(name, "_") {
			continue
		}
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, layoutFile, partialsGlob, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data interface{}) render.Render {
	return render.HTML{Template: r.templates[name], Name: "layout", Data: data}
}

// page renders name with the logged-in user and pending flash messages merged into data.
func page(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = auth.CurrentUser(c)

	sess := sessions.Default(c)
	if flashes := sess.Flashes(); len(flashes) > 0 {
		data["Flashes"] = flashes
		if err := sess.Save(); err != nil {
			zap.L().Warn("failed to clear flashes", zap.Error(err))
		}
	}
	c.HTML(status, name, data)
}

func flash(c *gin.Context, msg string) {
	sess := sessions.Default(c)
	sess.AddFlash(msg)
	if err := sess.Save(); err != nil {
		zap.L().Warn("failed to store flash", zap.Error(err))
	}
}

// redirect answers a successful POST.
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// renderError shows the error page for failures the page itself cannot present.
func renderError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		page(c, appErr.Code, "error.html", gin.H{"Title": http.StatusText(appErr.Code), "Message": appErr.Message})
		return
	}

	logger.FromContext(c).Error("page failed", zap.String("path", c.FullPath()), zap.Error(err))
	_ = c.Error(err)
	page(c, http.StatusInternalServerError, "error.html", gin.H{"Title": "Server Error", "Message": "Something went wrong. Please try again later."})
}

// formErrors extracts per-field messages from a bind or service error.
// ok is false when err is neither, and the caller should use renderError.
func formErrors(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return handlers.FieldErrors(verrs), true
	}
	if appErr, ok := apperrors.As(err); ok && appErr.Kind == apperrors.KindValidation {
		out := map[string]string{"__all__": appErr.Message}
		for k, v := range appErr.Fields {
			out[k] = v
		}
		return out, true
	}
	return nil, false
}

// safeNext keeps post-login redirects on this site. Browsers treat a
// backslash like a slash, so "/\host" is as dangerous as "//host".
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsRune(next, '\\') {
		return "/"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" {
		return "/"
	}
	return next
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// pathID reads a numeric path parameter; anything else is a missing page.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		page(c, http.StatusNotFound, "error.html", gin.H{"Title": "Not Found", "Message": "The page you requested does not exist."})
		return 0, false
	}
	return uint(id), true
}

// confirm asks before a destructive POST to the current path.
func confirm(c *gin.Context, title, message, cancelURL string) {
	page(c, http.StatusOK, "confirm.html", gin.H{
		"Title":     title,
		"Message":   message,
		"Action":    c.Request.URL.Path,
		"CancelURL": cancelURL,
	})
}
