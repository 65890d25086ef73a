package smartlinks

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/sirupsen/logrus"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!doctype html>
<html><head><meta charset="utf-8"/><meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Continue to offer</title>
<style>body{font-family:system-ui,Segoe UI,Roboto,Arial;padding:20px;max-width:520px;margin:auto} .card{border:1px solid #eee;border-radius:12px;padding:16px;box-shadow:0 2px 8px rgba(0,0,0,.04)} input,button{padding:10px;border-radius:8px;border:1px solid #ddd;width:100%;margin-top:8px} button{background:#111;color:#fff;border:none}</style>
</head>
<body>
  <div class="card">
    <h2>Unlock the deal</h2>
    <p>Enter your email to get exclusive offers and updates. Then click continue.</p>
    <form method="POST" action="{{.EmailAction}}">
      <input type="email" name="email" placeholder="you@example.com" required />
      <button type="submit">Get updates</button>
    </form>
    <form method="POST" action="{{.GoAction}}">
      <button type="submit" style="margin-top:12px;background:#2563eb">Continue to offer</button>
    </form>
  </div>
</body></html>
`))

var notFoundTemplate = template.Must(template.New("not_found").Parse(`<!doctype html>
<html><head><meta charset="utf-8"/><title>Not found</title></head>
<body><p>Not found</p></body></html>
`))

type landingPage struct {
	EmailAction string
	GoAction    string
}

// Handler serves the public /l/:slug surface.
type Handler struct {
	Service *Service
	Log     *logrus.Logger
}

func NewHandler(svc *Service, log *logrus.Logger) *Handler {
	return &Handler{Service: svc, Log: log}
}

// RegisterRoutes mounts the landing, email and redirect endpoints on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	l := r.Group("/l")
	{
		l.GET("/:slug", h.Landing)
		l.POST("/:slug/email", h.CaptureEmail)
		l.POST("/:slug/go", h.Redirect)
	}
}

// Landing handles GET /l/:slug
func (h *Handler) Landing(c *gin.Context) {
	slug := c.Param("slug")
	if _, err := h.Service.Lookup(c.Request.Context(), slug); err != nil {
		h.notFound(c, slug, err)
		return
	}

	base := "/l/" + url.PathEscape(slug)
	goAction := base + "/go"
	if src := c.Query("src"); src != "" {
		goAction += "?src=" + url.QueryEscape(src)
	}
	c.Render(http.StatusOK, render.HTML{
		Template: landingTemplate,
		Data:     landingPage{EmailAction: base + "/email", GoAction: goAction},
	})
}

// CaptureEmail handles POST /l/:slug/email
func (h *Handler) CaptureEmail(c *gin.Context) {
	slug := c.Param("slug")
	err := h.Service.CaptureEmail(c.Request.Context(), slug, c.PostForm("email"))
	if errors.Is(err, ErrNotFound) {
		h.notFound(c, slug, err)
		return
	}
	if err != nil {
		h.Log.WithError(err).WithField("slug", slug).Error("Email capture failed")
	}
	c.Redirect(http.StatusSeeOther, "/l/"+url.PathEscape(slug))
}

// Redirect handles POST /l/:slug/go
func (h *Handler) Redirect(c *gin.Context) {
	slug := c.Param("slug")
	meta := ClickMetaFromRequest(c.Request)

	target, err := h.Service.RecordClick(c.Request.Context(), slug, meta)
	if err != nil {
		if errors.Is(err, ErrNotFound) || target == "" {
			h.notFound(c, slug, err)
			return
		}
		h.Log.WithError(err).WithField("slug", slug).Error("Click recording failed")
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) notFound(c *gin.Context, slug string, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		h.Log.WithError(err).WithField("slug", slug).Error("SmartLink lookup failed")
	}
	c.Render(http.StatusNotFound, render.HTML{Template: notFoundTemplate})
}
