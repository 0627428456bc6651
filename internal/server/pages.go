package server

import (
	"html/template"
	"net/http"
	"time"

	"github.com/squareft/authbridge/internal/logger"
	"go.uber.org/zap"
)

// The callback never leaves the user staring at an unhandled failure: a
// concluded flow shows a brief confirmation before the redirect fires, a
// failed one shows an error panel with a single way out.

var confirmPage = template.Must(template.New("confirm").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>SquareFt</title>
<style>
body { font-family: -apple-system, sans-serif; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; background: #f8fafc; }
.panel { text-align: center; padding: 2rem 3rem; background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.08); }
.panel p { color: #334155; }
</style>
</head>
<body>
<div class="panel">
<p>{{.Message}}</p>
</div>
<script>setTimeout(function () { window.location.href = {{.Route}}; }, {{.DelayMS}});</script>
</body>
</html>
`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>SquareFt</title>
<style>
body { font-family: -apple-system, sans-serif; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; background: #f8fafc; }
.panel { text-align: center; padding: 2rem 3rem; background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.08); }
.panel p { color: #b91c1c; }
.panel a { color: #2563eb; }
</style>
</head>
<body>
<div class="panel">
<p>{{.Message}}</p>
<a href="{{.Route}}">Try again</a>
</div>
</body>
</html>
`))

type pageData struct {
	Message string
	Route   string
	DelayMS int64
}

func renderConfirm(w http.ResponseWriter, message, route string, delay time.Duration) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := confirmPage.Execute(w, pageData{
		Message: message,
		Route:   route,
		DelayMS: delay.Milliseconds(),
	})
	if err != nil {
		logger.Error("failed to render confirmation page", zap.Error(err))
	}
}

func renderError(w http.ResponseWriter, message, route string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := errorPage.Execute(w, pageData{Message: message, Route: route}); err != nil {
		logger.Error("failed to render error page", zap.Error(err))
	}
}
