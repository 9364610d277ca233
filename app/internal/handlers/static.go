package handlers

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var mimeTypes = map[string]string{
	".html":  "text/html",
	".js":    "application/javascript",
	".css":   "text/css",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpg",
	".gif":   "image/gif",
	".ico":   "image/x-icon",
	".svg":   "image/svg+xml",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// ContentType returns the content type served for a file name.
func ContentType(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "text/plain"
}

// templateKeys are substituted into config.js and config-local.js, in this order.
var templateKeys = []string{
	"OPENAI_API_KEY",
	"DATADOG_CLIENT_TOKEN",
	"DATADOG_APPLICATION_ID",
	"DATADOG_SITE",
	"DATADOG_ENV",
}

// StaticHandler serves files from a directory and injects environment values
// into the configuration scripts and the entry page.
type StaticHandler struct {
	root   string
	vars   map[string]string
	logger *zap.Logger
}

// NewStaticHandler serves root with vars as template values.
func NewStaticHandler(root string, vars map[string]string, logger *zap.Logger) *StaticHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaticHandler{root: root, vars: vars, logger: logger.Named("static")}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCommonHeaders(w.Header())

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	name := r.URL.Path
	if name == "/" {
		name = "/index.html"
	}

	data, err := h.read(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, notFoundPage, html.EscapeString(name))
			return
		}
		h.logger.Error("failed to read static file", zap.String("path", name), zap.Error(err))
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}

	w.Header().Set("Content-Type", ContentType(name))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.inject(name, string(data))))
}

// read opens name below the root. Paths escaping the root do not exist.
func (h *StaticHandler) read(name string) ([]byte, error) {
	clean := path.Clean("/" + name)
	if strings.Contains(name, "..") && clean != name {
		return nil, fs.ErrNotExist
	}
	full := filepath.Join(h.root, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fs.ErrNotExist
	}
	return os.ReadFile(full)
}

func (h *StaticHandler) inject(name, content string) string {
	switch base := path.Base(name); {
	case base == "config.js", base == "config-local.js":
		for _, key := range templateKeys {
			v := h.vars[key]
			content = strings.ReplaceAll(content, "{{"+key+"}}", v)
			content = strings.ReplaceAll(content, "YOUR_"+placeholderName(key)+"_HERE", v)
		}
	case base == "index.html":
		site := h.vars["DATADOG_SITE"]
		if site == "" {
			site = "datadoghq.com"
		}
		content = strings.NewReplacer(
			"YOUR_DATADOG_APPLICATION_ID", h.vars["DATADOG_APPLICATION_ID"],
			"YOUR_DATADOG_CLIENT_TOKEN", h.vars["DATADOG_CLIENT_TOKEN"],
			"datadoghq.com", site,
		).Replace(content)
	}
	return content
}

// placeholderName drops the vendor prefix: DATADOG_CLIENT_TOKEN -> CLIENT_TOKEN.
func placeholderName(key string) string {
	key = strings.Replace(key, "DATADOG_", "", 1)
	return strings.Replace(key, "OPENAI_", "", 1)
}

func setCommonHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-XSS-Protection", "1; mode=block")

	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

const notFoundPage = `<html>
    <body>
        <h1>404 - File Not Found</h1>
        <p>The requested file <code>%s</code> was not found.</p>
        <p><a href="/">&larr; Back to Home</a></p>
    </body>
</html>
`
