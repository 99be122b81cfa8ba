package render

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/oasynth/oasynth/openapi"
)

// DocsUI selects which interactive documentation UI to serve.
type DocsUI int

const (
	DocsSwaggerUI DocsUI = iota
	DocsRapiDoc
	DocsRedoc
)

// HandlerConfig configures the endpoints registered by Handler.
type HandlerConfig struct {
	// UI selects the interactive docs UI (default: DocsSwaggerUI).
	UI DocsUI

	// Title overrides the HTML page title (default: the document's
	// info.title).
	Title string

	// JSONFilename is the path for the JSON schema endpoint (default:
	// "schema.json"). Set to "-" to disable.
	JSONFilename string

	// YAMLFilename is the path for the YAML schema endpoint (default:
	// "schema.yaml"). Set to "-" to disable.
	YAMLFilename string

	// DisableDocs disables the interactive HTML docs UI endpoint.
	DisableDocs bool

	// SwaggerUIConfig provides additional SwaggerUIBundle configuration
	// options, rendered as JavaScript object properties alongside the url
	// and dom_id defaults. Only used when UI is DocsSwaggerUI.
	//
	// See: https://swagger.io/docs/open-source-tools/swagger-ui/usage/configuration/
	SwaggerUIConfig map[string]any

	// RequestIDHeader overrides the header carrying the per-request id on
	// every served response. Defaults to "X-Request-ID". An incoming id is
	// propagated; otherwise a UUIDv4 is generated.
	RequestIDHeader string
}

func (cfg HandlerConfig) jsonFilename() string {
	if cfg.JSONFilename == "" {
		return "schema.json"
	}
	return cfg.JSONFilename
}

func (cfg HandlerConfig) yamlFilename() string {
	if cfg.YAMLFilename == "" {
		return "schema.yaml"
	}
	return cfg.YAMLFilename
}

// Handler serves the document's schema and docs UI:
//
//	/              - interactive HTML docs (unless DisableDocs)
//	/schema.json   - the document as JSON  (unless JSONFilename is "-")
//	/schema.yaml   - the document as YAML  (unless YAMLFilename is "-")
//
// Serialization happens once, on first request. The config parameter is
// optional; pass nil for defaults.
func Handler(doc *openapi.Document, cfg *HandlerConfig) http.Handler {
	if cfg == nil {
		cfg = &HandlerConfig{}
	}

	mux := http.NewServeMux()

	var jsonPath, yamlPath string
	if f := cfg.jsonFilename(); f != "-" {
		jsonPath = "/" + strings.TrimPrefix(f, "/")
		mux.Handle(jsonPath, serveOnce("application/json", func() ([]byte, error) {
			return JSON(doc)
		}))
	}
	if f := cfg.yamlFilename(); f != "-" {
		yamlPath = "/" + strings.TrimPrefix(f, "/")
		mux.Handle(yamlPath, serveOnce("application/x-yaml", func() ([]byte, error) {
			return YAML(doc)
		}))
	}

	if !cfg.DisableDocs {
		specURL := jsonPath
		if specURL == "" {
			specURL = yamlPath
		}
		if specURL != "" {
			title := cfg.Title
			if title == "" {
				title = doc.Info.Title
			}
			page := docsPage(cfg.UI, title, strings.TrimPrefix(specURL, "/"), cfg.SwaggerUIConfig)
			mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte(page))
			})
		}
	}

	return requestID(cfg.RequestIDHeader, mux)
}

// FileHandler serves an already rendered schema document from raw bytes,
// with the docs UI pointing at it. The filename's extension selects the
// content type; UI, title, and request id handling follow cfg like Handler.
func FileHandler(data []byte, filename string, cfg *HandlerConfig) http.Handler {
	if cfg == nil {
		cfg = &HandlerConfig{}
	}

	contentType := "application/x-yaml"
	if strings.HasSuffix(filename, ".json") {
		contentType = "application/json"
	}

	mux := http.NewServeMux()
	specPath := "/" + strings.TrimPrefix(filename, "/")
	mux.HandleFunc(specPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	})

	if !cfg.DisableDocs {
		title := cfg.Title
		if title == "" {
			title = filename
		}
		page := docsPage(cfg.UI, title, strings.TrimPrefix(specPath, "/"), cfg.SwaggerUIConfig)
		mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
		})
	}

	return requestID(cfg.RequestIDHeader, mux)
}

// requestID propagates or generates the request id header on every
// response.
func requestID(header string, next http.Handler) http.Handler {
	if header == "" {
		header = "X-Request-ID"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(header, id)
		next.ServeHTTP(w, r)
	})
}

// serveOnce serializes lazily on first request and caches the bytes.
func serveOnce(contentType string, build func() ([]byte, error)) http.Handler {
	var (
		once     sync.Once
		data     []byte
		buildErr error
	)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() {
			data, buildErr = build()
		})
		if buildErr != nil {
			http.Error(w, "failed to serialize schema", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	})
}

func docsPage(ui DocsUI, title, specURL string, swaggerConfig map[string]any) string {
	switch ui {
	case DocsRapiDoc:
		return rapidocTemplate(title, specURL)
	case DocsRedoc:
		return redocTemplate(title, specURL)
	default:
		return swaggerUITemplate(title, specURL, swaggerConfig)
	}
}

func swaggerUITemplate(title, specURL string, config map[string]any) string {
	var extra string
	if len(config) > 0 {
		keys := make([]string, 0, len(config))
		for k := range config {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf strings.Builder
		for _, k := range keys {
			v, err := json.Marshal(config[k])
			if err != nil {
				continue
			}
			fmt.Fprintf(&buf, ", %s: %s", k, v)
		}
		extra = buf.String()
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: %q, dom_id: "#swagger-ui"%s});
</script>
</body>
</html>`, html.EscapeString(title), specURL, extra)
}

func rapidocTemplate(title, specURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url=%q></rapi-doc>
</body>
</html>`, html.EscapeString(title), specURL)
}

func redocTemplate(title, specURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
</head>
<body>
<redoc spec-url=%q></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`, html.EscapeString(title), specURL)
}
