package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"slideflow/internal/db"
	"slideflow/internal/errlog"
	"slideflow/internal/importer"
	"slideflow/internal/model"
	"slideflow/internal/outline"
)

// SupportedExtensions lists file extensions that can be imported.
var SupportedExtensions = map[string]string{
	".pptx": "pptx",
	".ppt":  "ppt_legacy",
	".docx": "word",
	".pdf":  "pdf",
	".xlsx": "excel",
	".xls":  "excel_legacy",
}

// upload is one validated import request pulled out of a multipart form.
type upload struct {
	data     []byte
	filename string
	name     string
	fileType string
}

// readUpload validates the request and extracts the uploaded file. On
// failure it writes the error response and returns false.
func readUpload(app *App, w http.ResponseWriter, r *http.Request) (upload, bool) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return upload{}, false
	}
	if _, err := GetAdminSession(app, r); err != nil {
		WriteError(w, http.StatusUnauthorized, err.Error())
		return upload{}, false
	}

	cfg := app.configManager.Get()
	if cfg == nil {
		WriteError(w, http.StatusInternalServerError, "config not loaded")
		return upload{}, false
	}
	maxSize := int64(cfg.Server.MaxUploadSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+10<<20)

	// Parse multipart form (32MB in memory, rest goes to temp files)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "failed to parse multipart form")
		return upload{}, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing file in upload")
		return upload{}, false
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to read file")
		return upload{}, false
	}
	if int64(len(fileData)) > maxSize {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("file exceeds size limit (%dMB)", cfg.Server.MaxUploadSizeMB))
		return upload{}, false
	}

	fileType := DetectFileType(header.Filename)
	if fileType == "unknown" {
		WriteError(w, http.StatusBadRequest, "unsupported file format")
		return upload{}, false
	}
	return upload{
		data:     fileData,
		filename: header.Filename,
		name:     presentationName(header.Filename),
		fileType: fileType,
	}, true
}

// convert dispatches an upload to the matching converter.
func (a *App) convert(r *http.Request, up upload, fn importer.ProgressFunc) (*model.Presentation, error) {
	cfg := a.configManager.Get()
	opts := importer.Options{
		ImportImages:  cfg.Import.ImportImages,
		DefaultCanvas: defaultCanvas(cfg.Import.DefaultAspect),
	}
	switch up.fileType {
	case "pptx":
		return importer.Import(r.Context(), up.data, up.name, opts, fn)
	case "ppt_legacy":
		return importer.ImportLegacy(r.Context(), up.data, up.name, opts, fn)
	default:
		// Outline formats convert in one step; emit the fixed snapshots
		// around the build so clients see the same shape.
		if fn != nil {
			fn(importer.Progress{Stage: "reading", Progress: 10, Message: "Reading document"})
		}
		pres, err := outline.BuildDeck(up.data, up.fileType, up.name)
		if fn != nil {
			if err == nil {
				fn(importer.Progress{
					Stage: "done", Progress: 100,
					Message: "Import complete", SlideCount: pres.SlideCount,
				})
			} else {
				fn(importer.Progress{Stage: "error", Progress: 10, Message: err.Error()})
			}
		}
		return pres, err
	}
}

// saveWithThumbnails persists a converted deck and best-effort renders
// thumbnails for modern packages.
func (a *App) saveWithThumbnails(up upload, pres *model.Presentation) error {
	if err := a.store.Save(pres); err != nil {
		return err
	}
	cfg := a.configManager.Get()
	if up.fileType == "pptx" && a.renderer != nil && cfg.Import.ThumbnailWidth > 0 {
		if thumbs, err := a.renderer.Thumbnails(up.data); err != nil {
			log.Printf("[Import] thumbnails for %s: %v", pres.ID, err)
		} else if err := a.store.SaveThumbnails(pres.ID, thumbs); err != nil {
			log.Printf("[Import] save thumbnails for %s: %v", pres.ID, err)
		}
	}
	return nil
}

// HandleImport imports an uploaded file into a presentation, streaming
// progress snapshots to the client as SSE events. On success the deck is
// persisted and a final "done" event carries the stored presentation.
func HandleImport(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := readUpload(app, w, r)
		if !ok {
			return
		}

		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}
		sendSSE := func(event string, data interface{}) {
			jsonData, _ := json.Marshal(data)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
			flusher.Flush()
		}

		pres, err := app.convert(r, up, func(p importer.Progress) {
			sendSSE("progress", p)
		})
		if err != nil {
			if errors.Is(err, importer.ErrCancelled) {
				return
			}
			errlog.Logf("[API] import rejected file=%q type=%s: %v", up.filename, up.fileType, err)
			sendSSE("error", map[string]string{"error": err.Error()})
			return
		}

		if err := app.saveWithThumbnails(up, pres); err != nil {
			log.Printf("[Import] save %s: %v", pres.ID, err)
			sendSSE("error", map[string]string{"error": "failed to save presentation"})
			return
		}
		sendSSE("done", pres)
	}
}

// HandleUpload is the non-streaming import variant: it converts the
// uploaded file, persists it, and returns the stored presentation.
func HandleUpload(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := readUpload(app, w, r)
		if !ok {
			return
		}
		pres, err := app.convert(r, up, nil)
		if err != nil {
			if errors.Is(err, importer.ErrCancelled) {
				return
			}
			errlog.Logf("[API] upload rejected file=%q type=%s: %v", up.filename, up.fileType, err)
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := app.saveWithThumbnails(up, pres); err != nil {
			log.Printf("[Upload] save %s: %v", pres.ID, err)
			WriteError(w, http.StatusInternalServerError, "failed to save presentation")
			return
		}
		WriteJSON(w, http.StatusOK, pres)
	}
}

// HandlePresentations returns the list of stored presentations without
// slide bodies.
func HandlePresentations(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		_, err := GetAdminSession(app, r)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}
		list, err := app.store.List()
		if err != nil {
			log.Printf("[Presentations] list error: %v", err)
			WriteError(w, http.StatusInternalServerError, "failed to list presentations")
			return
		}
		if list == nil {
			list = []model.Presentation{}
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"presentations": list})
	}
}

// HandlePresentationByID serves a single presentation:
// GET/DELETE /api/presentations/{id} and GET /api/presentations/{id}/thumbnails.
func HandlePresentationByID(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := GetAdminSession(app, r)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/api/presentations/")
		wantThumbs := false
		if rest, ok := strings.CutSuffix(path, "/thumbnails"); ok {
			path = rest
			wantThumbs = true
		}
		if !IsValidHexID(path) {
			WriteError(w, http.StatusBadRequest, "invalid presentation id")
			return
		}

		if wantThumbs {
			if r.Method != http.MethodGet {
				WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			thumbs, err := app.store.Thumbnails(path)
			if err != nil {
				log.Printf("[Presentations] thumbnails %s: %v", path, err)
				WriteError(w, http.StatusInternalServerError, "failed to load thumbnails")
				return
			}
			uris := make([]string, len(thumbs))
			for i, t := range thumbs {
				uris[i] = "data:image/png;base64," + base64.StdEncoding.EncodeToString(t)
			}
			WriteJSON(w, http.StatusOK, map[string]interface{}{"thumbnails": uris})
			return
		}

		switch r.Method {
		case http.MethodGet:
			pres, err := app.store.Get(path)
			if errors.Is(err, db.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "presentation not found")
				return
			}
			if err != nil {
				log.Printf("[Presentations] get %s: %v", path, err)
				WriteError(w, http.StatusInternalServerError, "failed to load presentation")
				return
			}
			WriteJSON(w, http.StatusOK, pres)
		case http.MethodDelete:
			err := app.store.Delete(path)
			if errors.Is(err, db.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "presentation not found")
				return
			}
			if err != nil {
				log.Printf("[Presentations] delete %s: %v", path, err)
				WriteError(w, http.StatusInternalServerError, "failed to delete presentation")
				return
			}
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		default:
			WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// presentationName derives a presentation name from the uploaded filename.
func presentationName(filename string) string {
	name := filename
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "Untitled"
	}
	return name
}

// defaultCanvas maps the configured aspect to a fallback canvas.
func defaultCanvas(aspect string) importer.Metadata {
	if aspect == "4:3" {
		return importer.ClassicMetadata()
	}
	return importer.WidescreenMetadata()
}
