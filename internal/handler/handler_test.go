package handler

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slideflow/internal/auth"
	"slideflow/internal/config"
	"slideflow/internal/db"
	"slideflow/internal/model"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()

	cm := config.NewConfigManager(filepath.Join(dir, "config.json"))
	if err := cm.Load(); err != nil {
		t.Fatalf("load config: %v", err)
	}
	// No renderer in tests; thumbnail rendering is exercised in the
	// preview package.
	if err := cm.Update(map[string]interface{}{"import.thumbnail_width": 0}); err != nil {
		t.Fatalf("update config: %v", err)
	}

	database, err := db.InitDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := db.NewPresentationStore(database)
	sm := auth.NewSessionManager(database, auth.DefaultSessionExpiry)
	return NewApp(database, store, sm, cm, nil)
}

// adminToken configures the admin account and returns a session token.
func adminToken(t *testing.T, app *App) string {
	t.Helper()
	resp, err := app.AdminSetup("admin", "password1")
	if err != nil {
		t.Fatalf("admin setup: %v", err)
	}
	return resp.Session.ID
}

func authedRequest(method, target, token string, body *bytes.Buffer, contentType string) *http.Request {
	var r *http.Request
	if body == nil {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, body)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestIsValidHexID(t *testing.T) {
	if !IsValidHexID(model.NewID()) {
		t.Error("generated ID rejected")
	}
	for _, bad := range []string{"", "abc", strings.Repeat("g", 32), strings.Repeat("A", 32)} {
		if IsValidHexID(bad) {
			t.Errorf("accepted %q", bad)
		}
	}
}

func TestDetectFileType(t *testing.T) {
	cases := map[string]string{
		"Deck.PPTX":  "pptx",
		"old.ppt":    "ppt_legacy",
		"notes.docx": "word",
		"paper.pdf":  "pdf",
		"data.xlsx":  "excel",
		"data.xls":   "excel_legacy",
		"image.png":  "unknown",
	}
	for name, want := range cases {
		if got := DetectFileType(name); got != want {
			t.Errorf("DetectFileType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if msg := ValidatePassword("password1"); msg != "" {
		t.Errorf("valid password rejected: %s", msg)
	}
	for _, bad := range []string{"short1", "lettersonly", "12345678"} {
		if ValidatePassword(bad) == "" {
			t.Errorf("accepted %q", bad)
		}
	}
}

func TestAdminSetupAndLogin(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	HandleAdminStatus(app)(rec, httptest.NewRequest(http.MethodGet, "/api/admin/status", nil))
	var status map[string]bool
	json.NewDecoder(rec.Body).Decode(&status)
	if status["configured"] {
		t.Fatal("admin configured before setup")
	}

	body := bytes.NewBufferString(`{"username":"admin","password":"password1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/setup", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	HandleAdminSetup(app)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("setup status = %d: %s", rec.Code, rec.Body.String())
	}

	// Second setup must be rejected.
	body = bytes.NewBufferString(`{"username":"other","password":"password2"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/admin/setup", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	HandleAdminSetup(app)(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("second setup status = %d", rec.Code)
	}

	body = bytes.NewBufferString(`{"username":"admin","password":"password1"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/admin/login", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	HandleAdminLogin(app)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var loginResp AdminLoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&loginResp); err != nil {
		t.Fatal(err)
	}
	if loginResp.Session == nil || len(loginResp.Session.ID) != 64 {
		t.Errorf("unexpected session: %+v", loginResp.Session)
	}

	body = bytes.NewBufferString(`{"username":"admin","password":"wrong-pass1"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/admin/login", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	HandleAdminLogin(app)(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d", rec.Code)
	}
}

func TestAdminLogout(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	rec := httptest.NewRecorder()
	HandleAdminLogout(app)(rec, authedRequest(http.MethodPost, "/api/admin/logout", token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HandlePresentations(app)(rec, authedRequest(http.MethodGet, "/api/presentations", token, nil, ""))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("post-logout status = %d, want 401", rec.Code)
	}
}

func TestPresentationsRequireSession(t *testing.T) {
	app := newTestApp(t)
	rec := httptest.NewRecorder()
	HandlePresentations(app)(rec, httptest.NewRequest(http.MethodGet, "/api/presentations", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

const testPresentationXML = `<?xml version="1.0"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:sldSz cx="12192000" cy="6858000"/>
</p:presentation>`

const testSlideXML = `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>
    <p:sp>
      <p:spPr><a:xfrm>
        <a:off x="0" y="0"/><a:ext cx="6096000" cy="3429000"/>
      </a:xfrm></p:spPr>
      <p:txBody><a:p><a:r><a:t>Quarterly Review</a:t></a:r></a:p></p:txBody>
    </p:sp>
  </p:spTree></p:cSld>
</p:sld>`

func buildTestPackage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"ppt/presentation.xml":  testPresentationXML,
		"ppt/slides/slide1.xml": testSlideXML,
	}
	for name, content := range parts {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		f.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartUpload(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

// sseEvents parses the recorded SSE stream into event name / data pairs.
func sseEvents(body string) [][2]string {
	var events [][2]string
	var current [2]string
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "event: "):
			current[0] = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current[1] = strings.TrimPrefix(line, "data: ")
			events = append(events, current)
			current = [2]string{}
		}
	}
	return events
}

func TestImportStreamsProgressAndPersists(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	body, ct := multipartUpload(t, "review.pptx", buildTestPackage(t))
	rec := httptest.NewRecorder()
	HandleImport(app)(rec, authedRequest(http.MethodPost, "/api/presentations/import", token, body, ct))

	events := sseEvents(rec.Body.String())
	if len(events) < 2 {
		t.Fatalf("too few SSE events: %q", rec.Body.String())
	}
	var sawProgress bool
	for _, ev := range events[:len(events)-1] {
		if ev[0] == "progress" {
			sawProgress = true
		}
	}
	if !sawProgress {
		t.Error("no progress events streamed")
	}

	last := events[len(events)-1]
	if last[0] != "done" {
		t.Fatalf("final event = %q, want done: %s", last[0], last[1])
	}
	var pres model.Presentation
	if err := json.Unmarshal([]byte(last[1]), &pres); err != nil {
		t.Fatal(err)
	}
	if pres.Name != "review" || pres.SlideCount != 1 {
		t.Errorf("done payload = %+v", pres)
	}
	if pres.Slides[0].Title != "Quarterly Review" {
		t.Errorf("slide title = %q", pres.Slides[0].Title)
	}

	// The deck must now be loadable through the API.
	rec = httptest.NewRecorder()
	HandlePresentationByID(app)(rec, authedRequest(http.MethodGet, "/api/presentations/"+pres.ID, token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
}

func TestUploadReturnsStoredPresentation(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	body, ct := multipartUpload(t, "review.pptx", buildTestPackage(t))
	rec := httptest.NewRecorder()
	HandleUpload(app)(rec, authedRequest(http.MethodPost, "/api/presentations/upload", token, body, ct))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var pres model.Presentation
	if err := json.NewDecoder(rec.Body).Decode(&pres); err != nil {
		t.Fatal(err)
	}
	if pres.SlideCount != 1 || !IsValidHexID(pres.ID) {
		t.Errorf("presentation = %+v", pres)
	}
	if _, err := app.store.Get(pres.ID); err != nil {
		t.Errorf("deck not persisted: %v", err)
	}
}

func TestUploadRejectsCorruptPackage(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	body, ct := multipartUpload(t, "junk.pptx", []byte("this is not a zip archive"))
	rec := httptest.NewRecorder()
	HandleUpload(app)(rec, authedRequest(http.MethodPost, "/api/presentations/upload", token, body, ct))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestImportRejectsCorruptPackage(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	body, ct := multipartUpload(t, "junk.pptx", []byte("this is not a zip archive"))
	rec := httptest.NewRecorder()
	HandleImport(app)(rec, authedRequest(http.MethodPost, "/api/presentations/import", token, body, ct))

	events := sseEvents(rec.Body.String())
	if len(events) == 0 {
		t.Fatalf("no SSE events: %q", rec.Body.String())
	}
	last := events[len(events)-1]
	if last[0] != "error" {
		t.Errorf("final event = %q, want error", last[0])
	}
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	body, ct := multipartUpload(t, "photo.png", []byte{0x89, 'P', 'N', 'G'})
	rec := httptest.NewRecorder()
	HandleImport(app)(rec, authedRequest(http.MethodPost, "/api/presentations/import", token, body, ct))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPresentationLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	pres := &model.Presentation{
		ID:         model.NewID(),
		Name:       "Roadmap",
		SlideCount: 1,
		Slides:     []model.Slide{{ID: model.NewID(), Type: model.SlideTypeCover, Title: "Roadmap"}},
	}
	if err := app.store.Save(pres); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	HandlePresentations(app)(rec, authedRequest(http.MethodGet, "/api/presentations", token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listResp struct {
		Presentations []model.Presentation `json:"presentations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listResp); err != nil {
		t.Fatal(err)
	}
	if len(listResp.Presentations) != 1 || listResp.Presentations[0].ID != pres.ID {
		t.Errorf("list = %+v", listResp.Presentations)
	}

	rec = httptest.NewRecorder()
	HandlePresentationByID(app)(rec, authedRequest(http.MethodDelete, "/api/presentations/"+pres.ID, token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HandlePresentationByID(app)(rec, authedRequest(http.MethodGet, "/api/presentations/"+pres.ID, token, nil, ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestPresentationByIDRejectsBadID(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	rec := httptest.NewRecorder()
	HandlePresentationByID(app)(rec, authedRequest(http.MethodGet, "/api/presentations/../etc/passwd", token, nil, ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestThumbnailsEmptyForFreshDeck(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	pres := &model.Presentation{ID: model.NewID(), Name: "Empty", SlideCount: 0}
	if err := app.store.Save(pres); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	HandlePresentationByID(app)(rec, authedRequest(http.MethodGet, "/api/presentations/"+pres.ID+"/thumbnails", token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Thumbnails []string `json:"thumbnails"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Thumbnails) != 0 {
		t.Errorf("thumbnails = %v", resp.Thumbnails)
	}
}

func TestSessionExpiryRejected(t *testing.T) {
	app := newTestApp(t)
	sm := auth.NewSessionManager(app.db, -time.Minute)
	session, err := sm.CreateSession("admin")
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	HandlePresentations(app)(rec, authedRequest(http.MethodGet, "/api/presentations", session.ID, nil, ""))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expired session status = %d", rec.Code)
	}
}
