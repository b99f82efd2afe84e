package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/starford/albumdex/internal/albumservice"
	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/inference/mocks"
	"github.com/starford/albumdex/internal/lock"
	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/store"
	"github.com/starford/albumdex/internal/testutil"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type staticCategories []string

func (c staticCategories) List() []string { return c }

type countingObserver struct{ ok, failed int }

func (o *countingObserver) ObserveEnrich(err error) {
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

type testEnv struct {
	db       *store.DB
	llm      *mocks.MockService
	router   http.Handler
	observer *countingObserver
	lockPath string
}

// newTestEnv sets up a SQLite DB, album service and router. An empty
// token means auth is disabled.
func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	db := testutil.TestDB(t)
	llm := mocks.NewMockService(ctrl)
	svc := albumservice.New(db, albumservice.WithInference(llm), albumservice.WithAutoEnrich(false))
	obs := &countingObserver{}
	lockPath := filepath.Join(t.TempDir(), "albums.db.lock")
	router := NewRouter(svc, staticCategories{"road trip", "rainy day"}, Options{
		AuthEnabled: token != "",
		Token:       token,
		LockPath:    lockPath,
		Observer:    obs,
	})
	return &testEnv{db: db, llm: llm, router: router, observer: obs, lockPath: lockPath}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) insert(t *testing.T, a models.Album) int64 {
	t.Helper()
	id, err := e.db.Insert(context.Background(), &a)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return id
}

func TestCreateAndGetAlbum(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/albums", AddAlbumRequest{Name: "OK Computer", Artists: []string{"Radiohead"}, Genre: "rock"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var added AddAlbumResponse
	_ = json.Unmarshal(w.Body.Bytes(), &added)
	if added.Status != models.StatusAdded || added.ID == 0 {
		t.Fatalf("create response = %+v", added)
	}

	w = env.do(t, http.MethodGet, "/albums/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var a models.Album
	_ = json.Unmarshal(w.Body.Bytes(), &a)
	if a.Name != "OK Computer" || a.Genre != "rock" {
		t.Errorf("album = %+v", a)
	}
}

func TestCreateDuplicateReturnsExistingID(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.insert(t, models.Album{Name: "OK Computer", Artists: []string{"Radiohead"}, Genre: "rock"})

	w := env.do(t, http.MethodPost, "/albums", AddAlbumRequest{Name: "ok computer", Artists: []string{"RADIOHEAD"}, Genre: "rock"})
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want 200", w.Code)
	}
	var resp AddAlbumResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.ID != id || resp.Status != models.StatusDuplicate {
		t.Errorf("duplicate response = %+v, want id %d", resp, id)
	}
}

func TestCreateAlbumValidation(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, http.MethodPost, "/albums", AddAlbumRequest{Name: "No Genre"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing genre = %d, want 400", w.Code)
	}
}

func TestListAlbumsFilters(t *testing.T) {
	env := newTestEnv(t, "")
	env.insert(t, models.Album{Name: "Blue", Artists: []string{"Joni Mitchell"}, Genre: "folk", Rating: 10})
	env.insert(t, models.Album{Name: "Kid A", Artists: []string{"Radiohead"}, Genre: "rock", Rating: 8})

	w := env.do(t, http.MethodGet, "/albums?genre=folk", nil)
	var resp AlbumListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || resp.Total != 1 || resp.Albums[0].Name != "Blue" {
		t.Errorf("genre filter = %d %+v", w.Code, resp)
	}

	w = env.do(t, http.MethodGet, "/albums?sort=rating", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || resp.Albums[0].Name != "Blue" {
		t.Errorf("rating sort = %+v", resp)
	}

	if w := env.do(t, http.MethodGet, "/albums?sort=label", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad sort = %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/albums?rating_min=x", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad rating = %d, want 400", w.Code)
	}
}

func TestUpdateAlbum(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.insert(t, models.Album{Name: "Kid A", Artists: []string{"Radiohead"}, Genre: "rock"})

	rating := 9
	w := env.do(t, http.MethodPatch, "/albums/1", UpdateAlbumRequest{Rating: &rating})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	a, _ := env.db.Get(context.Background(), id)
	if a.Rating != 9 {
		t.Errorf("rating = %d, want 9", a.Rating)
	}

	bad := 11
	if w := env.do(t, http.MethodPatch, "/albums/1", UpdateAlbumRequest{Rating: &bad}); w.Code != http.StatusBadRequest {
		t.Errorf("rating 11 = %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodPatch, "/albums/99", UpdateAlbumRequest{Rating: &rating}); w.Code != http.StatusNotFound {
		t.Errorf("missing album = %d, want 404", w.Code)
	}
}

func TestDeleteAlbum(t *testing.T) {
	env := newTestEnv(t, "")
	env.insert(t, models.Album{Name: "Kid A", Genre: "rock"})

	if w := env.do(t, http.MethodDelete, "/albums/1", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, want 204", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/albums/1", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/albums/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestMissingFields(t *testing.T) {
	env := newTestEnv(t, "")
	env.insert(t, models.Album{Name: "Kid A", Genre: "rock", ReleaseDate: "2000"})

	w := env.do(t, http.MethodGet, "/albums/1/missing", nil)
	var resp MissingResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || len(resp.Missing) != len(models.EnrichableFields)-1 {
		t.Errorf("missing = %d %+v", w.Code, resp)
	}
	if resp.Missing[0] != "label" {
		t.Errorf("first missing = %q, want label", resp.Missing[0])
	}
}

func TestEnrichAlbum(t *testing.T) {
	env := newTestEnv(t, "")
	env.insert(t, models.Album{Name: "OK Computer", Artists: []string{"Radiohead"}, Genre: "rock"})

	env.llm.EXPECT().FetchMetadata(gomock.Any(), "OK Computer", []string{"Radiohead"}, gomock.Any()).
		Return(models.Metadata{ReleaseDate: "1997", TrackCount: 12}, nil)

	w := env.do(t, http.MethodPost, "/albums/1/enrich", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("enrich = %d, body = %s", w.Code, w.Body.String())
	}
	var a models.Album
	_ = json.Unmarshal(w.Body.Bytes(), &a)
	if a.ReleaseDate != "1997" || a.TrackCount != 12 {
		t.Errorf("enriched album = %+v", a)
	}
	if env.observer.ok != 1 {
		t.Errorf("observer ok = %d, want 1", env.observer.ok)
	}
}

func TestEnrichAlbumInferenceFailure(t *testing.T) {
	env := newTestEnv(t, "")
	env.insert(t, models.Album{Name: "OK Computer", Artists: []string{"Radiohead"}, Genre: "rock"})

	env.llm.EXPECT().FetchMetadata(gomock.Any(), gomock.Any(), gomock.Any(), nil).
		Return(models.Metadata{}, &apperr.InferenceError{Provider: "openai", Op: "metadata", Err: errors.New("503")})

	w := env.do(t, http.MethodPost, "/albums/1/enrich?force=true", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("enrich failure = %d, want 502", w.Code)
	}
	if env.observer.failed != 1 {
		t.Errorf("observer failed = %d, want 1", env.observer.failed)
	}
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, http.MethodGet, "/categories", nil)
	var resp CategoriesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Categories) != 2 || resp.Categories[0] != "road trip" {
		t.Errorf("categories = %+v", resp)
	}
}

func TestMutationsFailWhileLocked(t *testing.T) {
	env := newTestEnv(t, "")
	l, err := lock.Acquire(env.lockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	w := env.do(t, http.MethodPost, "/albums", AddAlbumRequest{Name: "Blue", Genre: "folk"})
	if w.Code != http.StatusLocked {
		t.Errorf("locked create = %d, want 423", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/albums", nil); w.Code != http.StatusOK {
		t.Errorf("reads should not need the lock: %d", w.Code)
	}
}

func TestCover(t *testing.T) {
	env := newTestEnv(t, "")
	src := filepath.Join(t.TempDir(), "shelf.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 600, 400))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	env.insert(t, models.Album{Name: "Blue", Genre: "folk", SourceImagePath: src})
	env.insert(t, models.Album{Name: "Kid A", Genre: "rock"})

	w := env.do(t, http.MethodGet, "/albums/1/cover?size=100", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("cover = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	cfg, _, err := image.DecodeConfig(w.Body)
	if err != nil || cfg.Width != 100 {
		t.Errorf("thumbnail = %+v, %v", cfg, err)
	}
	if w := env.do(t, http.MethodGet, "/albums/2/cover", nil); w.Code != http.StatusNotFound {
		t.Errorf("no source image = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	env := newTestEnv(t, "secret123")
	w := env.do(t, http.MethodPost, "/albums", AddAlbumRequest{Name: "Blue", Genre: "folk"}, "Authorization", "Bearer secret123")
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	env := newTestEnv(t, "secret123")
	if w := env.do(t, http.MethodGet, "/albums", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	env := newTestEnv(t, "secret123")
	if w := env.do(t, http.MethodGet, "/albums", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	env := newTestEnv(t, "")
	if w := env.do(t, http.MethodGet, "/albums", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}
