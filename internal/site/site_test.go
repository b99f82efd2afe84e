package site

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/storage"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func generate(t *testing.T, albums []models.Album, opts ...Option) (string, Result) {
	t.Helper()
	out := t.TempDir()
	fs, err := storage.NewFS(out)
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	g, err := New(fs, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := g.Generate(context.Background(), albums)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out, res
}

func read(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("missing %s: %v", name, err)
	}
	return string(data)
}

func TestGenerateWritesPageTree(t *testing.T) {
	cover := filepath.Join(t.TempDir(), "shelf.png")
	if err := os.WriteFile(cover, pngBytes(t, 800, 600), 0o644); err != nil {
		t.Fatal(err)
	}
	albums := []models.Album{
		{
			ID: 1, Name: "OK Computer", Artists: []string{"Radiohead"}, Genre: "alternative rock", Rating: 9,
			ReleaseDate: "1997-05-21", AlbumReview: "A *landmark* record.",
			LLMCategories: []string{"concept album"}, UserCategories: []string{"Concept Album"},
			SourceImagePath: cover,
		},
		{ID: 2, Name: "Kid A", Artists: []string{"Radiohead"}, Genre: "Alternative Rock", Rating: 10, ReleaseDate: "2000", SourceImagePath: cover},
		{ID: 3, Name: "Untitled", Genre: "ambient", SourceImagePath: "/does/not/exist.jpg"},
	}
	out, res := generate(t, albums, WithTitle("My Shelf", "records"))

	if res.Albums != 3 || res.Thumbnails != 1 {
		t.Errorf("result = %+v", res)
	}
	for _, name := range []string{
		"index.html", "style.css", "data.json",
		"albums/1.html", "albums/2.html", "albums/3.html",
		"artists/index.html", "artists/radiohead.html",
		"genres/index.html", "genres/alternative-rock.html", "genres/ambient.html",
		"years/index.html", "years/1990s.html", "years/2000s.html",
		"categories/index.html", "categories/concept-album.html",
	} {
		read(t, out, name)
	}

	index := read(t, out, "index.html")
	if !strings.Contains(index, "My Shelf") || !strings.Contains(index, "9.5") {
		t.Errorf("index missing title or average rating:\n%s", index)
	}

	page := read(t, out, "albums/1.html")
	if !strings.Contains(page, "<em>landmark</em>") {
		t.Error("review markdown not rendered")
	}
	if strings.Contains(page, "Label") || strings.Contains(page, "Producer") {
		t.Error("absent fields should be omitted")
	}
	if !strings.Contains(page, `href="../artists/radiohead.html"`) {
		t.Error("artist link missing")
	}
	if strings.Count(page, "categories/concept-album.html") != 1 {
		t.Error("categories differing only by case should be listed once")
	}

	genre := read(t, out, "genres/alternative-rock.html")
	if !strings.Contains(genre, "Alternative Rock") || !strings.Contains(genre, "Kid A") || !strings.Contains(genre, "OK Computer") {
		t.Errorf("genre page did not merge case variants:\n%s", genre)
	}

	thumbs, _ := filepath.Glob(filepath.Join(out, "thumbs", "*.jpg"))
	if len(thumbs) != 1 {
		t.Errorf("thumbnails = %v", thumbs)
	}
	if strings.Contains(read(t, out, "albums/3.html"), "thumbs/") {
		t.Error("missing cover should render without a thumbnail")
	}
}

func TestGenerateDataJSON(t *testing.T) {
	albums := []models.Album{
		{ID: 4, Name: "Blue", Artists: []string{"Joni Mitchell"}, Genre: "folk", ReleaseDate: "1971"},
		{ID: 7, Name: "Court and Spark", Artists: []string{"Joni Mitchell"}, Genre: "folk"},
	}
	out, _ := generate(t, albums, WithThumbnailSize(0))

	var data struct {
		Albums  []models.Album     `json:"albums"`
		Stats   Stats              `json:"stats"`
		Artists map[string][]int64 `json:"artists"`
		Decades map[string][]int64 `json:"decades"`
	}
	if err := json.Unmarshal([]byte(read(t, out, "data.json")), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Albums) != 2 || data.Stats.Albums != 2 || data.Stats.Artists != 1 {
		t.Errorf("data = %+v", data)
	}
	if got := data.Artists["Joni Mitchell"]; len(got) != 2 || got[0] != 4 || got[1] != 7 {
		t.Errorf("artists index = %v", got)
	}
	if got := data.Decades["1970s"]; len(got) != 1 || got[0] != 4 {
		t.Errorf("decades index = %v", got)
	}
}

func TestGenerateEmptyCatalog(t *testing.T) {
	out, res := generate(t, nil)
	if res.Albums != 0 {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(read(t, out, "index.html"), "No albums yet") {
		t.Error("empty index should say so")
	}
}

func TestDecadeOf(t *testing.T) {
	tests := map[string]string{
		"1997":         "1990s",
		"1997-05-21":   "1990s",
		"May 21, 2001": "2000s",
		"":             "",
		"unknown":      "",
	}
	for in, want := range tests {
		if got := decadeOf(in); got != want {
			t.Errorf("decadeOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateRemovesStalePages(t *testing.T) {
	out := t.TempDir()
	dir, err := storage.NewFS(out)
	if err != nil {
		t.Fatal(err)
	}
	g, err := New(dir, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	albums := []models.Album{
		{ID: 1, Name: "Blue", Artists: []string{"Joni Mitchell"}, Genre: "folk"},
		{ID: 2, Name: "Hejira", Artists: []string{"Joni Mitchell"}, Genre: "jazz"},
	}
	if _, err := g.Generate(ctx, albums); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	for name, content := range map[string]string{
		"artists/old-band.html": "stale",
		"albums/README.txt":     "keep",
		"notes.html":            "keep",
	} {
		if err := dir.Write(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	res, err := g.Generate(ctx, albums[:1])
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	// albums/2.html, genres/jazz.html and the stray artist page.
	if res.Removed != 3 {
		t.Errorf("Removed = %d, want 3", res.Removed)
	}
	for _, gone := range []string{"albums/2.html", "genres/jazz.html", "artists/old-band.html"} {
		if _, err := os.Stat(filepath.Join(out, gone)); !os.IsNotExist(err) {
			t.Errorf("%s should have been removed (stat err = %v)", gone, err)
		}
	}
	for _, kept := range []string{"albums/1.html", "genres/folk.html", "albums/README.txt", "notes.html", "index.html"} {
		read(t, out, kept)
	}
}
