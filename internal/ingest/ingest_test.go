package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/starford/albumdex/internal/albumservice"
	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/inference"
	inferencemocks "github.com/starford/albumdex/internal/inference/mocks"
	"github.com/starford/albumdex/internal/ingest"
	ingestmocks "github.com/starford/albumdex/internal/ingest/mocks"
	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/store"
	"github.com/starford/albumdex/internal/testutil"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fixture struct {
	db       *store.DB
	llm      *inferencemocks.MockService
	prompter *ingestmocks.MockPrompter
	scanner  *ingest.Scanner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	db := testutil.TestDB(t)
	llm := inferencemocks.NewMockService(ctrl)
	prompter := ingestmocks.NewMockPrompter(ctrl)
	svc := albumservice.New(db, albumservice.WithInference(llm), albumservice.WithAutoEnrich(false))
	return &fixture{
		db:       db,
		llm:      llm,
		prompter: prompter,
		scanner:  ingest.NewScanner(db, svc, llm, prompter),
	}
}

func TestScanAddsAlbumsAndMarksImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir, images := testutil.TestImageDir(t, map[string][]byte{
		"shelf.jpg":   []byte("jpeg bytes"),
		"notes.txt":   []byte("ignored"),
		".hidden.png": []byte("ignored"),
	})

	f.llm.EXPECT().ExtractCandidates(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, img inference.Image) ([]models.Candidate, error) {
			if string(img.Data) != "jpeg bytes" {
				t.Errorf("image data = %q", img.Data)
			}
			return []models.Candidate{
				{Name: "OK Computer", Artists: []string{"Radiohead"}},
				{Name: "Blue", Artists: []string{"Joni Mitchell"}},
			}, nil
		})
	f.prompter.EXPECT().AlbumDetails(gomock.Any(), gomock.Any(), models.Candidate{Name: "OK Computer", Artists: []string{"Radiohead"}}).
		Return(ingest.Details{Genre: "rock", Rating: 9}, nil)
	f.prompter.EXPECT().AlbumDetails(gomock.Any(), gomock.Any(), models.Candidate{Name: "Blue", Artists: []string{"Joni Mitchell"}}).
		Return(ingest.Details{Skip: true}, nil)

	sum, err := f.scanner.Scan(ctx, images)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if sum.Images != 1 || sum.Added != 1 || sum.Skipped != 1 || sum.Candidates != 2 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.RunID == "" {
		t.Error("run id not set")
	}

	a, err := f.db.GetByName(ctx, "OK Computer")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if a.Genre != "rock" || a.Rating != 9 || a.SourceImagePath != filepath.Join(dir, "shelf.jpg") {
		t.Errorf("stored album = %+v", a)
	}

	srcs, _ := f.db.ProcessedSources(ctx)
	if len(srcs) != 1 || srcs[0].AlbumsExtracted != 1 {
		t.Errorf("processed sources = %+v", srcs)
	}
}

func TestScanSkipsProcessedImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir, images := testutil.TestImageDir(t, map[string][]byte{"a.png": []byte("png")})
	if err := f.db.MarkSourceProcessed(ctx, models.ProcessedSource{Path: filepath.Join(dir, "a.png")}); err != nil {
		t.Fatal(err)
	}

	sum, err := f.scanner.Scan(ctx, images)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if sum.AlreadyProcessed != 1 || sum.Added != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestScanExtractionFailureLeavesImageUnmarked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir, images := testutil.TestImageDir(t, map[string][]byte{"a.jpg": []byte("x")})

	f.llm.EXPECT().ExtractCandidates(gomock.Any(), gomock.Any()).
		Return(nil, &apperr.InferenceError{Provider: "openai", Op: "extract", Err: errors.New("timeout")})

	sum, err := f.scanner.Scan(ctx, images)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if sum.Failed != 1 {
		t.Errorf("Failed = %d, want 1", sum.Failed)
	}
	done, _ := f.db.IsSourceProcessed(ctx, filepath.Join(dir, "a.jpg"))
	if done {
		t.Error("failed image must be retried on the next scan")
	}
}

func TestScanNoCandidatesStillMarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir, images := testutil.TestImageDir(t, map[string][]byte{"cat.jpg": []byte("x")})

	f.llm.EXPECT().ExtractCandidates(gomock.Any(), gomock.Any()).Return([]models.Candidate{}, nil)

	if _, err := f.scanner.Scan(ctx, images); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	done, _ := f.db.IsSourceProcessed(ctx, filepath.Join(dir, "cat.jpg"))
	if !done {
		t.Error("image with no albums should be marked processed")
	}
}

func TestScanCountsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, images := testutil.TestImageDir(t, map[string][]byte{"a.jpg": []byte("x")})
	if _, err := f.db.Insert(ctx, &models.Album{Name: "OK Computer", Artists: []string{"Radiohead"}, Genre: "rock"}); err != nil {
		t.Fatal(err)
	}

	f.llm.EXPECT().ExtractCandidates(gomock.Any(), gomock.Any()).
		Return([]models.Candidate{{Name: "ok  computer", Artists: []string{"RADIOHEAD"}}}, nil)
	f.prompter.EXPECT().AlbumDetails(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ingest.Details{Genre: "rock"}, nil)

	sum, err := f.scanner.Scan(ctx, images)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if sum.Duplicates != 1 || sum.Added != 0 {
		t.Errorf("summary = %+v", sum)
	}
	n, _ := f.db.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestScanAbortStops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir, images := testutil.TestImageDir(t, map[string][]byte{"a.jpg": []byte("a"), "b.jpg": []byte("b")})

	f.llm.EXPECT().ExtractCandidates(gomock.Any(), gomock.Any()).
		Return([]models.Candidate{{Name: "Blue", Artists: []string{"Joni Mitchell"}}}, nil)
	f.prompter.EXPECT().AlbumDetails(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ingest.Details{}, ingest.ErrAborted)

	_, err := f.scanner.Scan(ctx, images)
	if !errors.Is(err, ingest.ErrAborted) {
		t.Fatalf("Scan error = %v, want ErrAborted", err)
	}
	done, _ := f.db.IsSourceProcessed(ctx, filepath.Join(dir, "a.jpg"))
	if done {
		t.Error("aborted image must not be marked")
	}
}
