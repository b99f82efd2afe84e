package store

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/models"
)

func testDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "albumdex-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name(), opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insert(t *testing.T, db *DB, a models.Album) int64 {
	t.Helper()
	id, err := db.Insert(context.Background(), &a)
	if err != nil {
		t.Fatalf("Insert(%q): %v", a.Name, err)
	}
	return id
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM albums`).Scan(&count); err != nil {
		t.Fatalf("albums table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM processed_images`).Scan(&count); err != nil {
		t.Fatalf("processed_images table missing: %v", err)
	}
}

func TestMigrationsAreRepeatable(t *testing.T) {
	db := testDB(t)
	if err := migrate(db.conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestInsertAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := insert(t, db, models.Album{
		Name:         "OK Computer",
		Artists:      []string{"Radiohead"},
		Genre:        "rock",
		Rating:       9,
		TrackListing: []string{"Airbag", "Paranoid Android"},
	})

	a, err := db.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.Name != "OK Computer" || a.Genre != "rock" || a.Rating != 9 {
		t.Errorf("unexpected album: %+v", a)
	}
	if !reflect.DeepEqual(a.Artists, []string{"Radiohead"}) {
		t.Errorf("artists = %v", a.Artists)
	}
	if !reflect.DeepEqual(a.TrackListing, []string{"Airbag", "Paranoid Android"}) {
		t.Errorf("track_listing = %v", a.TrackListing)
	}
	if a.Label != "" || a.TrackCount != 0 || a.Awards != nil {
		t.Errorf("absent fields should stay empty: %+v", a)
	}
	if a.DateAdded.IsZero() || !a.DateAdded.Equal(a.LastUpdated) {
		t.Errorf("timestamps not set: added=%v updated=%v", a.DateAdded, a.LastUpdated)
	}
}

func TestGetNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get(context.Background(), 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetByName(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetByName error = %v, want ErrNotFound", err)
	}
}

func TestInsertLiteralDuplicateIsConstraintError(t *testing.T) {
	db := testDB(t)
	a := models.Album{Name: "Abbey Road", Artists: []string{"The Beatles"}, Genre: "rock"}
	insert(t, db, a)
	if _, err := db.Insert(context.Background(), &a); !errors.Is(err, apperr.ErrConstraint) {
		t.Errorf("second insert error = %v, want ErrConstraint", err)
	}

	// The literal backstop is not fuzzy.
	b := models.Album{Name: "abbey road", Artists: []string{"The Beatles"}, Genre: "rock"}
	if _, err := db.Insert(context.Background(), &b); err != nil {
		t.Errorf("case-different insert should pass the literal constraint: %v", err)
	}
}

func TestUpdateAppliesPatchAndRefreshesTimestamp(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	db := testDB(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()
	id := insert(t, db, models.Album{Name: "Kid A", Artists: []string{"Radiohead"}, Genre: "rock", Label: "Parlophone"})

	clock = clock.Add(time.Hour)
	rating := 8
	err := db.Update(ctx, id, models.Patch{
		Rating:            &rating,
		Metadata:          models.Metadata{ReleaseDate: "2000", TrackCount: 10, Awards: []string{"Grammy"}},
		MetadataFields:    []models.Field{models.FieldReleaseDate, models.FieldTrackCount, models.FieldAwards},
		UserCategories:    []string{"experimental"},
		SetUserCategories: true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	a, _ := db.Get(ctx, id)
	if a.Rating != 8 || a.ReleaseDate != "2000" || a.TrackCount != 10 {
		t.Errorf("patch not applied: %+v", a)
	}
	if a.Label != "Parlophone" {
		t.Errorf("unlisted field changed: label = %q", a.Label)
	}
	if !reflect.DeepEqual(a.UserCategories, []string{"experimental"}) {
		t.Errorf("user_categories = %v", a.UserCategories)
	}
	if !a.LastUpdated.After(a.DateAdded) {
		t.Errorf("last_updated %v not after date_added %v", a.LastUpdated, a.DateAdded)
	}
}

func TestUpdateNotFound(t *testing.T) {
	db := testDB(t)
	notes := "x"
	err := db.Update(context.Background(), 99, models.Patch{PersonalNotes: &notes})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
}

func TestSearchFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	insert(t, db, models.Album{Name: "OK Computer", Artists: []string{"Radiohead"}, Genre: "alternative rock", Rating: 9,
		LLMCategories: []string{"concept album"}})
	insert(t, db, models.Album{Name: "Blue", Artists: []string{"Joni Mitchell"}, Genre: "folk", Rating: 10})
	insert(t, db, models.Album{Name: "Computer World", Artists: []string{"Kraftwerk"}, Genre: "electronic", Rating: 7,
		UserCategories: []string{"road trip"}})

	tests := []struct {
		name   string
		filter models.Filter
		want   []string
	}{
		{"all", models.Filter{}, []string{"OK Computer", "Blue", "Computer World"}},
		{"name substring", models.Filter{Name: "computer"}, []string{"OK Computer", "Computer World"}},
		{"artist", models.Filter{Artist: "joni"}, []string{"Blue"}},
		{"genre", models.Filter{Genre: "rock"}, []string{"OK Computer"}},
		{"llm category", models.Filter{Category: "concept"}, []string{"OK Computer"}},
		{"user category", models.Filter{Category: "road"}, []string{"Computer World"}},
		{"rating bounds inclusive", models.Filter{RatingMin: 7, RatingMax: 9}, []string{"OK Computer", "Computer World"}},
		{"sort by name", models.Filter{Sort: models.SortByName}, []string{"Blue", "Computer World", "OK Computer"}},
		{"sort by rating", models.Filter{Sort: models.SortByRating}, []string{"Blue", "OK Computer", "Computer World"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Search(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			var names []string
			for _, a := range got {
				names = append(names, a.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("Search(%+v) = %v, want %v", tt.filter, names, tt.want)
			}
		})
	}
}

func TestDeleteAndCount(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	id := insert(t, db, models.Album{Name: "A", Genre: "g"})
	insert(t, db, models.Album{Name: "B", Genre: "g"})

	if err := db.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	n, err := db.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count = %d, %v; want 1", n, err)
	}
	if err := db.Delete(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}

	// Ids are never reused.
	next := insert(t, db, models.Album{Name: "C", Genre: "g"})
	if next <= id+1 {
		t.Errorf("new id %d reuses a previous id", next)
	}
}

func TestProcessedSources(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ok, err := db.IsSourceProcessed(ctx, "/img/a.jpg")
	if err != nil || ok {
		t.Fatalf("IsSourceProcessed before mark = %v, %v", ok, err)
	}
	if err := db.MarkSourceProcessed(ctx, models.ProcessedSource{Path: "/img/a.jpg", Checksum: "abc", AlbumsExtracted: 0}); err != nil {
		t.Fatalf("MarkSourceProcessed: %v", err)
	}
	if err := db.MarkSourceProcessed(ctx, models.ProcessedSource{Path: "/img/a.jpg", Checksum: "def", AlbumsExtracted: 2}); err != nil {
		t.Fatalf("MarkSourceProcessed overwrite: %v", err)
	}
	ok, _ = db.IsSourceProcessed(ctx, "/img/a.jpg")
	if !ok {
		t.Error("expected image to be processed")
	}

	srcs, err := db.ProcessedSources(ctx)
	if err != nil {
		t.Fatalf("ProcessedSources: %v", err)
	}
	if len(srcs) != 1 || srcs[0].AlbumsExtracted != 2 || srcs[0].Checksum != "def" {
		t.Errorf("ProcessedSources = %+v", srcs)
	}
}

func TestSearchMatchesHTMLSpecialCharacters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	insert(t, db, models.Album{Name: "Bookends", Artists: []string{"Simon & Garfunkel"}, Genre: "folk",
		UserCategories: []string{"rock & roll"}, LLMCategories: []string{"<live>"}})

	tests := []struct {
		name   string
		filter models.Filter
	}{
		{"artist with ampersand", models.Filter{Artist: "Simon & Garfunkel"}},
		{"user category with ampersand", models.Filter{Category: "rock & roll"}},
		{"llm category with angle brackets", models.Filter{Category: "<live>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Search(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(got) != 1 {
				t.Errorf("Search(%+v) hits = %d, want 1", tt.filter, len(got))
			}
		})
	}

	var raw string
	if err := db.conn.QueryRow(`SELECT artists FROM albums`).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	if raw != `["Simon & Garfunkel"]` {
		t.Errorf("artists column = %s, want unescaped JSON", raw)
	}
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	insert(t, db, models.Album{Name: "100% Hits", Genre: "pop"})
	insert(t, db, models.Album{Name: "1000 Hits", Genre: "pop_rock"})
	insert(t, db, models.Album{Name: "Other", Genre: "poprock"})

	got, err := db.Search(ctx, models.Filter{Name: "100%"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "100% Hits" {
		t.Errorf("name %% search = %+v, want only \"100%% Hits\"", got)
	}

	got, err = db.Search(ctx, models.Filter{Genre: "pop_rock"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Genre != "pop_rock" {
		t.Errorf("genre _ search = %+v, want only pop_rock", got)
	}
}
