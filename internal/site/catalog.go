package site

import (
	"html/template"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/normalize"
)

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// Stats are the aggregate counts shown on the index page.
type Stats struct {
	Albums     int     `json:"total"`
	Artists    int     `json:"artist_count"`
	Genres     int     `json:"genre_count"`
	Categories int     `json:"category_count"`
	Rated      int     `json:"rated_count"`
	AvgRating  float64 `json:"avg_rating"`
}

type albumView struct {
	*models.Album
	Thumb  string
	Decade string
	Review template.HTML
	Notes  template.HTML

	ArtistLinks   []link
	GenreLink     *link
	DecadeLink    *link
	CategoryLinks []link
}

// link points at a group page relative to the site root.
type link struct {
	Name string
	Href string
}

// Group is a named set of albums, such as everything by one artist.
type Group struct {
	Name   string
	Title  string
	Slug   string
	Albums []*albumView
}

func (g *Group) ids() []int64 {
	out := make([]int64, len(g.Albums))
	for i, a := range g.Albums {
		out[i] = a.ID
	}
	return out
}

type catalog struct {
	albums     []*albumView
	artists    []*Group
	genres     []*Group
	decades    []*Group
	categories []*Group
	stats      Stats
}

func buildCatalog(albums []*albumView) *catalog {
	title := cases.Title(language.English)
	artists := newGrouper(func(s string) string { return s })
	genres := newGrouper(title.String)
	decades := newGrouper(func(s string) string { return s })
	categories := newGrouper(title.String)

	c := &catalog{albums: albums}
	var ratingSum int
	for _, a := range albums {
		for _, ar := range a.Artists {
			artists.add(ar, a)
		}
		genres.add(a.Genre, a)
		if a.Decade != "" {
			decades.add(a.Decade, a)
		}
		seen := make(map[string]bool)
		for _, cat := range append(append([]string{}, a.LLMCategories...), a.UserCategories...) {
			k := normalize.Key(cat)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			categories.add(cat, a)
		}
		if a.Rating > 0 {
			c.stats.Rated++
			ratingSum += a.Rating
		}
	}

	for _, a := range albums {
		for _, ar := range a.Artists {
			if l := artists.link("artists", ar); l != nil {
				a.ArtistLinks = append(a.ArtistLinks, *l)
			}
		}
		a.GenreLink = genres.link("genres", a.Genre)
		a.DecadeLink = decades.link("years", a.Decade)
		seen := make(map[string]bool)
		for _, cat := range append(append([]string{}, a.LLMCategories...), a.UserCategories...) {
			if l := categories.link("categories", cat); l != nil && !seen[l.Href] {
				seen[l.Href] = true
				a.CategoryLinks = append(a.CategoryLinks, *l)
			}
		}
	}

	c.artists = artists.sorted(false)
	c.genres = genres.sorted(false)
	c.decades = decades.sorted(true)
	c.categories = categories.sorted(false)

	c.stats.Albums = len(albums)
	c.stats.Artists = len(c.artists)
	c.stats.Genres = len(c.genres)
	c.stats.Categories = len(c.categories)
	if c.stats.Rated > 0 {
		c.stats.AvgRating = math.Round(float64(ratingSum)/float64(c.stats.Rated)*10) / 10
	}
	return c
}

// grouper buckets albums under case-insensitive keys, keeping the first
// spelling it saw as the display name.
type grouper struct {
	title  func(string) string
	groups map[string]*Group
	slugs  map[string]bool
	order  []string
}

func newGrouper(title func(string) string) *grouper {
	return &grouper{title: title, groups: make(map[string]*Group), slugs: make(map[string]bool)}
}

func (g *grouper) add(name string, a *albumView) {
	name = strings.TrimSpace(name)
	key := normalize.Key(name)
	if key == "" {
		return
	}
	grp, ok := g.groups[key]
	if !ok {
		grp = &Group{Name: name, Title: g.title(name), Slug: g.slug(key)}
		g.groups[key] = grp
		g.order = append(g.order, key)
	}
	for _, existing := range grp.Albums {
		if existing.ID == a.ID {
			return
		}
	}
	grp.Albums = append(grp.Albums, a)
}

func (g *grouper) link(dir, name string) *link {
	grp, ok := g.groups[normalize.Key(name)]
	if !ok {
		return nil
	}
	return &link{Name: grp.Title, Href: dir + "/" + grp.Slug + ".html"}
}

func (g *grouper) slug(key string) string {
	base := strings.ReplaceAll(key, " ", "-")
	s := base
	for i := 2; g.slugs[s]; i++ {
		s = base + "-" + strconv.Itoa(i)
	}
	g.slugs[s] = true
	return s
}

func (g *grouper) sorted(desc bool) []*Group {
	out := make([]*Group, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.groups[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if desc {
			return a > b
		}
		return a < b
	})
	return out
}

// decadeOf returns the decade label of the first four-digit year in a
// release date, or "" when there is none.
func decadeOf(releaseDate string) string {
	m := yearPattern.FindStringSubmatch(releaseDate)
	if m == nil {
		return ""
	}
	year, _ := strconv.Atoi(m[1])
	return strconv.Itoa(year/10*10) + "s"
}
