// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes catalog tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/albumdex/internal/albumservice"
	"github.com/starford/albumdex/internal/apperr"
	"github.com/starford/albumdex/internal/inference"
	"github.com/starford/albumdex/internal/lock"
	"github.com/starford/albumdex/internal/models"
)

const guideURI = "albumdex://album-record"

// Catalog is the album service the tools call into.
type Catalog interface {
	Resolve(ctx context.Context, ref string) (*models.Album, error)
	Search(ctx context.Context, f models.Filter) ([]models.Album, error)
	Missing(ctx context.Context, id int64) (*models.Album, models.FieldSet, error)
	Enrich(ctx context.Context, id int64, force bool) (*models.Album, error)
	AddAlbum(ctx context.Context, a models.Album) (int64, models.AddStatus, error)
	FindExisting(ctx context.Context, name string, artists []string) (*models.Album, bool, error)
}

var _ Catalog = (*albumservice.Service)(nil)

// Categories exposes the user-category vocabulary.
type Categories interface {
	List() []string
}

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp      *server.MCPServer
	svc      Catalog
	cats     Categories
	llm      inference.Service
	lockPath string
	fetch    func(string) ([]byte, string, error)
}

// Option customizes the server.
type Option func(*Server)

// WithInference enables the extract_albums tool.
func WithInference(llm inference.Service) Option {
	return func(s *Server) { s.llm = llm }
}

// WithLockPath sets the catalog lock taken by mutating tools.
func WithLockPath(path string) Option {
	return func(s *Server) { s.lockPath = path }
}

// New creates a new MCP server with all catalog tools registered.
func New(svc Catalog, cats Categories, version string, opts ...Option) *Server {
	s := &Server{svc: svc, cats: cats, fetch: fetchImage}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		"albumdex",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_albums",
		mcp.WithDescription("Search the album catalog. All criteria are optional substring matches; "+
			"ratings are inclusive bounds."),
		mcp.WithString("name", mcp.Description("Album name substring")),
		mcp.WithString("artist", mcp.Description("Artist substring")),
		mcp.WithString("genre", mcp.Description("Genre substring")),
		mcp.WithString("category", mcp.Description("Substring of an LLM or user category")),
		mcp.WithNumber("rating_min", mcp.Description("Minimum rating (1-10)")),
		mcp.WithNumber("rating_max", mcp.Description("Maximum rating (1-10)")),
		mcp.WithString("sort", mcp.Description("Sort key"), mcp.Enum(models.SortKeys...)),
	), s.searchAlbums)

	s.mcp.AddTool(mcp.NewTool("get_album",
		mcp.WithDescription("Get one album by numeric id or exact name."),
		mcp.WithString("album", mcp.Required(), mcp.Description("Album id or exact name")),
	), s.getAlbum)

	s.mcp.AddTool(mcp.NewTool("missing_fields",
		mcp.WithDescription("List the enrichable fields an album lacks."),
		mcp.WithString("album", mcp.Required(), mcp.Description("Album id or exact name")),
	), s.missingFields)

	s.mcp.AddTool(mcp.NewTool("enrich_album",
		mcp.WithDescription("Fill an album's missing fields from the inference service. "+
			"With force, every field the service returns is overwritten."),
		mcp.WithString("album", mcp.Required(), mcp.Description("Album id or exact name")),
		mcp.WithBoolean("force", mcp.Description("Refresh every field")),
	), s.enrichAlbum)

	s.mcp.AddTool(mcp.NewTool("add_album",
		mcp.WithDescription("Add an album unless the catalog already has it. "+
			"Read the albumdex://album-record resource for the record format."),
		mcp.WithString("album_name", mcp.Required(), mcp.Description("Album name")),
		mcp.WithArray("artists", mcp.Description("Artist names"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("genre", mcp.Required(), mcp.Description("Genre")),
		mcp.WithNumber("rating", mcp.Description("Rating 1-10")),
	), s.addAlbum)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the user-category vocabulary albums can be classified into."),
	), s.listCategories)

	if s.llm != nil {
		s.mcp.AddTool(mcp.NewTool("extract_albums",
			mcp.WithDescription("Identify albums shown in an image and report which are already cataloged. "+
				"Nothing is added."),
			mcp.WithString("url", mcp.Required(), mcp.Description("HTTP(S) URL or base64 data URI of the image")),
		), s.extractAlbums)
	}

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Album Record",
			mcp.WithResourceDescription("Fields of an album record and how enrichment fills them."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuide,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("album not found")
	case errors.Is(err, apperr.ErrLocked):
		return mcp.NewToolResultError("catalog is locked by another process, try again later")
	}
	return mcp.NewToolResultError(err.Error())
}

// withLock runs fn while holding the catalog lock, if one is configured.
func (s *Server) withLock(fn func() (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	if s.lockPath == "" {
		return fn()
	}
	l, err := lock.Acquire(s.lockPath)
	if err != nil {
		return toolError(err), nil
	}
	defer l.Release()
	return fn()
}

func (s *Server) searchAlbums(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sort, err := models.ParseSortKey(req.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	albums, err := s.svc.Search(ctx, models.Filter{
		Name:      req.GetString("name", ""),
		Artist:    req.GetString("artist", ""),
		Genre:     req.GetString("genre", ""),
		Category:  req.GetString("category", ""),
		RatingMin: req.GetInt("rating_min", 0),
		RatingMax: req.GetInt("rating_max", 0),
		Sort:      sort,
	})
	if err != nil {
		return toolError(err), nil
	}
	if albums == nil {
		albums = []models.Album{}
	}
	return jsonResult(albums)
}

func (s *Server) getAlbum(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("album")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.svc.Resolve(ctx, ref)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(a)
}

func (s *Server) missingFields(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("album")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.svc.Resolve(ctx, ref)
	if err != nil {
		return toolError(err), nil
	}
	_, missing, err := s.svc.Missing(ctx, a.ID)
	if err != nil {
		return toolError(err), nil
	}
	if len(missing) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s has every enrichable field", a.Name)), nil
	}
	return mcp.NewToolResultText(strings.Join(missing.Strings(), "\n")), nil
}

func (s *Server) enrichAlbum(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("album")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	force := req.GetBool("force", false)
	return s.withLock(func() (*mcp.CallToolResult, error) {
		a, err := s.svc.Resolve(ctx, ref)
		if err != nil {
			return toolError(err), nil
		}
		a, err = s.svc.Enrich(ctx, a.ID, force)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(a)
	})
}

func (s *Server) addAlbum(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("album_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	genre, err := req.RequireString("genre")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a := models.Album{
		Name:    name,
		Artists: req.GetStringSlice("artists", []string{}),
		Genre:   genre,
		Rating:  req.GetInt("rating", 0),
	}
	return s.withLock(func() (*mcp.CallToolResult, error) {
		id, status, err := s.svc.AddAlbum(ctx, a)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(map[string]any{"id": id, "status": status})
	})
}

func (s *Server) listCategories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.cats == nil || len(s.cats.List()) == 0 {
		return mcp.NewToolResultText("no user categories configured"), nil
	}
	return mcp.NewToolResultText(strings.Join(s.cats.List(), "\n")), nil
}

type extracted struct {
	models.Candidate
	ExistingID *int64 `json:"existing_id,omitempty"`
}

func (s *Server) extractAlbums(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, name, err := s.fetch(rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cands, err := s.llm.ExtractCandidates(ctx, inference.Image{Path: name, Data: data})
	if err != nil {
		return toolError(err), nil
	}

	out := make([]extracted, 0, len(cands))
	for _, c := range cands {
		e := extracted{Candidate: c}
		existing, found, err := s.svc.FindExisting(ctx, c.Name, c.Artists)
		if err != nil {
			return toolError(err), nil
		}
		if found {
			id := existing.ID
			e.ExistingID = &id
		}
		out = append(out, e)
	}
	return jsonResult(out)
}

func (s *Server) readGuide(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     FieldGuide,
		},
	}, nil
}
