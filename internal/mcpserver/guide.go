package mcpserver

// FieldGuide explains the album record to LLM clients.
const FieldGuide = `# albumdex Album Record

Each album is identified by its name and its list of artists. Matching is
case-insensitive, ignores punctuation and ignores artist order, so
"OK Computer" by "Radiohead" and "ok computer" by "RADIOHEAD" are the same album.

## Fields set by the user

- ` + "`album_name`" + ` (required), ` + "`artists`" + ` (may be empty)
- ` + "`genre`" + ` (required, free text)
- ` + "`rating`" + ` (optional, integer 1-10)
- ` + "`personal_notes`" + ` (optional)

## Enrichable fields

` + "`release_date`, `label`, `producer`, `total_duration`, `track_count`, `track_listing`,\n`album_review`, `musical_style`, `similar_artists`, `awards`, `llm_categories`" + `

Absent fields are omitted from responses. Use ` + "`missing_fields`" + ` to see which
fields an album lacks and ` + "`enrich_album`" + ` to fill them. Enrichment only writes
missing fields unless ` + "`force`" + ` is true.

## User categories

` + "`user_categories`" + ` is always a subset of the configured vocabulary
(see ` + "`list_categories`" + `). It is assigned during enrichment when the album has a
review or a musical style, and is replaced wholesale each time.
`
