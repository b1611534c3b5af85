package rss

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"iplayercast/internal/catalog"
	"iplayercast/internal/config"
	"iplayercast/internal/fileutil"
	"iplayercast/internal/logging"
)

const (
	// FileName is the rendered feed inside each feed directory.
	FileName = "feed.xml"
	// DateLayout formats channel and item dates. Times are converted to UTC first.
	DateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

	channelDescription = "iplayercast custom feed"
	placeholderLength  = 1024
)

type document struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title         string `xml:"title"`
	Description   string `xml:"description"`
	LastBuildDate string `xml:"lastBuildDate"`
	PubDate       string `xml:"pubDate"`
	Items         []item `xml:"item"`
}

type item struct {
	Title       string     `xml:"title"`
	Description string     `xml:"description"`
	GUID        guid       `xml:"guid"`
	PubDate     string     `xml:"pubDate"`
	Enclosure   *enclosure `xml:"enclosure"`
}

type guid struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type enclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Option configures the renderer.
type Option func(*Renderer)

// WithClock overrides the clock used for channel dates.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// Renderer builds feed documents.
type Renderer struct {
	baseURL string
	now     func() time.Time
	logger  *slog.Logger
}

// New constructs a renderer publishing enclosures under baseURL.
func New(baseURL string, logger *slog.Logger, opts ...Option) (*Renderer, error) {
	baseURL = strings.TrimSpace(baseURL)
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	r := &Renderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		logger:  logging.NewComponentLogger(logger, "rss"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render writes the document for feed to w. feedDir is where the feed's
// media lives and is used to size enclosures; a missing file gets a
// placeholder length and a warning.
func (r *Renderer) Render(ctx context.Context, w io.Writer, feed config.Feed, feedDir string, cat *catalog.Catalog) error {
	if cat == nil {
		cat = catalog.New()
	}
	now := formatDate(r.now())
	doc := document{
		Version: "2.0",
		Channel: channel{
			Title:         feed.Name,
			Description:   channelDescription,
			LastBuildDate: now,
			PubDate:       now,
		},
	}
	for _, p := range cat.Programmes() {
		it := item{
			Title:       p.Title(),
			Description: p.Description,
			GUID:        guid{IsPermaLink: "false", Value: p.PID},
			PubDate:     formatDate(p.FirstSeen),
		}
		if p.Downloaded {
			enc, err := r.enclosure(ctx, feed, feedDir, p)
			if err != nil {
				return err
			}
			it.Enclosure = enc
		}
		doc.Channel.Items = append(doc.Channel.Items, it)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush feed: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile renders feed into feedDir/feed.xml, replacing any previous
// document atomically. It returns the written path.
func (r *Renderer) WriteFile(ctx context.Context, feed config.Feed, feedDir string, cat *catalog.Catalog) (string, error) {
	if err := os.MkdirAll(feedDir, 0o755); err != nil {
		return "", fmt.Errorf("create feed directory: %w", err)
	}
	path := filepath.Join(feedDir, FileName)
	err := fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return r.Render(ctx, w, feed, feedDir, cat)
	})
	if err != nil {
		return "", err
	}
	logging.WithContext(ctx, r.logger).Info("feed written",
		logging.String("path", path),
		logging.Int("items", cat.Len()),
	)
	return path, nil
}

func (r *Renderer) enclosure(ctx context.Context, feed config.Feed, feedDir string, p catalog.Programme) (*enclosure, error) {
	link, err := url.JoinPath(r.baseURL, feed.OutputDir, p.Filename)
	if err != nil {
		return nil, fmt.Errorf("enclosure url for %s: %w", p.PID, err)
	}
	length := int64(placeholderLength)
	info, err := os.Stat(filepath.Join(feedDir, p.Filename))
	switch {
	case err == nil && info.Mode().IsRegular():
		length = info.Size()
	default:
		if err == nil {
			err = errors.New("not a regular file")
		}
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "programme file missing", "enclosure_size_unavailable",
			logging.PID(p.PID),
			logging.String("filename", p.Filename),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "restore the media file or remove the programme from history"),
			logging.String(logging.FieldImpact, "enclosure length uses a placeholder"),
		)
	}
	return &enclosure{
		URL:    link,
		Length: length,
		Type:   mediaType(p.Filename),
	}, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// mediaType returns the last dot-separated segment of filename.
func mediaType(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i+1:]
	}
	return filename
}
