// Package source loads run files from local paths, standard input or remote
// URLs.
//
// [Open] picks the source from its argument:
//
//	https://host/results.json           HTTP(S) download, cached
//	hf://datasets/owner/name/file.json  file in a Hugging Face dataset repo
//	-                                   standard input
//	anything else                       local file path
//
// Remote downloads go through [httputil.Client] with retry and are cached
// in a [cache.Cache] keyed by URL. Only documents that decode as run files
// are cached.
package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hopgraph/pkg/cache"
	"github.com/matzehuels/hopgraph/pkg/errors"
	"github.com/matzehuels/hopgraph/pkg/httputil"
	"github.com/matzehuels/hopgraph/pkg/observability"
	"github.com/matzehuels/hopgraph/pkg/runs"
)

// Sentinel errors, matched with errors.Is from the standard library.
var (
	ErrNotFound = httputil.ErrNotFound
	ErrNetwork  = httputil.ErrNetwork
)

// StdinName is the argument that selects standard input.
const StdinName = "-"

// Source produces a results file.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Load reads and decodes the run file.
	Load(ctx context.Context) (*runs.ResultsFile, error)
}

// Options configures remote sources. Local sources ignore everything but
// Stdin.
type Options struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	CacheTTL   time.Duration
	// Cache stores downloads; nil disables caching.
	Cache cache.Cache
	// Refresh bypasses cached entries but still updates the cache.
	Refresh bool
	Headers map[string]string
	Stdin   io.Reader
	Logger  *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Retries <= 0 {
		o.Retries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Open returns the source named by arg.
func Open(arg string, opts Options) (Source, error) {
	opts = opts.withDefaults()
	switch {
	case arg == "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "no run source given")
	case arg == StdinName:
		return &Reader{name: "stdin", r: opts.Stdin}, nil
	case strings.HasPrefix(arg, "hf://"):
		url, err := HubURL(arg)
		if err != nil {
			return nil, err
		}
		return NewHTTP(url, opts), nil
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		if err := errors.ValidateURL(arg); err != nil {
			return nil, err
		}
		return NewHTTP(arg, opts), nil
	default:
		if err := errors.ValidateFilePath(arg); err != nil {
			return nil, err
		}
		return File(arg), nil
	}
}

// Load is a shorthand for [Open] followed by [Source.Load].
func Load(ctx context.Context, arg string, opts Options) (*runs.ResultsFile, error) {
	src, err := Open(arg, opts)
	if err != nil {
		return nil, err
	}
	return src.Load(ctx)
}

// HubURL converts hf://datasets/<owner>/<name>/<path> into the download URL
// of that file on the main revision. A revision may be given as
// <name>@<rev>.
func HubURL(arg string) (string, error) {
	rest := strings.TrimPrefix(arg, "hf://")
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) < 4 || parts[0] != "datasets" || parts[1] == "" || parts[2] == "" || parts[3] == "" {
		return "", errors.New(errors.ErrCodeInvalidPath, "hub path %q must look like hf://datasets/<owner>/<name>/<file>", arg)
	}
	name, rev := parts[2], "main"
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name, rev = name[:i], name[i+1:]
		if name == "" || rev == "" {
			return "", errors.New(errors.ErrCodeInvalidPath, "hub path %q has an empty name or revision", arg)
		}
	}
	return fmt.Sprintf("https://huggingface.co/datasets/%s/%s/resolve/%s/%s", parts[1], name, rev, parts[3]), nil
}

// File is a run file on disk.
type File string

func (f File) Name() string { return string(f) }

func (f File) Load(context.Context) (*runs.ResultsFile, error) {
	return runs.ReadFile(string(f))
}

// Reader decodes runs from an io.Reader such as standard input.
type Reader struct {
	name string
	r    io.Reader
}

// NewReader wraps r as a source called name.
func NewReader(name string, r io.Reader) *Reader {
	return &Reader{name: name, r: r}
}

func (s *Reader) Name() string { return s.name }

func (s *Reader) Load(context.Context) (*runs.ResultsFile, error) {
	return runs.Decode(s.r)
}

// HTTP downloads a run file, consulting the cache first.
type HTTP struct {
	url    string
	client *httputil.Client
	opts   Options
}

// NewHTTP creates an HTTP source for url.
func NewHTTP(url string, opts Options) *HTTP {
	opts = opts.withDefaults()
	return &HTTP{
		url:    url,
		client: httputil.NewClient(opts.Timeout, opts.Headers),
		opts:   opts,
	}
}

func (s *HTTP) Name() string { return s.url }

func (s *HTTP) Load(ctx context.Context) (*runs.ResultsFile, error) {
	key := cache.RunsKey(s.url)
	hooks := observability.Cache()
	logger := s.opts.Logger

	if !s.opts.Refresh {
		data, hit, err := s.opts.Cache.Get(ctx, key)
		if err != nil {
			logger.Warn("cache read failed", "url", s.url, "error", err)
		}
		if hit {
			if f, err := runs.Unmarshal(data); err == nil {
				hooks.OnCacheHit(ctx, "runs")
				logger.Debug("runs loaded from cache", "url", s.url, "bytes", len(data))
				return f, nil
			}
			_ = s.opts.Cache.Delete(ctx, key)
		}
		hooks.OnCacheMiss(ctx, "runs")
	}

	var data []byte
	err := httputil.Retry(ctx, s.opts.Retries, s.opts.RetryDelay, func() error {
		var err error
		data, err = s.client.Get(ctx, s.url)
		if err != nil && httputil.IsRetryable(err) {
			logger.Debug("fetch failed, retrying", "url", s.url, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, classify(s.url, err)
	}

	f, err := runs.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if err := s.opts.Cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		logger.Warn("cache write failed", "url", s.url, "error", err)
	} else {
		hooks.OnCacheSet(ctx, "runs", len(data))
	}
	logger.Debug("runs downloaded", "url", s.url, "bytes", len(data))
	return f, nil
}

func classify(url string, err error) error {
	switch {
	case stderrors.Is(err, ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, "runs at %s", url)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", url)
	case stderrors.Is(err, context.Canceled):
		return err
	default:
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url)
	}
}
