// Package bdat decodes and encodes BDAT tabular data files, the binary
// table format used by Monolith Soft's Xenoblade Chronicles games,
// across both the modern (64-bit era) and legacy (Wii/Wii-U/Switch)
// dialects.
package bdat

import (
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/go-kratos/kratos/v2/log"
)

// Source is an open BDAT file, memory-mapped for zero-copy decoding.
type Source struct {
	Tables []*Table

	data   mmap.MMap
	f      *os.File
	opts   *OpenOptions
	logger *log.Helper
}

// OpenOptions configures how a Source is opened and decoded.
type OpenOptions struct {
	// Dialect, if set, is used instead of Detect for legacy files where
	// detection cannot tell Wii and Wii-U apart (see Detect).
	Dialect *Dialect

	// Logger, if set, receives structured diagnostics during decoding.
	// Defaults to a filtered stdout logger at error level, matching the
	// teacher library's own default.
	Logger log.Logger
}

func (o *OpenOptions) logHelper() *log.Helper {
	if o.Logger != nil {
		return log.NewHelper(o.Logger)
	}
	logger := log.NewStdLogger(os.Stdout)
	return log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelError)))
}

// Open memory-maps the file at name and decodes every table inside it.
func Open(name string, opts *OpenOptions) (*Source, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	src, err := newSource(data, opts)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	src.data = data
	src.f = f
	return src, nil
}

// OpenBytes decodes every table in an in-memory BDAT file without
// touching the filesystem.
func OpenBytes(data []byte, opts *OpenOptions) (*Source, error) {
	return newSource(data, opts)
}

// OpenReader decodes every table from an arbitrary BDAT stream (§6).
// Unlike Open, the returned Source owns a plain in-memory copy (§5)
// rather than a memory mapping, since an io.Reader has no file to map.
func OpenReader(r io.Reader, opts *OpenOptions) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return newSource(data, opts)
}

func newSource(data []byte, opts *OpenOptions) (*Source, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}
	src := &Source{opts: opts, logger: opts.logHelper()}

	dialect, err := Detect(data)
	if err != nil {
		return nil, err
	}
	if dialect.IsLegacy() && opts.Dialect != nil {
		dialect = *opts.Dialect
	}
	src.logger.Debugf("decoding bdat source as %s", dialect)

	var tables []*Table
	if dialect == DialectModern {
		tables, err = DecodeModern(data)
	} else {
		tables, err = DecodeLegacy(data, dialect)
	}
	if err != nil {
		src.logger.Errorf("decoding bdat source: %v", err)
		return nil, err
	}
	src.Tables = tables
	return src, nil
}

// Close releases the Source's memory mapping, if it owns one.
func (s *Source) Close() error {
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			return err
		}
	}
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

// Table looks up a decoded table by name, comparing by value (see
// Label.CmpValue).
func (s *Source) Table(name Label) (*Table, bool) {
	for _, t := range s.Tables {
		if t.Name.CmpValue(name) == 0 {
			return t, true
		}
	}
	return nil, false
}
