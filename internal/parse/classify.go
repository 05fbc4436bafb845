package parse

import (
	"context"
	"io"
	"os"

	"github.com/go-json-experiment/json"
	"github.com/pkg/errors"
)

// ClassifyScanLines bounds how far Classify looks for a claude record.
const ClassifyScanLines = 200

// ErrUnknownDialect is returned for files matching neither log schema.
var ErrUnknownDialect = errors.New("unknown log format")

type typeTag struct {
	Type string `json:"type"`
}

// Classify inspects the first lines of the file at path and reports its dialect.
func Classify(path string) (Dialect, error) {
	f, err := os.Open(path)
	if err != nil {
		return DialectUnknown, err
	}
	defer f.Close()
	return ClassifyReader(f)
}

// ClassifyReader is Classify over an open stream.
func ClassifyReader(r io.Reader) (Dialect, error) {
	lines := NewLineReader(r)

	var first []byte
	for lines.Next() && lines.Line() <= ClassifyScanLines {
		line := lines.Bytes()
		if lines.Line() == 1 {
			first = append(first, line...)
		}
		var tag typeTag
		if err := json.Unmarshal(line, &tag, decodeOptions); err != nil {
			continue
		}
		if tag.Type == "user" || tag.Type == "assistant" {
			return DialectClaude, nil
		}
	}
	if err := lines.Err(); err != nil {
		return DialectUnknown, errors.Wrap(err, "read log")
	}

	var tag typeTag
	if err := json.Unmarshal(first, &tag, decodeOptions); err == nil && tag.Type == "session_meta" {
		return DialectCodex, nil
	}
	return DialectUnknown, nil
}

// Decoder returns the line decoder for a dialect, or nil for DialectUnknown.
func Decoder(d Dialect) func(line []byte, lineNum int) (Record, bool) {
	switch d {
	case DialectClaude:
		return DecodeClaude
	case DialectCodex:
		return DecodeCodex
	}
	return nil
}

// Visit decodes the file at path line by line and calls fn for every line in
// order. ok is false for lines that could not be decoded. Visit stops early
// when fn returns an error or ctx is done.
func Visit(ctx context.Context, path string, d Dialect, fn func(rec Record, ok bool) error) error {
	decode := Decoder(d)
	if decode == nil {
		return errors.Wrap(ErrUnknownDialect, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	lines := NewLineReader(f)
	for lines.Next() {
		if lines.Line()%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		var (
			rec Record
			ok  bool
		)
		if !lines.Oversized() {
			rec, ok = decode(lines.Bytes(), lines.Line())
		}
		if !ok {
			rec = Record{Line: lines.Line(), Kind: KindUnknown}
		}
		if err := fn(rec, ok); err != nil {
			return err
		}
	}
	if err := lines.Err(); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	return ctx.Err()
}
