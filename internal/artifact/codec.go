// Package artifact reads and writes the pipeline's JSON files: captured raw
// responses and the canonical ad artifact. Locations are local paths or
// s3://bucket/key URLs.
package artifact

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/rawdoc"
)

// ErrInvalidArtifact marks input that cannot be used at all. Runs stop
// before touching the store when they see it.
var ErrInvalidArtifact = errors.New("invalid artifact")

//go:embed canonical.schema.json
var canonicalSchemaJSON string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func canonicalSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(canonicalSchemaJSON))
	})
	return schema, schemaErr
}

// Validate checks data against the canonical artifact schema.
func Validate(data []byte) error {
	s, err := canonicalSchema()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidArtifact, strings.Join(errs, "; "))
	}
	return nil
}

// DecodeCanonical validates and decodes a canonical artifact.
func DecodeCanonical(data []byte) (models.Artifact, error) {
	if err := Validate(data); err != nil {
		return models.Artifact{}, err
	}
	var a models.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return models.Artifact{}, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	return a, nil
}

// DecodeResponses decodes a JSON array of captured responses. Only the
// top level must be an array; an entry that is not an object, or whose url is
// not a string, becomes a response with nothing to traverse so the other
// entries still count.
func DecodeResponses(data []byte) ([]models.RawResponse, error) {
	doc, err := rawdoc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode responses: %v", ErrInvalidArtifact, err)
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: decode responses: top level is not an array", ErrInvalidArtifact)
	}
	entries := doc.Items()
	out := make([]models.RawResponse, 0, len(entries))
	for _, entry := range entries {
		url, _ := entry.Get("url").Str()
		out = append(out, models.RawResponse{URL: url, Data: entry.Get("data")})
	}
	return out, nil
}

// EncodeCanonical writes a with two-space indentation.
func EncodeCanonical(w io.Writer, a models.Artifact) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// MarshalCanonical is EncodeCanonical into a byte slice.
func MarshalCanonical(a models.Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCanonical(&buf, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalResponses encodes captured responses in the layout DecodeResponses
// reads.
func MarshalResponses(responses []models.RawResponse) ([]byte, error) {
	if responses == nil {
		responses = []models.RawResponse{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(responses); err != nil {
		return nil, fmt.Errorf("encode responses: %w", err)
	}
	return buf.Bytes(), nil
}
