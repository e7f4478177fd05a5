package catalogue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okra-platform/gisgen/internal/codegen"
	"github.com/okra-platform/gisgen/internal/codegen/ops"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/layout"
	"github.com/okra-platform/gisgen/internal/schema"
	"github.com/okra-platform/gisgen/internal/symbology"
)

// BatchOptions configures one catalogue run
type BatchOptions struct {
	Dialect    string
	Operations []string
	Connection target.Connection
	Template   *layout.Template
	// Reference enriches synthetic layers; nil generates from the row alone
	Reference *Reference
}

// Artifact is one generated file of a batch
type Artifact struct {
	Row      Row
	Name     string
	Code     []byte
	Warnings []codegen.Warning
	Enriched bool
	Renderer symbology.Renderer
}

// Batch generates one artifact per row, in row order. Rows must already be
// filtered. Invalid operations and unknown dialects fail before any row is
// rendered; a row that cannot be rendered fails the whole batch.
func Batch(r *codegen.Registry, rows []Row, opts BatchOptions) ([]Artifact, error) {
	if r == nil {
		r = codegen.DefaultRegistry
	}

	gen, err := r.Get(opts.Dialect, target.Options{})
	if err != nil {
		return nil, err
	}
	if err := ops.Validate(opts.Operations); err != nil {
		return nil, err
	}
	dialect := gen.Dialect()

	names := make(map[string]bool, len(rows))
	artifacts := make([]Artifact, 0, len(rows))
	for _, row := range rows {
		layer, enriched := Synthesize(row, opts.Reference)
		style := StyleFor(row, layer)
		renderer := symbology.Normalize(style.Renderer)

		res, err := r.Generate(codegen.Request{
			Dialect:    string(dialect),
			Schema:     &schema.Schema{Database: opts.Connection.DBName, Host: opts.Connection.Host, Layers: []schema.Layer{layer}},
			Operations: opts.Operations,
			Options: target.Options{
				Connection: opts.Connection,
				Template:   opts.Template,
				Styles:     map[string]string{layer.QualifiedName(): symbology.Resolve(style, dialect)},
				Notes:      notes(row, renderer),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("catalogue row %d (%s): %w", row.Line, row.MapName, err)
		}

		artifacts = append(artifacts, Artifact{
			Row:      row,
			Name:     uniqueName(names, FileStem(row), res.Extension),
			Code:     res.Code,
			Warnings: res.Warnings,
			Enriched: enriched,
			Renderer: renderer,
		})
	}
	return artifacts, nil
}

func notes(row Row, renderer symbology.Renderer) []string {
	out := []string{"Map      : " + row.MapName}
	if row.RendererType != "" {
		out = append(out, fmt.Sprintf("Renderer : %s (%s)", renderer, row.RendererType))
	} else {
		out = append(out, fmt.Sprintf("Renderer : %s", renderer))
	}
	return out
}

// FileStem is the artifact name of a row without extension: the map name,
// or the table name when the map has none, with path separators replaced
func FileStem(row Row) string {
	stem := strings.TrimSpace(row.MapName)
	if stem == "" {
		stem = row.tableName()
	}
	stem = strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(stem)
	if stem == "" || stem == "." || stem == ".." {
		stem = "map_" + strconv.Itoa(row.Line)
	}
	return stem
}

// uniqueName suffixes repeated stems with _2, _3, ... in row order. Names
// are compared case-folded so case-insensitive filesystems see no clashes.
func uniqueName(emitted map[string]bool, stem, ext string) string {
	name := stem + ext
	for n := 2; emitted[strings.ToLower(name)]; n++ {
		name = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
	emitted[strings.ToLower(name)] = true
	return name
}
