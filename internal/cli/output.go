package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/platepack/pkg/pipeline"
)

// artifactSuffix maps each format to the suffix appended to the base path.
var artifactSuffix = map[string]string{
	pipeline.FormatText:   "-out.txt",
	pipeline.FormatJSON:   "-out.json",
	pipeline.FormatSVG:    ".svg",
	pipeline.FormatASCII:  ".ascii.txt",
	pipeline.FormatBlocks: ".blocks.json",
	pipeline.FormatDOT:    ".dot",
	pipeline.FormatNeato:  ".neato.svg",
}

// stdoutPath selects standard output as the destination.
const stdoutPath = "-"

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing, or stdout for "" and "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == stdoutPath {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input.
// If output ends in a known artifact suffix, the longest such suffix is
// stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	match := ""
	for _, suffix := range artifactSuffix {
		if strings.HasSuffix(output, suffix) && len(suffix) > len(match) {
			match = suffix
		}
	}
	if match != "" {
		return strings.TrimSuffix(output, match)
	}
	return strings.TrimSuffix(output, filepath.Ext(output))
}

// artifactPaths decides where each artifact goes. A single artifact with an
// explicit output is written there verbatim; otherwise paths are derived
// from the base path and the format suffix.
func artifactPaths(formats []string, input, output string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + artifactSuffix[f]
	}
	return paths
}

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes the produced artifacts and returns the paths
// written, in format order. Formats without an artifact are skipped.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	paths := artifactPaths(p.formats, p.input, p.output)
	formats := append([]string(nil), p.formats...)
	sort.SliceStable(formats, func(i, j int) bool { return formats[i] < formats[j] })

	var written []string
	for _, f := range formats {
		data, ok := p.artifacts[f]
		if !ok {
			continue
		}
		path := paths[f]
		out, err := openOutput(path)
		if err != nil {
			return written, fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := out.Write(data); err != nil {
			out.Close()
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		if err := out.Close(); err != nil {
			return written, fmt.Errorf("close %s: %w", path, err)
		}
		if path != stdoutPath {
			written = append(written, path)
		}
	}
	return written, nil
}
