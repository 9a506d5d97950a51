// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package reconcile

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scanner reports the set of codes currently in use. Order is not significant.
type Scanner interface {
	Scan(ctx context.Context) ([]string, error)
}

// ScannerFunc adapts a function to the Scanner interface.
type ScannerFunc func(ctx context.Context) ([]string, error)

// Scan calls f.
func (f ScannerFunc) Scan(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// StaticScanner reports a fixed set of codes.
type StaticScanner struct {
	codes []string
}

// NewStaticScanner creates a scanner reporting codes.
func NewStaticScanner(codes ...string) *StaticScanner {
	return &StaticScanner{codes: slices.Clone(codes)}
}

// Scan returns a copy of the configured codes.
func (s *StaticScanner) Scan(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.codes), nil
}

// MultiScanner reports the union of several scanners, sorted and deduplicated.
type MultiScanner []Scanner

// Scan runs every scanner in turn and stops at the first error.
func (m MultiScanner) Scan(ctx context.Context) ([]string, error) {
	var all []string
	for _, s := range m {
		codes, err := s.Scan(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, codes...)
	}
	slices.Sort(all)
	return slices.Compact(all), nil
}

// ManifestScanner reads codes from manifest files. A path may name a file or
// a directory, which is walked for manifests.
//
// YAML manifests (.yaml, .yml) hold a list of codes or a mapping whose keys
// are codes; nested mappings produce dotted codes ("nav: {home: Home}" is
// "nav.home"). Any other file holds one code per line, with blank lines and
// lines starting with # ignored.
type ManifestScanner struct {
	Paths []string
}

// NewManifestScanner creates a scanner over paths.
func NewManifestScanner(paths ...string) *ManifestScanner {
	return &ManifestScanner{Paths: paths}
}

// Scan reads every manifest and returns the sorted, deduplicated codes.
func (s *ManifestScanner) Scan(ctx context.Context) ([]string, error) {
	var codes []string
	for _, root := range s.Paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			// Files below a directory must look like manifests; a file named
			// directly is always read.
			if path != root && !isManifest(path) {
				return nil
			}

			found, err := readManifest(path)
			if err != nil {
				return fmt.Errorf("reading manifest %s: %w", path, err)
			}
			codes = append(codes, found...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(codes)
	return slices.Compact(codes), nil
}

func isManifest(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".txt":
		return true
	}
	return false
}

func readManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLManifest(data)
	default:
		return parseTextManifest(data)
	}
}

func parseTextManifest(data []byte) ([]string, error) {
	var codes []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		codes = append(codes, line)
	}
	return codes, sc.Err()
}

func parseYAMLManifest(data []byte) ([]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	var codes []string
	collectCodes(&root, "", &codes)
	return codes, nil
}

func collectCodes(n *yaml.Node, prefix string, codes *[]string) {
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			collectCodes(c, prefix, codes)
		}
	case yaml.SequenceNode:
		for _, c := range n.Content {
			collectCodes(c, prefix, codes)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := joinCode(prefix, n.Content[i].Value)
			if val := n.Content[i+1]; val.Kind == yaml.MappingNode || val.Kind == yaml.SequenceNode {
				collectCodes(val, key, codes)
			} else {
				*codes = append(*codes, key)
			}
		}
	case yaml.ScalarNode:
		if v := strings.TrimSpace(n.Value); v != "" {
			*codes = append(*codes, joinCode(prefix, v))
		}
	}
}

func joinCode(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
