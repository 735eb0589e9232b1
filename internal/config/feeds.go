package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rss_monitor/internal/model"
)

// feedEntry is one value of the feed file mapping.
type feedEntry struct {
	URL  string `yaml:"rss_url"`
	Name string `yaml:"website_name"`
}

// LoadFeeds reads the feed file, a YAML mapping of key to
// {website_name, rss_url}. Feeds are returned in file order.
func LoadFeeds(path string) ([]model.Feed, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found", ErrNoFeeds, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read feeds %s: %w", path, err)
	}

	root, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse feeds %s: %w", path, err)
	}
	if root == nil || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoFeeds, path)
	}

	feeds := make([]model.Feed, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value

		var entry feedEntry
		if err := root.Content[i+1].Decode(&entry); err != nil {
			return nil, fmt.Errorf("feed %q: %w", key, err)
		}
		entry.URL = strings.TrimSpace(entry.URL)
		if entry.URL == "" {
			return nil, fmt.Errorf("feed %q: rss_url is required", key)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = key
		}
		feeds = append(feeds, model.Feed{Key: key, Name: name, URL: entry.URL})
	}
	return feeds, nil
}

// AppendFeed adds a feed under name to the feed file, replacing an existing
// entry with the same key in place. Other entries keep their order. The file
// is created if it does not exist.
func AppendFeed(path, name, url string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read feeds %s: %w", path, err)
	}

	root, err := decodeDocument(data)
	if err != nil {
		return fmt.Errorf("parse feeds %s: %w", path, err)
	}
	if root == nil {
		root = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}

	var value yaml.Node
	if err := value.Encode(feedEntry{URL: url, Name: name}); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}

	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == name {
			root.Content[i+1] = &value
			replaced = true
			break
		}
	}
	if !replaced {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
		root.Content = append(root.Content, key, &value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode feeds: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode feeds: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, buf.Bytes(), mode); err != nil {
		return fmt.Errorf("write feeds %s: %w", path, err)
	}
	// WriteFile only applies mode when it creates the file.
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("chmod feeds %s: %w", path, err)
	}
	return nil
}

// decodeDocument returns the top-level mapping node of data, or nil when
// data holds no document.
func decodeDocument(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping")
	}
	return root, nil
}
