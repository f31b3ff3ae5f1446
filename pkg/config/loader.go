package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadConfig loads and parses a tuning configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadMetric loads and parses a metric definition file
func LoadMetric(path string) (*Metric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metric file %s: %w", path, err)
	}
	m, err := ParseMetric(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metric file %s: %w", path, err)
	}
	return m, nil
}

// LoadTemplates loads a template file mapping template id to template body
func LoadTemplates(path string) (TemplateSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}
	var ts TemplateSet
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("template file %s declares no templates", path)
	}
	return ts, nil
}

// LoadTopics loads the judged query set, preserving file order
func LoadTopics(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file %s: %w", path, err)
	}
	var topics []Topic
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("failed to parse topics file %s: %w", path, err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("topics file %s declares no queries", path)
	}
	seen := make(map[string]bool, len(topics))
	for i, topic := range topics {
		if topic.ID == "" {
			return nil, fmt.Errorf("topics file %s: topic %d has an empty id", path, i)
		}
		if seen[topic.ID] {
			return nil, fmt.Errorf("topics file %s: duplicate topic id %q", path, topic.ID)
		}
		seen[topic.ID] = true
	}
	return topics, nil
}

// LoadQrels loads relevance judgments mapping query id to document grades
func LoadQrels(path string) (Qrels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read qrels file %s: %w", path, err)
	}
	var q Qrels
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to parse qrels file %s: %w", path, err)
	}
	return q, nil
}
