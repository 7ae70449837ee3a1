// INI-style configuration for the AD5328 bench tooling
//
// Supports the usual section/option format:
//
//	[dac]
//	device: /dev/spidev0.0
//	speed = 1000000
//
// Options accept either ':' or '=' as separator; '#' and ';' start
// comments. Section and option names are case-insensitive.
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Config holds a parsed configuration file.
type Config struct {
	sections map[string]*Section
}

// Section provides typed access to one config section.
type Section struct {
	name    string
	options map[string]string
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses configuration text.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{sections: make(map[string]*Section)}
	var current *Section

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if idx := strings.IndexAny(line, "#;"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, fmt.Errorf("config: line %d: malformed section header %q", lineno, line)
			}
			name := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if name == "" {
				return nil, fmt.Errorf("config: line %d: empty section name", lineno)
			}
			current = &Section{name: name, options: make(map[string]string)}
			cfg.sections[name] = current
			continue
		}

		sep := strings.IndexAny(line, ":=")
		if sep < 0 {
			return nil, fmt.Errorf("config: line %d: expected 'option: value', got %q", lineno, line)
		}
		if current == nil {
			return nil, fmt.Errorf("config: line %d: option outside of any section", lineno)
		}
		key := strings.ToLower(strings.TrimSpace(line[:sep]))
		value := strings.TrimSpace(line[sep+1:])
		if key == "" {
			return nil, fmt.Errorf("config: line %d: empty option name", lineno)
		}
		current.options[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return cfg, nil
}

// HasSection checks if a section exists.
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[strings.ToLower(name)]
	return ok
}

// Section returns a section by name.
func (c *Config) Section(name string) (*Section, error) {
	s, ok := c.sections[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("config: section '%s' not found", name)
	}
	return s, nil
}

// SectionNames returns all section names, sorted.
func (c *Config) SectionNames() []string {
	names := make([]string, 0, len(c.sections))
	for name := range c.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetName returns the section name.
func (s *Section) GetName() string {
	return s.name
}

// HasOption checks if an option exists in this section.
func (s *Section) HasOption(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

// Get returns a string option value. If a fallback is provided and the
// option doesn't exist, the fallback is returned; without a fallback a
// missing option is an error.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	if v, ok := s.options[strings.ToLower(option)]; ok {
		return v, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return "", fmt.Errorf("config: option '%s' not found in section '%s'", option, s.name)
}

// GetInt returns an integer option value.
func (s *Section) GetInt(option string, fallback ...int) (int, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, fmt.Errorf("config: option '%s' not found in section '%s'", option, s.name)
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("config: option '%s' in section '%s': %q is not an integer", option, s.name, v)
	}
	return int(n), nil
}

// GetBool returns a boolean option value.
func (s *Section) GetBool(option string, fallback ...bool) (bool, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return false, fmt.Errorf("config: option '%s' not found in section '%s'", option, s.name)
	}
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("config: option '%s' in section '%s': %q is not a boolean", option, s.name, v)
}
