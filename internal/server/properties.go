package server

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"roam/internal/domain"
)

const PropertiesFile = "server.properties"

// ParseProperties reads key=value lines. Comments and lines without a key are
// skipped, later duplicates win.
func ParseProperties(r io.Reader) (domain.ServerProperties, error) {
	props := make(domain.ServerProperties)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		props[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

// WriteProperties writes props sorted by key under a short header.
func WriteProperties(w io.Writer, props domain.ServerProperties) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writer := bufio.NewWriter(w)
	writer.WriteString("# Minecraft Server Properties\n")
	writer.WriteString("# Exported by roam\n")
	for _, key := range keys {
		writer.WriteString(fmt.Sprintf("%s=%s\n", key, props[key]))
	}
	return writer.Flush()
}

func LoadPropertiesFile(path string) (domain.ServerProperties, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	props, err := ParseProperties(file)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return props, nil
}

func SavePropertiesFile(path string, props domain.ServerProperties) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteProperties(file, props); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
