// Package report renders roast reports and manages the reports directory.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Workdir handles report and screenshot artifact naming and storage.
// Reports land in <base>/roast_<topic>_<iteration>.md and screenshots in
// <base>/screenshots/<topic>_<iteration>.png.
type Workdir struct {
	baseDir string
}

// NewWorkdir creates a workdir rooted at baseDir.
func NewWorkdir(baseDir string) (*Workdir, error) {
	if baseDir == "" {
		baseDir = "reports"
	}

	if err := os.MkdirAll(filepath.Join(baseDir, "screenshots"), 0755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}

	return &Workdir{baseDir: baseDir}, nil
}

// Path returns the reports base directory.
func (w *Workdir) Path() string {
	return w.baseDir
}

// ReportPath returns the path for a report artifact.
func (w *Workdir) ReportPath(topic string, iteration int) string {
	name := fmt.Sprintf("roast_%s_%d.md", SanitizeTopic(topic), iteration)
	return filepath.Join(w.baseDir, name)
}

// ScreenshotPath returns the path for a screenshot artifact.
func (w *Workdir) ScreenshotPath(topic string, iteration int) string {
	name := fmt.Sprintf("%s_%d.png", SanitizeTopic(topic), iteration)
	return filepath.Join(w.baseDir, "screenshots", name)
}

// WriteReport writes a report artifact. Reports are immutable per
// iteration; re-running the same topic+iteration overwrites.
func (w *Workdir) WriteReport(topic string, iteration int, content string) (string, error) {
	path := w.ReportPath(topic, iteration)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// SaveScreenshot writes a screenshot artifact.
func (w *Workdir) SaveScreenshot(topic string, iteration int, data []byte) (string, error) {
	path := w.ScreenshotPath(topic, iteration)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

// ReadReport reads a report artifact.
func (w *Workdir) ReadReport(topic string, iteration int) (string, error) {
	data, err := os.ReadFile(w.ReportPath(topic, iteration))
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(data), nil
}

// HasReport returns true if a report exists for the topic+iteration.
func (w *Workdir) HasReport(topic string, iteration int) bool {
	_, err := os.Stat(w.ReportPath(topic, iteration))
	return err == nil
}

// Info describes one stored report.
type Info struct {
	Topic     string `json:"topic"`
	Iteration int    `json:"iteration"`
	Path      string `json:"path"`
}

// reportName matches roast_<topic>_<iteration>.md.
func parseReportName(name string) (Info, bool) {
	if !strings.HasPrefix(name, "roast_") || !strings.HasSuffix(name, ".md") {
		return Info{}, false
	}
	stem := strings.TrimSuffix(strings.TrimPrefix(name, "roast_"), ".md")

	i := strings.LastIndex(stem, "_")
	if i <= 0 {
		return Info{}, false
	}
	iteration, err := strconv.Atoi(stem[i+1:])
	if err != nil {
		return Info{}, false
	}

	return Info{Topic: stem[:i], Iteration: iteration}, true
}

// List returns all stored reports, sorted by topic then iteration.
func (w *Workdir) List() ([]Info, error) {
	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ok := parseReportName(entry.Name())
		if !ok {
			continue
		}
		info.Path = filepath.Join(w.baseDir, entry.Name())
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Topic != infos[j].Topic {
			return infos[i].Topic < infos[j].Topic
		}
		return infos[i].Iteration < infos[j].Iteration
	})

	return infos, nil
}

// LatestIteration returns the highest stored iteration for a topic,
// or 0 when none exist.
func (w *Workdir) LatestIteration(topic string) int {
	infos, err := w.List()
	if err != nil {
		return 0
	}

	sanitized := SanitizeTopic(topic)
	latest := 0
	for _, info := range infos {
		if info.Topic == sanitized && info.Iteration > latest {
			latest = info.Iteration
		}
	}
	return latest
}

// SanitizeTopic creates a safe filename stem from a topic. Empty or
// fully-invalid input falls back to "untitled" rather than producing an
// empty stem.
func SanitizeTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if len(topic) > 50 {
		topic = topic[:50]
	}

	var result []byte
	for i := 0; i < len(topic); i++ {
		c := topic[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
			result = append(result, c)
		case c >= 'A' && c <= 'Z':
			result = append(result, c+('a'-'A'))
		case c == ' ', c == '_', c == '/':
			result = append(result, '-')
		}
	}

	// Collapse runs of dashes from replaced characters
	out := string(result)
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-")

	if out == "" {
		return "untitled"
	}
	return out
}
