package filtering

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/freelancer"
)

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes projects listed in an exclude file.
// The file holds one project id per line; blank lines and lines starting with # are ignored.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, p freelancer.Projects) (freelancer.Projects, Step, error) {
	if f.path == "" {
		return p, Step{Initial: p.Len(), Left: p.Len()}, nil
	}

	excluded, err := readExcludedIDs(f.path)
	if err != nil {
		return p, Step{}, fmt.Errorf("getting excluded projects from file: %w", err)
	}

	kept, step := keep(p, func(project *freelancer.Project) bool {
		_, found := excluded[project.ID]
		return !found
	})

	if step.Dropped > 0 {
		loggerOf(deps).Info("excluding projects based on exclude file",
			zap.String("path", f.path),
			zap.Int("dropped", step.Dropped),
			zap.Int("projects_left", step.Left),
		)
	}

	return kept, step, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return f.status(f.Name(), details)
}

func readExcludedIDs(path string) (map[int64]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ids := make(map[int64]struct{})
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid project id %q", line, text)
		}
		ids[id] = struct{}{}
	}

	return ids, scanner.Err()
}
