package validator

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// CategoryValidator checks submitted category labels against the curated
// list. Unknown labels are not rejected (citizens type what they type), but
// handlers log them so the list can grow.
type CategoryValidator struct {
	known map[string]struct{}
	mu    sync.RWMutex
}

func NewCategoryValidator(listPath string) (*CategoryValidator, error) {
	v := &CategoryValidator{
		known: make(map[string]struct{}),
	}
	if err := v.loadList(listPath); err != nil {
		return nil, fmt.Errorf("failed to load category list: %w", err)
	}
	return v, nil
}

func (v *CategoryValidator) loadList(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v.known[line] = struct{}{}
	}

	return scanner.Err()
}

// IsKnown reports whether the label appears in the curated list. Comparison
// is on the lowercased, trimmed form.
func (v *CategoryValidator) IsKnown(label string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	_, ok := v.known[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// Count returns the number of loaded labels.
func (v *CategoryValidator) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.known)
}
