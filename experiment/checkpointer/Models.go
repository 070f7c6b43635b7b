package checkpointer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Checkpoint files are named model-<n>.gob, with n counting up from 1
const (
	modelPrefix    = "model-"
	modelExtension = ".gob"
)

// modelName returns the name of the n-th checkpoint file in dir
func modelName(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("%v%d%v", modelPrefix, n,
		modelExtension))
}

// modelNumber returns the number of a checkpoint file and whether
// filename names a checkpoint file at all
func modelNumber(filename string) (int, bool) {
	base := filepath.Base(filename)
	if !strings.HasPrefix(base, modelPrefix) ||
		!strings.HasSuffix(base, modelExtension) {
		return 0, false
	}

	digits := strings.TrimSuffix(strings.TrimPrefix(base, modelPrefix),
		modelExtension)
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Models returns the checkpoint files in dir, oldest first. Other
// files in dir are ignored, and a missing dir holds no checkpoints.
func Models(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "models: could not read %v", dir)
	}

	numbers := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if n, ok := modelNumber(entry.Name()); ok {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)

	models := make([]string, len(numbers))
	for i, n := range numbers {
		models[i] = modelName(dir, n)
	}
	return models, nil
}
