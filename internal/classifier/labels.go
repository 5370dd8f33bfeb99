package classifier

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// defaultLabels is the output ordering of the bundled classification model.
// Index i in the model output corresponds to defaultLabels[i].
var defaultLabels = []string{
	"banh mi", "bap cai luoc", "bap cai xao", "bo xao", "ca chien", "ca chua", "ca kho",
	"ca rot", "canh bau", "canh bi do", "canh cai", "canh chua", "canh rong bien", "chuoi",
	"com", "dau bap", "dau hu", "dau que", "do chua", "dua hau", "dua leo", "ga chien",
	"ga kho", "kho qua", "kho tieu", "kho trung", "nuoc mam", "nuoc tuong", "oi", "ot",
	"rau", "rau muong", "rau ngo", "suon mieng", "suon xao", "thanh long", "thit chien",
	"thit luoc", "tom", "trung chien", "trung luoc",
}

// DefaultLabels returns a copy of the built-in label list.
func DefaultLabels() []string {
	out := make([]string, len(defaultLabels))
	copy(out, defaultLabels)
	return out
}

// LoadLabels reads a label file with one class name per line, in model output
// order. Blank lines are skipped; a UTF-8 BOM on the first line is stripped.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var labels []string
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels file %s: %w", path, err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}
