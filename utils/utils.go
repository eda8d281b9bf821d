package utils

import (
	"io"
	"os"
	"strings"
)

func OrStr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// ReadFile reads path, or stdin when path is "-".
func ReadFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return []byte{}, nil
	}

	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// ParseLabels turns "k=v,k2=v2" into a map. Pairs must already be validated.
func ParseLabels(raw ...string) map[string]string {
	labels := map[string]string{}
	for _, r := range raw {
		for _, pair := range strings.Split(r, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}

			k, v, _ := strings.Cut(pair, "=")
			labels[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	return labels
}
