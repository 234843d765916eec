package config

import (
	"os"
	"strings"
)

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func replaceAll(s string, pairs map[string]string) string {
	for old, repl := range pairs {
		s = strings.ReplaceAll(s, old, repl)
	}
	return s
}
