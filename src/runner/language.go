package runner

import (
	"errors"
	"fmt"
	"strings"
)

// Language identifies an executor session kind.
type Language string

const (
	Shell      Language = "shell"
	Python     Language = "python"
	JavaScript Language = "javascript"
	Go         Language = "go"
	Starlark   Language = "starlark"
)

// ErrUnknownLanguage is returned when code is tagged with a language no
// session can run.
var ErrUnknownLanguage = errors.New("unknown language")

var languageAliases = map[string]Language{
	"shell":      Shell,
	"bash":       Shell,
	"sh":         Shell,
	"zsh":        Shell,
	"python":     Python,
	"python3":    Python,
	"py":         Python,
	"javascript": JavaScript,
	"js":         JavaScript,
	"node":       JavaScript,
	"go":         Go,
	"golang":     Go,
	"starlark":   Starlark,
	"star":       Starlark,
}

// ParseLanguage maps a model-supplied language name onto a Language.
func ParseLanguage(name string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if lang, ok := languageAliases[key]; ok {
		return lang, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
}

// Languages lists every supported language.
func Languages() []Language {
	return []Language{Shell, Python, JavaScript, Go, Starlark}
}

func (l Language) String() string {
	return string(l)
}
