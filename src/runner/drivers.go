package runner

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//go:embed drivers/python.py
var pythonDriver string

//go:embed drivers/node.js
var nodeDriver string

// program describes how to start an interpreter process and frame requests
// for it.
type program struct {
	lang       Language
	binaries   []string
	args       []string
	env        []string
	init       string
	encode     func(code string) ([]byte, func(), error)
	signalTree bool
}

func shellProgram() program {
	return program{
		lang:     Shell,
		binaries: []string{"bash"},
		args:     []string{"--norc", "--noprofile", "-s"},
		env: []string{
			"PS1=",
			"PS2=",
			"PS4=",
			"PROMPT_COMMAND=",
			"TERM=dumb",
			"BASH_ENV=",
		},
		init: strings.Join([]string{
			"unset HISTFILE",
			"set +o history",
			"set -T",
			"__interp_file=",
			`trap '[ -n "$__interp_file" ] && [ "${BASH_SOURCE[0]}" = "$__interp_file" ] && printf "%s line %d\n" "$INTERPRETER_MARKER" "$LINENO"' DEBUG`,
		}, "\n") + "\n",
		encode:     encodeShell,
		signalTree: true,
	}
}

func pythonProgram() program {
	return program{
		lang:     Python,
		binaries: []string{"python3", "python"},
		args:     []string{"-u", "-c", pythonDriver},
		env:      []string{"PYTHONUNBUFFERED=1", "PYTHONIOENCODING=utf-8"},
		encode:   encodeSized,
	}
}

func nodeProgram() program {
	return program{
		lang:     JavaScript,
		binaries: []string{"node", "nodejs"},
		args:     []string{"-e", nodeDriver},
		env:      []string{"NODE_NO_WARNINGS=1"},
		encode:   encodeSized,
	}
}

// encodeSized frames code as a decimal byte count line followed by the code.
func encodeSized(code string) ([]byte, func(), error) {
	return []byte(strconv.Itoa(len(code)) + "\n" + code), func() {}, nil
}

// encodeShell writes code to a temporary file that the session sources, so
// the DEBUG trap can attribute line numbers to it.
func encodeShell(code string) ([]byte, func(), error) {
	f, err := os.CreateTemp("", "interpreter-*.sh")
	if err != nil {
		return nil, nil, fmt.Errorf("create script file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.WriteString(code + "\n"); err != nil {
		f.Close()
		cleanup()
		return nil, nil, fmt.Errorf("write script file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("close script file: %w", err)
	}

	req := strings.Join([]string{
		"__interp_file=" + shellQuote(f.Name()),
		`source "$__interp_file" </dev/null`,
		"__interp_status=$?",
		"__interp_file=",
		`printf '%s end %d\n' "$INTERPRETER_MARKER" "$__interp_status"`,
	}, "\n") + "\n"
	return []byte(req), cleanup, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
