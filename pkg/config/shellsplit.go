package config

import (
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// splitShellCommand splits a single `sh:` string using POSIX shell
// quoting rules, peeling off any leading NAME=value environment
// assignment tokens into env, per spec §4.1 "Leading NAME=value tokens
// become entries of the step's environment."
func splitShellCommand(line string) (argv []string, env map[string]string, err error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false

	fields, err := parser.Parse(line)
	if err != nil {
		return nil, nil, err
	}

	env = map[string]string{}
	i := 0
	for i < len(fields) {
		name, value, ok := splitAssignment(fields[i])
		if !ok {
			break
		}
		env[name] = value
		i++
	}

	return fields[i:], env, nil
}

func splitAssignment(field string) (name, value string, ok bool) {
	eq := strings.IndexByte(field, '=')
	if eq <= 0 {
		return "", "", false
	}
	name = field[:eq]
	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return "", "", false
		}
		if i > 0 && !isIdentPart(r) {
			return "", "", false
		}
	}
	return name, field[eq+1:], true
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
