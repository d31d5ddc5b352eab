package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs a fresh command tree and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

const tiersLadder = `
name: tiers
description: Map an order total to a shipping tier.
input: { name: total, type: number }
rules:
  - name: free
    when: { op: ">=", value: 100 }
    then: free
  - name: reduced
    when: { op: between, value: [50, 99] }
    then: reduced
default: standard
cases:
  - { input: 150, expect: free }
  - { input: 60, expect: reduced }
  - { input: 10, expect: standard }
`

const brokenCaseLadder = `
name: broken
description: A ladder whose example is wrong.
input: { name: n, type: number }
rules:
  - name: one
    when: 1
    then: one
default: other
cases:
  - { name: wrong, input: 1, expect: two }
`
