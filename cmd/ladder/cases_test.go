package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"mercator-hq/ladder/pkg/cli"
)

func TestTest_Catalog(t *testing.T) {
	out, err := execute(t, "test")
	if err != nil {
		t.Fatalf("built-in cases should pass: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ PASS seasons/below-range") {
		t.Errorf("missing named case in output:\n%s", out)
	}
	if !strings.Contains(out, " 0 failed") {
		t.Errorf("summary should report no failures:\n%s", out)
	}
}

func TestTest_SingleLadderJSON(t *testing.T) {
	out, err := execute(t, "test", "--ladder", "high-school-grades", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}

	var report []caseOutcome
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(report) == 0 {
		t.Fatal("expected cases")
	}
	for _, c := range report {
		if c.Ladder != "high-school-grades" || !c.Passed {
			t.Errorf("unexpected case: %+v", c)
		}
	}
}

func TestTest_FailingCase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tiers.yaml", tiersLadder)
	writeFile(t, dir, "broken.yaml", brokenCaseLadder)

	out, err := execute(t, "test", "--file", dir)
	if err == nil {
		t.Fatalf("a failing case should fail the command:\n%s", out)
	}
	if cli.ExitCode(err) != cli.ExitFailure {
		t.Errorf("ExitCode = %d, want %d", cli.ExitCode(err), cli.ExitFailure)
	}
	if !strings.Contains(out, "✗ FAIL broken/wrong") || !strings.Contains(out, "expected: two") {
		t.Errorf("failure not reported:\n%s", out)
	}
	if !strings.Contains(out, "3 passed, 1 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestTest_UnknownLadder(t *testing.T) {
	if _, err := execute(t, "test", "--ladder", "missing"); err == nil {
		t.Error("unknown ladder should fail")
	}
}

func TestTest_GitSource(t *testing.T) {
	remote := t.TempDir()
	repo, err := gogit.PlainInit(remote, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(remote, "ladders"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(remote, "ladders"), "tiers.yaml", tiersLadder)
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := worktree.Add("ladders/tiers.yaml"); err != nil {
		t.Fatal(err)
	}
	if _, err := worktree.Commit("add tiers", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	}); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LADDER_ENGINE_INCLUDE_CATALOG", "false")
	t.Setenv("LADDER_ENGINE_GIT_REPOSITORY", remote)
	t.Setenv("LADDER_ENGINE_GIT_BRANCH", "master")
	t.Setenv("LADDER_ENGINE_GIT_PATH", "ladders")
	t.Setenv("LADDER_ENGINE_GIT_DEPTH", "0")
	t.Setenv("LADDER_ENGINE_GIT_LOCAL_PATH", filepath.Join(t.TempDir(), "clone"))

	out, err := execute(t, "test")
	if err != nil {
		t.Fatalf("cases from the git source should pass: %v\n%s", err, out)
	}
	if !strings.Contains(out, "3 passed, 0 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if strings.Contains(out, "seasons") {
		t.Errorf("catalog should be excluded:\n%s", out)
	}
}
