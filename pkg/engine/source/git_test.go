package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"mercator-hq/ladder/pkg/engine"
)

// commitFile writes content to name inside the repository at dir and
// commits it.
func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string) {
	t.Helper()

	writeFile(t, filepath.Join(dir, name), content)

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("failed to add %s: %v", name, err)
	}
	_, err = worktree.Commit("add "+name, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func newTestRepo(t *testing.T) (*gogit.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	commitFile(t, repo, dir, "ladders/a.yaml", ladderA)
	return repo, dir
}

func TestNewGitSource(t *testing.T) {
	tests := []struct {
		name    string
		opts    GitOptions
		wantErr bool
	}{
		{"empty repository", GitOptions{Branch: "main"}, true},
		{"empty branch", GitOptions{Repository: "https://example.com/ladders.git"}, true},
		{"valid", GitOptions{Repository: "https://example.com/ladders.git", Branch: "main"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGitSource(tt.opts, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGitSource() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGitSource_LoadLadders(t *testing.T) {
	_, remote := newTestRepo(t)

	src, err := NewGitSource(GitOptions{
		Repository: remote,
		Branch:     "master",
		Path:       "ladders",
		LocalPath:  filepath.Join(t.TempDir(), "clone"),
	}, nil)
	if err != nil {
		t.Fatalf("NewGitSource() error = %v", err)
	}

	ladders, err := src.LoadLadders(context.Background())
	if err != nil {
		t.Fatalf("LoadLadders() error = %v", err)
	}
	if len(ladders) != 1 || ladders[0].Name != "a" {
		t.Fatalf("LoadLadders() = %v, want ladder a", ladders)
	}
	if len(src.Head()) != 40 {
		t.Errorf("Head() = %q, want a full SHA", src.Head())
	}
}

func TestGitSource_ReusesExistingClone(t *testing.T) {
	_, remote := newTestRepo(t)
	local := filepath.Join(t.TempDir(), "clone")
	opts := GitOptions{Repository: remote, Branch: "master", Path: "ladders", LocalPath: local}

	for i := 0; i < 2; i++ {
		src, err := NewGitSource(opts, nil)
		if err != nil {
			t.Fatalf("NewGitSource() error = %v", err)
		}
		if _, err := src.LoadLadders(context.Background()); err != nil {
			t.Fatalf("LoadLadders() #%d error = %v", i+1, err)
		}
	}
}

func TestGitSource_CloneFailure(t *testing.T) {
	src, err := NewGitSource(GitOptions{
		Repository: filepath.Join(t.TempDir(), "missing"),
		Branch:     "master",
		LocalPath:  filepath.Join(t.TempDir(), "clone"),
		Timeout:    5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewGitSource() error = %v", err)
	}
	if _, err := src.LoadLadders(context.Background()); err == nil {
		t.Fatal("expected clone of a missing repository to fail")
	}
}

func TestGitSource_Watch(t *testing.T) {
	repo, remote := newTestRepo(t)

	src, err := NewGitSource(GitOptions{
		Repository:   remote,
		Branch:       "master",
		Path:         "ladders",
		LocalPath:    filepath.Join(t.TempDir(), "clone"),
		PollInterval: 20 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewGitSource() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := src.LoadLadders(ctx); err != nil {
		t.Fatalf("LoadLadders() error = %v", err)
	}
	initial := src.Head()

	events, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	commitFile(t, repo, remote, "ladders/b.yaml", ladderB)

	select {
	case ev := <-events:
		if ev.Error != nil {
			t.Fatalf("watch error: %v", ev.Error)
		}
		if ev.Type != engine.LadderEventModified {
			t.Errorf("event type = %q, want %q", ev.Type, engine.LadderEventModified)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change event")
	}

	if src.Head() == initial {
		t.Error("Head() did not move after pull")
	}
	ladders, err := src.LoadLadders(ctx)
	if err != nil {
		t.Fatalf("LoadLadders() after pull error = %v", err)
	}
	if len(ladders) != 2 {
		t.Errorf("LoadLadders() after pull = %d ladders, want 2", len(ladders))
	}

	cancel()
	for range events {
	}
}

func TestGitAuth(t *testing.T) {
	keyDir := t.TempDir()
	openKey := filepath.Join(keyDir, "id_open")
	if err := os.WriteFile(openKey, []byte("not a key"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		kind     string
		token    string
		keyPath  string
		wantErr  bool
		wantNil  bool
		wantHTTP bool
	}{
		{name: "none", kind: "none", wantNil: true},
		{name: "empty kind", kind: "", wantNil: true},
		{name: "token", kind: "token", token: "secret", wantHTTP: true},
		{name: "token missing", kind: "token", wantErr: true},
		{name: "ssh missing path", kind: "ssh", wantErr: true},
		{name: "ssh missing file", kind: "ssh", keyPath: filepath.Join(keyDir, "nope"), wantErr: true},
		{name: "ssh open permissions", kind: "ssh", keyPath: openKey, wantErr: true},
		{name: "unknown", kind: "kerberos", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := GitAuth(tt.kind, tt.token, tt.keyPath, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("GitAuth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantNil && auth != nil {
				t.Errorf("GitAuth() = %v, want nil", auth)
			}
			if tt.wantHTTP {
				basic, ok := auth.(*http.BasicAuth)
				if !ok || basic.Password != tt.token {
					t.Errorf("GitAuth() = %#v, want basic auth with token", auth)
				}
			}
		})
	}
}
