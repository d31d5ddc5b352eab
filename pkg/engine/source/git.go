package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/ladder/ast"
)

// Git source defaults.
const (
	DefaultGitPollInterval = 30 * time.Second
	DefaultGitTimeout      = 30 * time.Second
)

// GitOptions configures a GitSource.
type GitOptions struct {
	// Repository is the clone URL or a local repository path.
	Repository string

	// Branch is the branch to check out and track.
	Branch string

	// Path is the ladder directory relative to the repository root.
	Path string

	// LocalPath is the clone destination. An existing clone is reused.
	LocalPath string

	// Depth limits clone history. 0 clones everything.
	Depth int

	// PollInterval is how often Watch pulls.
	PollInterval time.Duration

	// Timeout bounds a single clone or pull.
	Timeout time.Duration

	// Auth is passed to clone and pull. Nil for public repositories.
	Auth transport.AuthMethod

	// Strict rejects ladder files with unknown fields.
	Strict bool
}

// GitSource loads ladders from a directory inside a Git repository and
// polls the remote for new commits.
type GitSource struct {
	opts   GitOptions
	logger *slog.Logger

	mu   sync.Mutex
	repo *gogit.Repository
	head string
}

// NewGitSource creates a Git ladder source. Nothing is cloned until the
// first LoadLadders call.
func NewGitSource(opts GitOptions, logger *slog.Logger) (*GitSource, error) {
	if opts.Repository == "" {
		return nil, errors.New("repository URL cannot be empty")
	}
	if opts.Branch == "" {
		return nil, errors.New("branch cannot be empty")
	}
	if opts.LocalPath == "" {
		opts.LocalPath = filepath.Join(os.TempDir(), "ladder-git")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultGitPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGitTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSource{opts: opts, logger: logger}, nil
}

// Head returns the commit the working tree is at, or "" before the
// first load.
func (s *GitSource) Head() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head
}

// LadderPath is the directory ladders are read from.
func (s *GitSource) LadderPath() string {
	return filepath.Join(s.opts.LocalPath, s.opts.Path)
}

// LoadLadders clones the repository if needed and loads every ladder
// file under Path. It does not pull; Watch does.
func (s *GitSource) LoadLadders(ctx context.Context) ([]*ast.Ladder, error) {
	if err := s.ensureCloned(ctx); err != nil {
		return nil, err
	}
	files := NewFileSource(s.LadderPath(), s.logger).WithStrictMode(s.opts.Strict)
	ladders, err := files.LoadLadders(ctx)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", shortSHA(s.Head()), err)
	}
	return ladders, nil
}

// Watch pulls every PollInterval and sends a modified event whenever
// HEAD moves. Pull failures are sent as error events and polling goes on.
func (s *GitSource) Watch(ctx context.Context) (<-chan engine.LadderEvent, error) {
	if err := s.ensureCloned(ctx); err != nil {
		return nil, err
	}

	out := make(chan engine.LadderEvent, 1)
	s.logger.Info("git watcher started",
		"repository", s.opts.Repository,
		"branch", s.opts.Branch,
		"poll_interval", s.opts.PollInterval,
		"initial_commit", shortSHA(s.Head()),
	)

	go func() {
		defer close(out)
		ticker := time.NewTicker(s.opts.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("git watcher stopped")
				return
			case <-ticker.C:
				from, to, err := s.pull(ctx)
				var ev engine.LadderEvent
				switch {
				case err != nil:
					s.logger.Error("failed to pull ladder repository", "error", err)
					ev = engine.LadderEvent{Error: err}
				case from == to:
					continue
				default:
					s.logger.Info("ladder repository changed",
						"from_sha", shortSHA(from),
						"to_sha", shortSHA(to),
					)
					ev = engine.LadderEvent{Type: engine.LadderEventModified, Path: s.LadderPath()}
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// ensureCloned opens an existing clone at LocalPath or clones into it.
func (s *GitSource) ensureCloned(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		return nil
	}

	start := time.Now()
	repo, err := gogit.PlainOpen(s.opts.LocalPath)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		repo, err = s.clone(ctx)
	}
	if err != nil {
		return err
	}

	ref, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	s.repo = repo
	s.head = ref.Hash().String()

	s.logger.Info("ladder repository ready",
		"repository", s.opts.Repository,
		"local_path", s.opts.LocalPath,
		"commit", shortSHA(s.head),
		"duration", time.Since(start),
	)
	return nil
}

func (s *GitSource) clone(ctx context.Context) (*gogit.Repository, error) {
	if err := os.MkdirAll(s.opts.LocalPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, s.opts.LocalPath, false, &gogit.CloneOptions{
		URL:           s.opts.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(s.opts.Branch),
		SingleBranch:  true,
		Depth:         s.opts.Depth,
		Auth:          s.opts.Auth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", s.opts.Repository, err)
	}
	return repo, nil
}

// pull fast-forwards the working tree and reports HEAD before and after.
func (s *GitSource) pull(ctx context.Context) (from, to string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from = s.head
	worktree, err := s.repo.Worktree()
	if err != nil {
		return from, from, fmt.Errorf("failed to get worktree: %w", err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(s.opts.Branch),
		SingleBranch:  true,
		Auth:          s.opts.Auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return from, from, fmt.Errorf("failed to pull: %w", err)
	}

	ref, err := s.repo.Head()
	if err != nil {
		return from, from, fmt.Errorf("failed to get HEAD: %w", err)
	}
	s.head = ref.Hash().String()
	return from, s.head, nil
}

// GitAuth builds the transport auth for kind "none", "token" or "ssh".
func GitAuth(kind, token, sshKeyPath, passphrase string) (transport.AuthMethod, error) {
	switch kind {
	case "", "none":
		return nil, nil

	case "token":
		if token == "" {
			return nil, errors.New("token auth requires a token")
		}
		// Any username works with a personal access token.
		return &http.BasicAuth{Username: "git", Password: token}, nil

	case "ssh":
		if sshKeyPath == "" {
			return nil, errors.New("ssh auth requires a key path")
		}
		info, err := os.Stat(sshKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to access SSH key file: %w", err)
		}
		if mode := info.Mode().Perm(); mode&0o077 != 0 {
			return nil, fmt.Errorf("SSH key file permissions too open (%o), should be 0600", mode)
		}
		auth, err := ssh.NewPublicKeysFromFile("git", sshKeyPath, passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return auth, nil

	default:
		return nil, fmt.Errorf("unknown auth type: %s", kind)
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
