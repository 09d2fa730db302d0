package usecase_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/ghsnap/pkg/domain/model"
	"github.com/m-mizutani/ghsnap/pkg/domain/types"
	"github.com/m-mizutani/ghsnap/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// MockGitHubClient is a mock implementation of GitHubClient
type MockGitHubClient struct {
	mu         sync.Mutex
	listings   map[string][]*model.TreeEntry
	files      map[string][]byte
	listFunc   func(ctx context.Context, listingURL string) ([]*model.TreeEntry, error)
	fetchFunc  func(ctx context.Context, fileURL string) ([]byte, error)
	listCalls  []string
	fetchCalls []string
}

const mockBaseURL = "https://api.example.com"

func (m *MockGitHubClient) ContentsURL(repo model.RepoRef, ref string) string {
	u := mockBaseURL + "/repos/" + repo.Owner + "/" + repo.Name + "/contents"
	if ref != "" {
		u += "?ref=" + ref
	}
	return u
}

func (m *MockGitHubClient) ListDirectory(ctx context.Context, listingURL string) ([]*model.TreeEntry, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, listingURL)
	m.mu.Unlock()

	if m.listFunc != nil {
		return m.listFunc(ctx, listingURL)
	}
	if entries, ok := m.listings[listingURL]; ok {
		return entries, nil
	}
	return nil, errors.New("mock not configured for listing: " + listingURL)
}

func (m *MockGitHubClient) FetchFile(ctx context.Context, fileURL string) ([]byte, error) {
	m.mu.Lock()
	m.fetchCalls = append(m.fetchCalls, fileURL)
	m.mu.Unlock()

	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, fileURL)
	}
	if data, ok := m.files[fileURL]; ok {
		return data, nil
	}
	return nil, errors.New("mock not configured for file: " + fileURL)
}

// newTreeMock builds a mock client serving the given flat tree, where keys
// are repository relative paths like "sub/b.txt".
func newTreeMock(repo model.RepoRef, tree map[string]string) *MockGitHubClient {
	m := &MockGitHubClient{
		listings: map[string][]*model.TreeEntry{},
		files:    map[string][]byte{},
	}

	base := mockBaseURL + "/repos/" + repo.Owner + "/" + repo.Name + "/contents"
	dirURL := func(dirPath string) string {
		if dirPath == "" {
			return base
		}
		return base + "/" + dirPath
	}

	m.listings[base] = nil
	seen := map[string]bool{}

	paths := make([]string, 0, len(tree))
	for path := range tree {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		segments := strings.Split(path, "/")

		// Register intermediate directories top-down.
		parent := ""
		for _, segment := range segments[:len(segments)-1] {
			dir := segment
			if parent != "" {
				dir = parent + "/" + segment
			}
			if !seen[dir] {
				seen[dir] = true
				m.listings[dirURL(parent)] = append(m.listings[dirURL(parent)], &model.TreeEntry{
					Kind: model.EntryKindDir,
					Name: segment,
					Path: dir,
					URL:  dirURL(dir),
				})
				m.listings[dirURL(dir)] = nil
			}
			parent = dir
		}

		fileURL := base + "/" + path + "?raw=1"
		m.listings[dirURL(parent)] = append(m.listings[dirURL(parent)], &model.TreeEntry{
			Kind: model.EntryKindFile,
			Name: segments[len(segments)-1],
			Path: path,
			URL:  fileURL,
			Size: int64(len(tree[path])),
		})
		m.files[fileURL] = []byte(tree[path])
	}

	return m
}

// countingWriter records how many Write calls delivered the archive.
type countingWriter struct {
	writes int
	buf    bytes.Buffer
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.buf.Write(p)
}

// readZip maps a zip stream back to path -> content for assertions.
func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	gt.NoError(t, err)

	out := map[string]string{}
	for _, file := range reader.File {
		rc, err := file.Open()
		gt.NoError(t, err)
		content, err := io.ReadAll(rc)
		gt.NoError(t, err)
		gt.NoError(t, rc.Close())
		out[file.Name] = string(content)
	}
	return out
}

func TestArchiveUseCase_BuildArchive_EndToEnd(t *testing.T) {
	ctx := context.Background()

	// Parse the user-supplied URL
	repo, err := model.ParseRepoURL("https://github.com/acme/widgets")
	gt.NoError(t, err)

	// Setup mock tree
	mockClient := newTreeMock(*repo, map[string]string{
		"a.txt":     "hi",
		"sub/b.txt": "bye",
	})

	// Create use case
	uc := usecase.NewArchive(mockClient)

	// Execute
	reporter := model.NewReporter(nil)
	var buf bytes.Buffer
	summary, err := uc.BuildArchive(ctx, &model.ArchiveRequest{
		Repo:     *repo,
		Reporter: reporter,
	}, &buf)

	// Verify
	gt.NoError(t, err)
	gt.Equal(t, summary.Filename, "widgets.zip")
	gt.Equal(t, summary.Files, 2)
	gt.Equal(t, summary.Bytes, int64(len("hi")+len("bye")))
	gt.Equal(t, reporter.Snapshot().Completed, 2)

	entries := readZip(t, buf.Bytes())
	gt.Equal(t, entries, map[string]string{
		"a.txt":     "hi",
		"sub/b.txt": "bye",
	})
}

func TestArchiveUseCase_BuildArchive_DeepTree(t *testing.T) {
	ctx := context.Background()
	repo := model.RepoRef{Owner: "acme", Name: "deep"}

	// Every file must land in the archive byte-identical, whatever the
	// completion order of the download tasks.
	tree := map[string]string{
		"README.md":                "readme",
		"cmd/app/main.go":          "package main",
		"pkg/a/a.go":               "package a",
		"pkg/a/a_test.go":          "package a_test",
		"pkg/a/inner/deep.go":      "package inner",
		"pkg/b/b.go":               "package b",
		"docs/guide/ch1/intro.md":  "chapter one",
		"docs/guide/ch2/detail.md": "chapter two",
		".gitignore":               "*.log",
	}
	mockClient := newTreeMock(repo, tree)

	uc := usecase.NewArchive(mockClient)

	var buf bytes.Buffer
	summary, err := uc.BuildArchive(ctx, &model.ArchiveRequest{Repo: repo}, &buf)

	gt.NoError(t, err)
	gt.Equal(t, summary.Files, len(tree))
	gt.Equal(t, readZip(t, buf.Bytes()), tree)
}

func TestArchiveUseCase_BuildArchive_DeliversArchiveInOneWrite(t *testing.T) {
	ctx := context.Background()
	repo := model.RepoRef{Owner: "acme", Name: "widgets"}

	tree := map[string]string{
		"a.txt":     "hi",
		"sub/b.txt": "bye",
	}
	mockClient := newTreeMock(repo, tree)

	uc := usecase.NewArchive(mockClient)

	// The destination must see the finished archive, never zip fragments.
	out := &countingWriter{}
	_, err := uc.BuildArchive(ctx, &model.ArchiveRequest{Repo: repo}, out)

	gt.NoError(t, err)
	gt.Equal(t, out.writes, 1)
	gt.Equal(t, readZip(t, out.buf.Bytes()), tree)
}

func TestArchiveUseCase_BuildArchive_EmptyRepository(t *testing.T) {
	ctx := context.Background()
	repo := model.RepoRef{Owner: "acme", Name: "empty"}
	mockClient := newTreeMock(repo, map[string]string{})

	uc := usecase.NewArchive(mockClient)

	var buf bytes.Buffer
	summary, err := uc.BuildArchive(ctx, &model.ArchiveRequest{Repo: repo}, &buf)

	gt.NoError(t, err)
	gt.Equal(t, summary.Files, 0)
	gt.Equal(t, len(readZip(t, buf.Bytes())), 0)
}

func TestArchiveUseCase_BuildArchive_SkipsUnsupportedEntries(t *testing.T) {
	ctx := context.Background()
	repo := model.RepoRef{Owner: "acme", Name: "mixed"}

	mockClient := newTreeMock(repo, map[string]string{"a.txt": "hi"})
	rootURL := mockClient.ContentsURL(repo, "")
	mockClient.listings[rootURL] = append(mockClient.listings[rootURL], &model.TreeEntry{
		Kind: model.EntryKind("symlink"),
		Name: "link",
		Path: "link",
		URL:  mockBaseURL + "/repos/acme/mixed/contents/link",
	})

	uc := usecase.NewArchive(mockClient)

	var buf bytes.Buffer
	summary, err := uc.BuildArchive(ctx, &model.ArchiveRequest{Repo: repo}, &buf)

	gt.NoError(t, err)
	gt.Equal(t, summary.Files, 1)
	gt.Equal(t, readZip(t, buf.Bytes()), map[string]string{"a.txt": "hi"})
}

func TestArchiveUseCase_BuildArchive_SkipWarningCarriesListedPath(t *testing.T) {
	repo := model.RepoRef{Owner: "acme", Name: "mixed"}

	mockClient := newTreeMock(repo, map[string]string{"a.txt": "hi"})
	rootURL := mockClient.ContentsURL(repo, "")

	// The warning must repeat the path field of the listing itself, not a
	// value recomputed from the walk position.
	mockClient.listings[rootURL] = append(mockClient.listings[rootURL], &model.TreeEntry{
		Kind: model.EntryKind("symlink"),
		Name: "link",
		Path: "docs/link",
		URL:  mockBaseURL + "/repos/acme/mixed/contents/link",
	})

	var logBuf bytes.Buffer
	ctx := ctxlog.With(context.Background(), slog.New(slog.NewJSONHandler(&logBuf, nil)))

	uc := usecase.NewArchive(mockClient)

	var buf bytes.Buffer
	summary, err := uc.BuildArchive(ctx, &model.ArchiveRequest{Repo: repo}, &buf)

	gt.NoError(t, err)
	gt.Equal(t, summary.Files, 1)
	gt.String(t, logBuf.String()).Contains(`"kind":"symlink"`)
	gt.String(t, logBuf.String()).Contains(`"path":"docs/link"`)
}

func TestArchiveUseCase_BuildArchive_ConcurrencyBound(t *testing.T) {
	ctx := context.Background()
	repo := model.RepoRef{Owner: "acme", Name: "busy"}

	tree := map[string]string{}
	for i := 0; i < 30; i++ {
		tree[fmt.Sprintf("file-%02d.txt", i)] = "content"
	}
	mockClient := newTreeMock(repo, tree)

	// Track the number of concurrently outstanding requests.
	var inflight, peak atomic.Int64
	enter := func() {
		cur := inflight.Add(1)
		for {
			prev := peak.Load()
			if cur <= prev || peak.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	mockClient.listFunc = func(ctx context.Context, listingURL string) ([]*model.TreeEntry, error) {
		enter()
		defer inflight.Add(-1)
		return mockClient.listings[listingURL], nil
	}
	mockClient.fetchFunc = func(ctx context.Context, fileURL string) ([]byte, error) {
		enter()
		defer inflight.Add(-1)
		return mockClient.files[fileURL], nil
	}

	uc := usecase.NewArchive(mockClient)

	var buf bytes.Buffer
	summary, err := uc.BuildArchive(ctx, &model.ArchiveRequest{Repo: repo}, &buf)

	gt.NoError(t, err)
	gt.Equal(t, summary.Files, 30)

	// Never more than the bound, and actually parallel rather than serial.
	gt.Number(t, int(peak.Load())).Greater(1)
	gt.True(t, peak.Load() <= usecase.DefaultMaxInflight)
}

func TestArchiveUseCase_BuildArchive_CustomInflightBound(t *testing.T) {
	ctx := context.Background()
	repo := model.RepoRef{Owner: "acme", Name: "slow"}

	tree := map[string]string{}
	for i := 0; i < 10; i++ {
		tree[fmt.Sprintf("f%d.txt", i)] = "x"
	}
	mockClient := newTreeMock(repo, tree)

	var inflight, peak atomic.Int64
	mockClient.fetchFunc = func(ctx context.Context, fileURL string) ([]byte, error) {
		cur := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			prev := peak.Load()
			if cur <= prev || peak.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return mockClient.files[fileURL], nil
	}

	uc := usecase.NewArchive(mockClient, usecase.WithMaxInflight(1))

	var buf bytes.Buffer
	_, err := uc.BuildArchive(ctx, &model.ArchiveRequest{Repo: repo}, &buf)

	gt.NoError(t, err)
	gt.Equal(t, peak.Load(), int64(1))
}

func TestArchiveUseCase_BuildArchive_NotFoundAbortsWithoutArchive(t *testing.T) {
	ctx := context.Background()
	repo := model.RepoRef{Owner: "acme", Name: "flaky"}

	mockClient := newTreeMock(repo, map[string]string{
		"a.txt": "hi",
		"b.txt": "bye",
		"c.txt": "gone",
	})

	// One file vanished between listing and fetch.
	missing := mockBaseURL + "/repos/acme/flaky/contents/c.txt?raw=1"
	baseFetch := mockClient.files
	mockClient.fetchFunc = func(ctx context.Context, fileURL string) ([]byte, error) {
		if fileURL == missing {
			return nil, goerr.New("resource not found on GitHub",
				goerr.T(types.ErrTagNotFound),
				goerr.V("status_code", 404),
			)
		}
		return baseFetch[fileURL], nil
	}

	uc := usecase.NewArchive(mockClient)

	reporter := model.NewReporter(nil)
	var buf bytes.Buffer
	summary, err := uc.BuildArchive(ctx, &model.ArchiveRequest{
		Repo:     repo,
		Reporter: reporter,
	}, &buf)

	// Verify: all-or-nothing, nothing written, classified as not found.
	gt.Error(t, err)
	gt.Value(t, summary).Nil()
	gt.Equal(t, buf.Len(), 0)
	gt.Equal(t, model.ClassifyError(err).Kind, model.ErrorKindNotFound)
	gt.Error(t, reporter.LastError())
	gt.String(t, err.Error()).Contains("failed to download file")
}

func TestArchiveUseCase_BuildArchive_ListingErrorAborts(t *testing.T) {
	ctx := context.Background()
	repo := model.RepoRef{Owner: "acme", Name: "dark"}

	mockClient := &MockGitHubClient{}
	mockClient.listFunc = func(ctx context.Context, listingURL string) ([]*model.TreeEntry, error) {
		return nil, goerr.New("GitHub API returned an error status",
			goerr.T(types.ErrTagUpstreamStatus),
			goerr.V("status_code", 502),
		)
	}

	uc := usecase.NewArchive(mockClient)

	var buf bytes.Buffer
	summary, err := uc.BuildArchive(ctx, &model.ArchiveRequest{Repo: repo}, &buf)

	gt.Error(t, err)
	gt.Value(t, summary).Nil()
	gt.Equal(t, buf.Len(), 0)
	gt.Equal(t, model.ClassifyError(err).Kind, model.ErrorKindUpstreamStatus)
	gt.String(t, model.ClassifyError(err).Message).Contains("502")
}

func TestArchiveUseCase_BuildArchive_FailureCancelsSiblings(t *testing.T) {
	ctx := context.Background()
	repo := model.RepoRef{Owner: "acme", Name: "race"}

	mockClient := newTreeMock(repo, map[string]string{
		"fast.txt": "boom",
		"slow.txt": "never delivered",
	})

	failURL := mockBaseURL + "/repos/acme/race/contents/fast.txt?raw=1"
	var sawCancel atomic.Bool
	slowStarted := make(chan struct{})
	mockClient.fetchFunc = func(ctx context.Context, fileURL string) ([]byte, error) {
		if fileURL == failURL {
			// Fail only once the sibling download is in flight.
			<-slowStarted
			return nil, goerr.New("resource not found on GitHub", goerr.T(types.ErrTagNotFound))
		}
		close(slowStarted)
		select {
		case <-ctx.Done():
			sawCancel.Store(true)
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return mockClient.files[fileURL], nil
		}
	}

	uc := usecase.NewArchive(mockClient)

	var buf bytes.Buffer
	_, err := uc.BuildArchive(ctx, &model.ArchiveRequest{Repo: repo}, &buf)

	gt.Error(t, err)
	gt.Equal(t, model.ClassifyError(err).Kind, model.ErrorKindNotFound)
	gt.True(t, sawCancel.Load())
	gt.Equal(t, buf.Len(), 0)
}
