package correlate

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dkoosis/shotlink/pkg/manifest"
	"github.com/dkoosis/shotlink/pkg/screenshot"
	"github.com/dkoosis/shotlink/pkg/testresult"
)

const (
	runDir    = "2016_01_01_12_00_00"
	loginCase = "login_test [Capabilities [{platform=WINDOWS, browserName=chrome, version=90}]]"
	trace     = "NullPointerException: boom\n\tat com.x.Y.z(Y.java:10)"
)

func suiteOutput(suffix string) string {
	return "start\n[Save TestResult] C:\\results\\" + runDir + "\\" + suffix + "\\result.json\n"
}

func writeShot(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(rel), 0o644))
}

type fixture struct {
	artifacts string
	storage   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		artifacts: filepath.Join(base, "artifacts"),
		storage:   filepath.Join(base, "storage"),
	}
	writeShot(t, f.artifacts, runDir+"/LoginTest/login_test_001_WINDOWS_chrome_90.png")
	writeShot(t, f.artifacts, runDir+"/LoginTest/login_test_002_WINDOWS_chrome_90.png")
	writeShot(t, f.artifacts, runDir+"/LoginTest/login_test_001_MAC_safari_9.png")
	return f
}

func loginSuite() testresult.Suite {
	return testresult.Suite{
		Name:   "com.ex.LoginTest",
		Stdout: suiteOutput("LoginTest"),
		Cases: []testresult.Case{
			{Package: "com.ex", Class: "com.ex.LoginTest", Name: loginCase, Outcome: testresult.Passed},
			{Package: "com.ex", Class: "com.ex.LoginTest", Name: "plain", Outcome: testresult.Skipped},
		},
	}
}

func TestBuild_MatchesAndCopies(t *testing.T) {
	f := newFixture(t)
	b := New(f.artifacts, f.storage, WithWorkers(2))

	res, err := b.Build(context.Background(), []testresult.Suite{loginSuite()})
	require.NoError(t, err)

	want := map[string]map[string]map[string][]string{
		"com.ex": {"com.ex.LoginTest": {
			loginCase: {"login_test_001_WINDOWS_chrome_90.png", "login_test_002_WINDOWS_chrome_90.png"},
			"plain":   {},
		}},
	}
	if diff := cmp.Diff(want, res.Tree.Files()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}

	caseDir := filepath.Join(f.storage, "com.ex", "com.ex.LoginTest", loginCase)
	assert.FileExists(t, filepath.Join(caseDir, "login_test_001_WINDOWS_chrome_90.png"))
	assert.NoFileExists(t, filepath.Join(caseDir, "login_test_001_MAC_safari_9.png"))
	assert.DirExists(t, filepath.Join(f.storage, "com.ex", "com.ex.LoginTest", "plain"))

	leaf := res.Tree.Manifest()["com.ex"]["com.ex.LoginTest"][loginCase]
	assert.Equal(t, map[string]string{
		"platform":    "WINDOWS",
		"browserName": "chrome",
		"version":     "90",
		"errName":     "SUCCESS",
		"errLocation": "SUCCESS",
	}, leaf)

	require.Len(t, res.Cases, 2)
	assert.Equal(t, StatusMatched, res.Cases[0].Status)
	assert.Equal(t, "**/login_test_*_WINDOWS_chrome_90*png", res.Cases[0].Pattern)
	assert.Equal(t, StatusNameMismatch, res.Cases[1].Status)
	assert.ErrorIs(t, res.Cases[1].Err, ErrNameMismatch)
}

func TestBuild_FailingCaseWithoutMatches(t *testing.T) {
	f := newFixture(t)
	suite := testresult.Suite{
		Name:   "pkg.cls",
		Stdout: suiteOutput("LoginTest"),
		Cases: []testresult.Case{{
			Package:    "pkg",
			Class:      "cls",
			Name:       "checkout [Capabilities [{platform=LINUX, browserName=firefox}]]",
			Outcome:    testresult.Failed,
			StackTrace: trace,
		}},
	}

	res, err := New(f.artifacts, f.storage).Build(context.Background(), []testresult.Suite{suite})
	require.NoError(t, err)

	name := suite.Cases[0].Name
	assert.Equal(t, []string{}, res.Tree.Files()["pkg"]["cls"][name])
	leaf := res.Tree.Manifest()["pkg"]["cls"][name]
	assert.Equal(t, "LINUX", leaf["platform"])
	assert.Equal(t, "firefox", leaf["browserName"])
	assert.Equal(t, "NullPointerException", leaf["errName"])
	assert.Equal(t, "com.x.Y.z(Y.java:10)", leaf["errLocation"])
	assert.Equal(t, StatusNoMatch, res.Cases[0].Status)
	assert.False(t, res.Cases[0].Failed())
}

func TestBuild_MissingMarkerKeepsCases(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	suite := loginSuite()
	suite.Stdout = "no marker here"

	res, err := New(f.artifacts, f.storage, WithLogger(zap.New(core))).
		Build(context.Background(), []testresult.Suite{suite})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Tree.Len())
	assert.Equal(t, StatusLogMismatch, res.Cases[0].Status)
	assert.Equal(t, []string{}, res.Tree.Files()["com.ex"]["com.ex.LoginTest"][loginCase])
	assert.Equal(t, 1, logs.FilterMessageSnippet("no artifact directory").Len(), "logged once per suite")
}

func TestBuild_MissingDirectoryDoesNotStopSiblings(t *testing.T) {
	f := newFixture(t)
	gone := loginSuite()
	gone.Name = "gone"
	gone.Stdout = suiteOutput("Gone")
	for i := range gone.Cases {
		gone.Cases[i].Class = "com.ex.GoneTest"
	}

	res, err := New(f.artifacts, f.storage).Build(context.Background(), []testresult.Suite{gone, loginSuite()})
	require.NoError(t, err)

	assert.Equal(t, StatusMissingDir, res.Cases[0].Status)
	assert.True(t, res.Cases[0].Failed())
	assert.Equal(t, StatusMatched, res.Cases[2].Status)
	assert.Equal(t, 1, res.Count(StatusMissingDir))
	assert.Equal(t, 1, res.Count(StatusMatched))
}

func TestBuild_MalformedCapabilityWarnsAndContinues(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	name := "login_test [Capabilities [{platform=WINDOWS, headless, browserName=chrome, version=90}]]"
	suite := testresult.Suite{
		Stdout: suiteOutput("LoginTest"),
		Cases:  []testresult.Case{{Package: "p", Class: "p.C", Name: name, Outcome: testresult.Passed}},
	}

	res, err := New(f.artifacts, f.storage, WithLogger(zap.New(core))).
		Build(context.Background(), []testresult.Suite{suite})
	require.NoError(t, err)

	assert.Len(t, res.Tree.Files()["p"]["p.C"][name], 2)
	_, has := res.Tree.Manifest()["p"]["p.C"][name]["headless"]
	assert.False(t, has)
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed capability").Len())
}

func TestBuild_DuplicateKeepsLast(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	first := testresult.Case{Package: "p", Class: "p.C", Name: loginCase, Outcome: testresult.Failed, StackTrace: trace}
	second := first
	second.Outcome = testresult.Passed
	suite := testresult.Suite{Stdout: suiteOutput("LoginTest"), Cases: []testresult.Case{first, second}}

	res, err := New(f.artifacts, f.storage, WithLogger(zap.New(core))).
		Build(context.Background(), []testresult.Suite{suite})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Tree.Len())
	assert.Equal(t, "SUCCESS", res.Tree.Manifest()["p"]["p.C"][loginCase]["errName"])
	assert.Equal(t, 1, logs.FilterMessageSnippet("duplicate").Len())
}

func TestBuild_Idempotent(t *testing.T) {
	f := newFixture(t)
	b := New(f.artifacts, f.storage)
	suites := []testresult.Suite{loginSuite()}

	first, err := b.Build(context.Background(), suites)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), suites)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Tree.Files(), second.Tree.Files()); diff != "" {
		t.Errorf("second pass changed the index (-first +second):\n%s", diff)
	}
	entries, err := os.ReadDir(filepath.Join(f.storage, "com.ex", "com.ex.LoginTest", loginCase))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBuild_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(f.artifacts, f.storage).Build(ctx, []testresult.Suite{loginSuite()})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_NoSuites(t *testing.T) {
	res, err := New(t.TempDir(), t.TempDir()).Build(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Tree.Len())
	assert.Empty(t, res.Cases)
}

func TestPublish_WritesManifest(t *testing.T) {
	f := newFixture(t)

	res, err := New(f.artifacts, f.storage).Publish(context.Background(), []testresult.Suite{loginSuite()})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.storage, manifest.FileName))
	require.NoError(t, err)
	got, err := manifest.Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(res.Tree.Manifest(), got); diff != "" {
		t.Errorf("manifest mismatch (-tree +file):\n%s", diff)
	}
}

func TestPublish_ManifestFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.storage, 0o755))
	// A directory named result.js makes the final write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(f.storage, manifest.FileName), 0o755))

	res, err := New(f.artifacts, f.storage).Publish(context.Background(), []testresult.Suite{loginSuite()})

	require.Error(t, err)
	require.NotNil(t, res, "the index is still returned")
	assert.Equal(t, 2, res.Tree.Len())
}

type recordingObserver struct {
	mu    sync.Mutex
	total int
	done  []Status
}

func (o *recordingObserver) Start(total int) { o.total = total }

func (o *recordingObserver) CaseDone(r CaseReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done = append(o.done, r.Status)
}

func TestBuild_NotifiesObserver(t *testing.T) {
	f := newFixture(t)
	obs := &recordingObserver{}
	b := New(f.artifacts, f.storage, WithWorkers(2), WithObserver(obs))

	_, err := b.Build(context.Background(), []testresult.Suite{loginSuite()})
	require.NoError(t, err)

	assert.Equal(t, 2, obs.total)
	assert.ElementsMatch(t, []Status{StatusMatched, StatusNameMismatch}, obs.done)
}

func TestBuild_SanitizedNameCollisionKeepsLast(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	colon := "login:test [Capabilities [{platform=WINDOWS, browserName=chrome, version=90}]]"
	first := testresult.Case{Package: "p", Class: "p.C", Name: colon, Outcome: testresult.Failed, StackTrace: trace}
	second := testresult.Case{Package: "p", Class: "p.C", Name: loginCase, Outcome: testresult.Passed}
	suite := testresult.Suite{Stdout: suiteOutput("LoginTest"), Cases: []testresult.Case{first, second}}

	res, err := New(f.artifacts, f.storage, WithLogger(zap.New(core))).
		Build(context.Background(), []testresult.Suite{suite})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Tree.Len())
	_, dropped := res.Tree.Files()["p"]["p.C"][colon]
	assert.False(t, dropped)
	assert.Len(t, res.Tree.Files()["p"]["p.C"][loginCase], 2)
	assert.Equal(t, 1, logs.FilterMessageSnippet("collide").Len())

	entries, err := os.ReadDir(filepath.Join(f.storage, "p", "p.C"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "one directory for both names")
}

func TestBuild_TokenOutsideArtifactRoot(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	writeShot(t, filepath.Dir(f.artifacts), "outside/login_test_001_WINDOWS_chrome_90.png")
	suite := loginSuite()
	suite.Stdout = "[Save TestResult] C:\\results\\" + runDir + "\\..\\..\\outside\\result.json\n"

	res, err := New(f.artifacts, f.storage, WithLogger(zap.New(core))).
		Build(context.Background(), []testresult.Suite{suite})
	require.NoError(t, err)

	assert.Equal(t, StatusLogMismatch, res.Cases[0].Status)
	assert.ErrorIs(t, res.Cases[0].Err, screenshot.ErrTokenOutsideRoot)
	assert.Equal(t, []string{}, res.Tree.Files()["com.ex"]["com.ex.LoginTest"][loginCase])
	assert.NotEmpty(t, logs.FilterMessageSnippet("escapes the artifact root").All())
}

func TestBuild_BaseNameFallbackWithoutSuffix(t *testing.T) {
	f := newFixture(t)
	suite := testresult.Suite{
		Stdout: suiteOutput("LoginTest"),
		Cases:  []testresult.Case{{Package: "p", Class: "p.C", Name: "login_test [Capabilities]", Outcome: testresult.Passed}},
	}

	res, err := New(f.artifacts, f.storage).Build(context.Background(), []testresult.Suite{suite})
	require.NoError(t, err)

	assert.Len(t, res.Tree.Files()["p"]["p.C"]["login_test [Capabilities]"], 3, "every login_test shot matches")
}
