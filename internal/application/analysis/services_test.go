package analysis

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rejlers/edrs-backend/internal/domain/activity"
	aiport "github.com/rejlers/edrs-backend/internal/domain/ai"
	domain "github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
	"github.com/rejlers/edrs-backend/internal/domain/projects"
	"github.com/rejlers/edrs-backend/internal/infra/extract"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// ---- fakes ----

type fakeProjectRepo struct{ project *projects.Project }

func (f *fakeProjectRepo) Save(ctx context.Context, p *projects.Project) error { return nil }
func (f *fakeProjectRepo) Get(ctx context.Context, id projects.ProjectID) (*projects.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.project, nil
}
func (f *fakeProjectRepo) List(ctx context.Context, limit int) ([]*projects.Project, error) {
	return nil, nil
}
func (f *fakeProjectRepo) Deactivate(ctx context.Context, id projects.ProjectID) error { return nil }
func (f *fakeProjectRepo) Summary(ctx context.Context, id projects.ProjectID) (*projects.Summary, error) {
	return &projects.Summary{}, nil
}

type fakeDiagramRepo struct {
	mu           sync.Mutex
	diagram      *diagrams.Diagram
	statuses     []diagrams.Status
	resultStatus diagrams.Status
	resultCounts diagrams.SeverityCounts
}

func (f *fakeDiagramRepo) Save(ctx context.Context, d *diagrams.Diagram) error { return nil }
func (f *fakeDiagramRepo) Get(ctx context.Context, id diagrams.DiagramID) (*diagrams.Diagram, error) {
	if f.diagram == nil || f.diagram.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.diagram, nil
}
func (f *fakeDiagramRepo) Delete(ctx context.Context, id diagrams.DiagramID) error { return nil }
func (f *fakeDiagramRepo) Paginate(ctx context.Context, project projects.ProjectID, page, pageSize int, filters map[string]interface{}) (diagrams.PaginatedResult, error) {
	return diagrams.PaginatedResult{}, nil
}
func (f *fakeDiagramRepo) UpdateStatus(ctx context.Context, id diagrams.DiagramID, status diagrams.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}
func (f *fakeDiagramRepo) UpdateResult(ctx context.Context, id diagrams.DiagramID, status diagrams.Status, counts diagrams.SeverityCounts, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultStatus = status
	f.resultCounts = counts
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[domain.SessionID]domain.Session{}}
}
func (f *fakeSessionRepo) Save(ctx context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = *s
	return nil
}
func (f *fakeSessionRepo) Get(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}
func (f *fakeSessionRepo) Latest(ctx context.Context, id diagrams.DiagramID) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.Session
	for _, s := range f.sessions {
		s := s
		if s.DiagramID != id {
			continue
		}
		if latest == nil || s.StartedAt.After(latest.StartedAt) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	return latest, nil
}
func (f *fakeSessionRepo) Recent(ctx context.Context, limit int) ([]*domain.Session, error) {
	return nil, nil
}
func (f *fakeSessionRepo) Unfinished(ctx context.Context) ([]*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Session
	for _, s := range f.sessions {
		s := s
		if !s.Terminal() {
			out = append(out, &s)
		}
	}
	return out, nil
}

type fakeResultRepo struct {
	mu       sync.Mutex
	findings []*domain.Finding
	elements []*domain.Element
}

func (f *fakeResultRepo) Replace(ctx context.Context, id diagrams.DiagramID, findings []*domain.Finding, elements []*domain.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findings = findings
	f.elements = elements
	return nil
}
func (f *fakeResultRepo) Findings(ctx context.Context, id diagrams.DiagramID, filters map[string]interface{}) ([]*domain.Finding, error) {
	return f.findings, nil
}
func (f *fakeResultRepo) Elements(ctx context.Context, id diagrams.DiagramID) ([]*domain.Element, error) {
	return f.elements, nil
}
func (f *fakeResultRepo) UpdateReviewStatus(ctx context.Context, id domain.FindingID, status domain.ReviewStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fd := range f.findings {
		if fd.ID == id {
			fd.ReviewStatus = status
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeStore struct{ path string }

func (f *fakeStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return "file://" + key, nil
}
func (f *fakeStore) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "file://" + key, nil
}
func (f *fakeStore) Fetch(ctx context.Context, key string) (string, func(), error) {
	return f.path, func() {}, nil
}
func (f *fakeStore) Remove(ctx context.Context, key string) error { return nil }

type fakeAI struct {
	response string
	err      error
	calls    int
}

func (f *fakeAI) Detect(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (c *captureRecorder) Record(ctx context.Context, e activity.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}
func (c *captureRecorder) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	return c.entries, nil
}

// ---- helpers ----

func testService(t *testing.T) (*Service, *fakeDiagramRepo, *fakeSessionRepo, *fakeResultRepo, *captureRecorder) {
	t.Helper()

	// not a PDF, so the pipeline exercises the fallback path
	path := filepath.Join(t.TempDir(), "drawing.dwg")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))

	diagramRepo := &fakeDiagramRepo{diagram: &diagrams.Diagram{
		ID:            diagrams.DiagramID("d1"),
		ProjectID:     projects.ProjectID("p1"),
		DrawingNumber: "P&ID-100-001",
		Status:        diagrams.StatusUploaded,
		FileKey:       "diagrams/p1/2025/06/d1.dwg",
	}}
	sessionRepo := newFakeSessionRepo()
	resultRepo := &fakeResultRepo{}
	recorder := &captureRecorder{}

	svc := &Service{
		Diagrams: diagramRepo,
		Projects: &fakeProjectRepo{project: &projects.Project{
			ID:   projects.ProjectID("p1"),
			Name: "North Field Expansion",
			Type: projects.TypeOffshore,
		}},
		Sessions:  sessionRepo,
		Repo:      resultRepo,
		Store:     &fakeStore{path: path},
		AI:        &fakeAI{err: aiport.ErrNotConfigured},
		Progress:  NewTracker(),
		Activity:  recorder,
		Clock:     fixedClock{t: testNow},
		Model:     "gpt-4o",
		Threshold: 0.7,
		Fallback:  true,
	}
	return svc, diagramRepo, sessionRepo, resultRepo, recorder
}

// ---- tests ----

func TestStartRejectsWhenProcessing(t *testing.T) {
	svc, diagramRepo, _, _, _ := testService(t)
	diagramRepo.diagram.Status = diagrams.StatusProcessing

	_, err := svc.Start(context.Background(), "tester", diagrams.DiagramID("d1"), domain.DepthStandard)
	require.ErrorIs(t, err, ErrAnalysisRunning)
}

func TestStartRejectsOpenSession(t *testing.T) {
	svc, _, sessionRepo, _, _ := testService(t)
	require.NoError(t, sessionRepo.Save(context.Background(), &domain.Session{
		ID:        domain.SessionID("s0"),
		DiagramID: diagrams.DiagramID("d1"),
		Stage:     domain.StageErrorAnalysis,
		StartedAt: testNow,
	}))

	_, err := svc.Start(context.Background(), "tester", diagrams.DiagramID("d1"), domain.DepthStandard)
	require.ErrorIs(t, err, ErrAnalysisRunning)
}

func TestStartQueuesSession(t *testing.T) {
	svc, diagramRepo, sessionRepo, _, _ := testService(t)
	// buffered queue, no workers draining it
	svc.Pool = &Pool{svc: svc, jobs: make(chan job, 1), stop: make(chan struct{})}

	sess, err := svc.Start(context.Background(), "tester", diagrams.DiagramID("d1"), "")
	require.NoError(t, err)
	require.Equal(t, domain.StageInitiated, sess.Stage)
	require.Equal(t, domain.DepthStandard, sess.Depth)

	saved, err := sessionRepo.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StageInitiated, saved.Stage)
	require.Equal(t, []diagrams.Status{diagrams.StatusProcessing}, diagramRepo.statuses)
}

func TestStartQueueFull(t *testing.T) {
	svc, diagramRepo, sessionRepo, _, _ := testService(t)
	// zero-capacity queue with no receivers: enqueue always fails
	svc.Pool = &Pool{svc: svc, jobs: make(chan job), stop: make(chan struct{})}

	sess, err := svc.Start(context.Background(), "tester", diagrams.DiagramID("d1"), domain.DepthQuick)
	require.ErrorIs(t, err, ErrQueueFull)
	require.Nil(t, sess)

	// booking rolled back: processing then restored to the previous status
	require.Equal(t, []diagrams.Status{diagrams.StatusProcessing, diagrams.StatusUploaded}, diagramRepo.statuses)
	latest, err := sessionRepo.Latest(context.Background(), diagrams.DiagramID("d1"))
	require.NoError(t, err)
	require.Equal(t, domain.StageFailed, latest.Stage)
}

func TestRunFallbackPipeline(t *testing.T) {
	svc, diagramRepo, sessionRepo, resultRepo, recorder := testService(t)

	sess := &domain.Session{
		ID:        domain.SessionID("s1"),
		DiagramID: diagrams.DiagramID("d1"),
		Model:     "gpt-4o",
		Depth:     domain.DepthStandard,
		Stage:     domain.StageInitiated,
		StartedAt: testNow,
	}
	require.NoError(t, sessionRepo.Save(context.Background(), sess))

	svc.run(job{session: sess, diagram: diagramRepo.diagram, project: mustProject(t, svc), caller: "tester"})

	final, err := sessionRepo.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StageCompleted, final.Stage)
	require.Equal(t, 100, final.Progress)
	require.Equal(t, domain.MethodRuleBased, final.Method)
	require.NotNil(t, final.CompletedAt)

	// offshore project gets the baseline pair plus the ESD finding
	require.Len(t, resultRepo.findings, 3)
	require.Equal(t, 3, final.ErrorsFound)

	require.Equal(t, diagrams.StatusAnalyzed, diagramRepo.resultStatus)
	require.Equal(t, 3, diagramRepo.resultCounts.Total)
	require.Equal(t, 1, diagramRepo.resultCounts.Critical)

	// live snapshot dropped once terminal
	_, ok := svc.Progress.Get(sess.ID)
	require.False(t, ok)

	require.NotEmpty(t, recorder.entries)
	require.Equal(t, "analysis.completed", recorder.entries[len(recorder.entries)-1].Action)
}

func mustProject(t *testing.T, svc *Service) *projects.Project {
	t.Helper()
	p, err := svc.Projects.Get(context.Background(), projects.ProjectID("p1"))
	require.NoError(t, err)
	return p
}

func TestDetectOpenAIPath(t *testing.T) {
	svc, diagramRepo, _, _, _ := testService(t)
	svc.AI = &fakeAI{response: `{"errors":[
		{"title":"Missing PSV","severity":"critical","confidence":0.93},
		{"title":"Low confidence noise","severity":"low","confidence":0.4}
	]}`}

	sess := &domain.Session{Depth: domain.DepthStandard}
	pages := []extract.PageText{{Page: 1, Text: "FIC-101 PSV_205"}}
	findings, method, err := svc.detect(context.Background(), mustProject(t, svc), diagramRepo.diagram, sess, pages, nil, true)
	require.NoError(t, err)
	require.Equal(t, domain.MethodOpenAI, method)
	require.Len(t, findings, 1)
	require.Equal(t, domain.SeverityCritical, findings[0].Severity)
}

func TestDetectCallsModelForTextFreePDF(t *testing.T) {
	svc, diagramRepo, _, _, _ := testService(t)
	ai := &fakeAI{response: `{"errors":[]}`}
	svc.AI = ai

	// scanned PDF, no extractable text: the model still gets the prompt
	findings, method, err := svc.detect(context.Background(), mustProject(t, svc), diagramRepo.diagram, &domain.Session{Depth: domain.DepthStandard}, nil, nil, true)
	require.NoError(t, err)
	require.Equal(t, 1, ai.calls)
	require.Equal(t, domain.MethodOpenAI, method)
	require.Empty(t, findings)

	// anything without a text layer skips the model entirely
	_, method, err = svc.detect(context.Background(), mustProject(t, svc), diagramRepo.diagram, &domain.Session{}, nil, nil, false)
	require.NoError(t, err)
	require.Equal(t, 1, ai.calls)
	require.Equal(t, domain.MethodRuleBased, method)
}

func TestDetectFallsBackOnModelError(t *testing.T) {
	svc, diagramRepo, _, _, _ := testService(t)
	svc.AI = &fakeAI{err: errors.New("upstream 500")}

	pages := []extract.PageText{{Page: 1, Text: "FIC-101"}}
	findings, method, err := svc.detect(context.Background(), mustProject(t, svc), diagramRepo.diagram, &domain.Session{}, pages, nil, true)
	require.NoError(t, err)
	require.Equal(t, domain.MethodRuleBased, method)
	require.NotEmpty(t, findings)
}

func TestDetectDemoWhenUnconfiguredAndNoFallback(t *testing.T) {
	svc, diagramRepo, _, _, _ := testService(t)
	svc.Fallback = false
	svc.AI = &fakeAI{err: aiport.ErrNotConfigured}

	pages := []extract.PageText{{Page: 1, Text: "FIC-101"}}
	findings, method, err := svc.detect(context.Background(), mustProject(t, svc), diagramRepo.diagram, &domain.Session{}, pages, nil, true)
	require.NoError(t, err)
	require.Equal(t, domain.MethodDemo, method)
	require.Len(t, findings, 1)
}

func TestDetectPropagatesHardErrors(t *testing.T) {
	svc, diagramRepo, _, _, _ := testService(t)
	svc.Fallback = false
	svc.AI = &fakeAI{err: aiport.ErrQuotaExceeded}

	pages := []extract.PageText{{Page: 1, Text: "FIC-101"}}
	_, _, err := svc.detect(context.Background(), mustProject(t, svc), diagramRepo.diagram, &domain.Session{}, pages, nil, true)
	require.ErrorIs(t, err, aiport.ErrQuotaExceeded)
}

func TestReviewFinding(t *testing.T) {
	svc, _, _, resultRepo, recorder := testService(t)
	resultRepo.findings = []*domain.Finding{{
		ID:           domain.FindingID("f1"),
		DiagramID:    diagrams.DiagramID("d1"),
		Title:        "Missing PSV",
		Severity:     domain.SeverityCritical,
		ReviewStatus: domain.ReviewOpen,
	}}

	err := svc.ReviewFinding(context.Background(), "engineer", domain.FindingID("f1"), domain.ReviewAccepted)
	require.NoError(t, err)
	require.Equal(t, domain.ReviewAccepted, resultRepo.findings[0].ReviewStatus)
	require.Equal(t, "finding.reviewed", recorder.entries[len(recorder.entries)-1].Action)

	// unknown finding surfaces not-found, nothing is recorded for it
	before := len(recorder.entries)
	err = svc.ReviewFinding(context.Background(), "engineer", domain.FindingID("nope"), domain.ReviewRejected)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.Len(t, recorder.entries, before)
}

func TestRecoverFailsInterruptedSessions(t *testing.T) {
	svc, diagramRepo, sessionRepo, _, _ := testService(t)
	require.NoError(t, sessionRepo.Save(context.Background(), &domain.Session{
		ID:        domain.SessionID("stuck"),
		DiagramID: diagrams.DiagramID("d1"),
		Stage:     domain.StageErrorAnalysis,
		Progress:  75,
		StartedAt: testNow,
	}))
	require.NoError(t, sessionRepo.Save(context.Background(), &domain.Session{
		ID:        domain.SessionID("done"),
		DiagramID: diagrams.DiagramID("d1"),
		Stage:     domain.StageCompleted,
		StartedAt: testNow.Add(-time.Hour),
	}))

	require.NoError(t, svc.Recover(context.Background()))

	stuck, err := sessionRepo.Get(context.Background(), domain.SessionID("stuck"))
	require.NoError(t, err)
	require.Equal(t, domain.StageFailed, stuck.Stage)
	require.NotNil(t, stuck.CompletedAt)
	require.Equal(t, []diagrams.Status{diagrams.StatusError}, diagramRepo.statuses)

	done, err := sessionRepo.Get(context.Background(), domain.SessionID("done"))
	require.NoError(t, err)
	require.Equal(t, domain.StageCompleted, done.Stage)

	// with the wedged session failed, a new run can be booked again
	svc.Pool = &Pool{svc: svc, jobs: make(chan job, 1), stop: make(chan struct{})}
	_, err = svc.Start(context.Background(), "tester", diagrams.DiagramID("d1"), domain.DepthStandard)
	require.NoError(t, err)
}

func TestStopFailsQueuedJobs(t *testing.T) {
	svc, diagramRepo, sessionRepo, _, _ := testService(t)
	pool := &Pool{svc: svc, jobs: make(chan job, 2), stop: make(chan struct{})}
	svc.Pool = pool

	sess, err := svc.Start(context.Background(), "tester", diagrams.DiagramID("d1"), domain.DepthQuick)
	require.NoError(t, err)

	// no workers were started, so the job is still queued when Stop runs
	pool.Stop()

	got, err := sessionRepo.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StageFailed, got.Stage)
	require.NotEmpty(t, got.ErrorMessage)
	require.Equal(t, diagrams.StatusError, diagramRepo.statuses[len(diagramRepo.statuses)-1])
}

func TestStatusMergesLiveProgress(t *testing.T) {
	svc, _, sessionRepo, _, _ := testService(t)
	sess := &domain.Session{
		ID:        domain.SessionID("s1"),
		DiagramID: diagrams.DiagramID("d1"),
		Stage:     domain.StageInitiated,
		StartedAt: testNow,
	}
	require.NoError(t, sessionRepo.Save(context.Background(), sess))
	svc.Progress.Publish(sess.ID, domain.StageOCRProcessing, 30)

	got, err := svc.Status(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StageOCRProcessing, got.Stage)
	require.Equal(t, 30, got.Progress)

	latest, err := svc.LatestStatus(context.Background(), diagrams.DiagramID("d1"))
	require.NoError(t, err)
	require.Equal(t, domain.StageOCRProcessing, latest.Stage)
}
