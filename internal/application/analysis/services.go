package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/rejlers/edrs-backend/internal/application"
	"github.com/rejlers/edrs-backend/internal/domain/activity"
	aiport "github.com/rejlers/edrs-backend/internal/domain/ai"
	domain "github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
	"github.com/rejlers/edrs-backend/internal/domain/projects"
	"github.com/rejlers/edrs-backend/internal/infra/ai/prompt"
	"github.com/rejlers/edrs-backend/internal/infra/extract"
)

// ErrAnalysisRunning: the diagram already has a non-terminal session.
var ErrAnalysisRunning = errors.New("analysis already running for this diagram")

// Service drives the detection pipeline over uploaded drawings.
// Safe for concurrent use; Pool must be attached before Start is called.
type Service struct {
	Diagrams diagrams.Repository
	Projects projects.Repository
	Sessions domain.SessionRepository
	Repo     domain.ResultRepository
	Store    diagrams.FileStore
	AI       aiport.Client
	Progress *Tracker
	Activity activity.Recorder
	Clock    application.Clock
	Pool     *Pool

	Model     string
	Threshold float64
	Fallback  bool
}

// Start validates, books a session and queues the pipeline run.
// Only one non-terminal session per diagram is allowed.
func (s *Service) Start(ctx context.Context, caller string, id diagrams.DiagramID, depth domain.Depth) (*domain.Session, error) {
	d, err := s.Diagrams.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == diagrams.StatusProcessing {
		return nil, ErrAnalysisRunning
	}
	if latest, err := s.Sessions.Latest(ctx, id); err == nil && !latest.Terminal() {
		return nil, ErrAnalysisRunning
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	p, err := s.Projects.Get(ctx, d.ProjectID)
	if err != nil {
		return nil, err
	}

	if depth == "" {
		depth = domain.DepthStandard
	}
	now := s.Clock.Now()
	sess := &domain.Session{
		ID:        domain.SessionID(uuid.New().String()),
		DiagramID: id,
		Model:     s.Model,
		Depth:     depth,
		Stage:     domain.StageInitiated,
		Progress:  0,
		StartedAt: now,
	}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.Diagrams.UpdateStatus(ctx, id, diagrams.StatusProcessing); err != nil {
		return nil, err
	}
	s.Progress.Publish(sess.ID, domain.StageInitiated, 0)

	if err := s.Pool.enqueue(job{session: sess, diagram: d, project: p, caller: caller}); err != nil {
		// roll back the booking so a retry is possible right away
		sess.Stage = domain.StageFailed
		sess.ErrorMessage = err.Error()
		_ = s.Sessions.Save(ctx, sess)
		_ = s.Diagrams.UpdateStatus(ctx, id, d.Status)
		s.Progress.Clear(sess.ID)
		return nil, err
	}
	return sess, nil
}

// Status merges the live in-memory snapshot over the persisted session
func (s *Service) Status(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap, ok := s.Progress.Get(id); ok {
		sess.Stage = snap.Stage
		sess.Progress = snap.Percent
	}
	return sess, nil
}

func (s *Service) Session(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	return s.Status(ctx, id)
}

// LatestStatus is Status keyed by diagram instead of session
func (s *Service) LatestStatus(ctx context.Context, id diagrams.DiagramID) (*domain.Session, error) {
	sess, err := s.Sessions.Latest(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap, ok := s.Progress.Get(sess.ID); ok {
		sess.Stage = snap.Stage
		sess.Progress = snap.Percent
	}
	return sess, nil
}

// ResultSet is the full analysis read model for one diagram
type ResultSet struct {
	Diagram  *diagrams.Diagram `json:"diagram"`
	Session  *domain.Session   `json:"session,omitempty"`
	Findings []*domain.Finding `json:"findings"`
	Elements []*domain.Element `json:"elements"`
}

// Results returns findings + elements + the latest session for a diagram
func (s *Service) Results(ctx context.Context, id diagrams.DiagramID, filters map[string]interface{}) (*ResultSet, error) {
	d, err := s.Diagrams.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	findings, err := s.Repo.Findings(ctx, id, filters)
	if err != nil {
		return nil, err
	}
	elements, err := s.Repo.Elements(ctx, id)
	if err != nil {
		return nil, err
	}
	rs := &ResultSet{Diagram: d, Findings: findings, Elements: elements}
	if sess, err := s.Sessions.Latest(ctx, id); err == nil {
		rs.Session = sess
	}
	return rs, nil
}

// RecentSessions feeds the dashboard activity feed
func (s *Service) RecentSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	return s.Sessions.Recent(ctx, limit)
}

// ReviewFinding records an engineer's disposition (accept/reject/fix/...)
// for a detected error.
func (s *Service) ReviewFinding(ctx context.Context, caller string, id domain.FindingID, status domain.ReviewStatus) error {
	if err := s.Repo.UpdateReviewStatus(ctx, id, status); err != nil {
		return err
	}
	s.Activity.Record(ctx, activity.Entry{
		Actor:        caller,
		Action:       "finding.reviewed",
		ResourceType: "finding",
		ResourceID:   string(id),
		Details:      map[string]any{"review_status": string(status)},
		Timestamp:    s.Clock.Now(),
	})
	return nil
}

// Recover fails every session left non-terminal by a previous process.
// Without it a crash mid-run leaves the diagram wedged in processing and
// Start answers 409 forever. Call once at startup, before serving.
func (s *Service) Recover(ctx context.Context) error {
	open, err := s.Sessions.Unfinished(ctx)
	if err != nil {
		return err
	}
	for _, sess := range open {
		s.abort(ctx, sess, "interrupted by restart")
	}
	if len(open) > 0 {
		log.Printf("analysis: recovered %d interrupted session(s)", len(open))
	}
	return nil
}

// abort marks one session failed and releases its diagram for re-analysis
func (s *Service) abort(ctx context.Context, sess *domain.Session, reason string) {
	now := s.Clock.Now()
	sess.Stage = domain.StageFailed
	sess.Progress = 100
	sess.ErrorMessage = reason
	sess.CompletedAt = &now
	if err := s.Sessions.Save(ctx, sess); err != nil {
		log.Printf("analysis: aborting session=%s err=%v", sess.ID, err)
	}
	if err := s.Diagrams.UpdateStatus(ctx, sess.DiagramID, diagrams.StatusError); err != nil {
		log.Printf("analysis: releasing diagram=%s err=%v", sess.DiagramID, err)
	}
	s.Progress.Clear(sess.ID)
}

// run executes the pipeline on a worker goroutine. Uses its own context
// so the run is not cancelled when the triggering request returns.
func (s *Service) run(j job) {
	ctx := context.Background()
	sess, d, p := j.session, j.diagram, j.project
	started := s.Clock.Now()

	fail := func(err error) {
		now := s.Clock.Now()
		sess.Stage = domain.StageFailed
		sess.Progress = 100
		sess.ErrorMessage = err.Error()
		sess.ProcessingSeconds = now.Sub(started).Seconds()
		sess.CompletedAt = &now
		if serr := s.Sessions.Save(ctx, sess); serr != nil {
			log.Printf("analysis: saving failed session=%s err=%v", sess.ID, serr)
		}
		if uerr := s.Diagrams.UpdateStatus(ctx, d.ID, diagrams.StatusError); uerr != nil {
			log.Printf("analysis: marking diagram error id=%s err=%v", d.ID, uerr)
		}
		s.Progress.Clear(sess.ID)
		log.Printf("analysis: session=%s diagram=%s failed err=%v", sess.ID, d.ID, err)
	}

	s.advance(ctx, sess, domain.StagePreprocessing, 10)
	path, cleanup, err := s.Store.Fetch(ctx, d.FileKey)
	if err != nil {
		fail(fmt.Errorf("fetching file: %w", err))
		return
	}
	defer cleanup()

	// only PDFs yield text; scanned images go straight to the fallback path
	var pages []extract.PageText
	s.advance(ctx, sess, domain.StageOCRProcessing, 30)
	isPDF := strings.EqualFold(filepath.Ext(path), ".pdf")
	if isPDF {
		if pages, err = extract.PDFText(path); err != nil {
			log.Printf("analysis: pdf extract diagram=%s err=%v", d.ID, err)
			pages = nil
		}
	}

	s.advance(ctx, sess, domain.StageElementDetection, 50)
	elements := extract.Elements(d.ID, pages)
	sess.ElementsDetected = len(elements)

	s.advance(ctx, sess, domain.StageErrorAnalysis, 75)
	findings, method, err := s.detect(ctx, p, d, sess, pages, elements, isPDF)
	if err != nil {
		fail(err)
		return
	}

	s.advance(ctx, sess, domain.StagePostProcessing, 90)
	counts := domain.CountBySeverity(findings)
	if err := s.Repo.Replace(ctx, d.ID, findings, elements); err != nil {
		fail(fmt.Errorf("persisting results: %w", err))
		return
	}
	now := s.Clock.Now()
	if err := s.Diagrams.UpdateResult(ctx, d.ID, diagrams.StatusAnalyzed, counts, now); err != nil {
		fail(fmt.Errorf("updating diagram: %w", err))
		return
	}

	sess.Stage = domain.StageCompleted
	sess.Progress = 100
	sess.Method = method
	sess.ErrorsFound = len(findings)
	sess.ProcessingSeconds = now.Sub(started).Seconds()
	sess.CompletedAt = &now
	if err := s.Sessions.Save(ctx, sess); err != nil {
		log.Printf("analysis: saving session=%s err=%v", sess.ID, err)
	}
	s.Progress.Clear(sess.ID)

	s.Activity.Record(ctx, activity.Entry{
		Actor:        j.caller,
		Action:       "analysis.completed",
		ResourceType: "diagram",
		ResourceID:   string(d.ID),
		Details: map[string]any{
			"session_id":   string(sess.ID),
			"method":       string(method),
			"errors_found": len(findings),
			"critical":     counts.Critical,
		},
		Timestamp: now,
	})
	log.Printf("analysis: session=%s diagram=%s done method=%s findings=%d secs=%.1f",
		sess.ID, d.ID, method, len(findings), sess.ProcessingSeconds)
}

// detect tries the model first, then degrades: openai > rule_based > demo.
// textual is true when the source file has a text layer (PDF). A PDF with
// nothing extractable still goes to the model; the prompt tells it so.
func (s *Service) detect(ctx context.Context, p *projects.Project, d *diagrams.Diagram, sess *domain.Session, pages []extract.PageText, elements []*domain.Element, textual bool) ([]*domain.Finding, domain.Method, error) {
	now := s.Clock.Now()

	var aiErr error
	if textual {
		pctx := prompt.Context{
			ProjectName:   p.Name,
			ProjectType:   p.Type,
			Standard:      p.Standard,
			FacilityName:  p.FieldName,
			ProcessUnit:   p.ProcessUnit,
			DrawingNumber: d.DrawingNumber,
			Revision:      d.Revision,
			Conditions:    conditions(d),
			Depth:         sess.Depth,
		}
		content := extract.FormatContent(pages, elements)
		resp, err := s.AI.Detect(ctx, prompt.SystemPrompt(pctx), prompt.AnalysisPrompt(pctx, content))
		if err == nil {
			findings, perr := domain.ParseResponse(d.ID, resp, s.Model, s.Threshold, now)
			if perr == nil {
				return findings, domain.MethodOpenAI, nil
			}
			err = perr
		}
		aiErr = err
		log.Printf("analysis: model path diagram=%s err=%v", d.ID, err)
	}

	if s.Fallback {
		return prompt.FallbackFindings(d.ID, p.Type, now), domain.MethodRuleBased, nil
	}
	if aiErr == nil || errors.Is(aiErr, aiport.ErrNotConfigured) {
		// nothing to analyze or no model configured; answer with the canned sample
		return []*domain.Finding{prompt.DemoFinding(d.ID, now)}, domain.MethodDemo, nil
	}
	return nil, "", aiErr
}

func (s *Service) advance(ctx context.Context, sess *domain.Session, stage domain.Stage, percent int) {
	sess.Stage = stage
	sess.Progress = percent
	if err := s.Sessions.Save(ctx, sess); err != nil {
		log.Printf("analysis: saving stage session=%s stage=%s err=%v", sess.ID, stage, err)
	}
	s.Progress.Publish(sess.ID, stage, percent)
}

func conditions(d *diagrams.Diagram) string {
	var parts []string
	if d.OperatingPress != "" {
		parts = append(parts, "Pressure "+d.OperatingPress)
	}
	if d.OperatingTemp != "" {
		parts = append(parts, "Temperature "+d.OperatingTemp)
	}
	return strings.Join(parts, ", ")
}
