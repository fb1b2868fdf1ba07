package grading

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/toku-assess.net/internal/adapter/logging"
	"gitlab.com/toku-assess.net/internal/config"
	"gitlab.com/toku-assess.net/internal/core/services/validator"
	"gitlab.com/toku-assess.net/internal/domain"
)

type fakeDispatcher struct {
	calls       int32
	inFlight    int32
	maxInFlight int32
	fn          func(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error)
}

func (f *fakeDispatcher) Execute(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error) {
	atomic.AddInt32(&f.calls, 1)
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxInFlight)
		if current <= seen || atomic.CompareAndSwapInt32(&f.maxInFlight, seen, current) {
			break
		}
	}
	return f.fn(ctx, req)
}

func (f *fakeDispatcher) SupportedLanguages() []string {
	return []string{"python"}
}

type fakeVerdictStore struct {
	mu       sync.Mutex
	verdicts map[string]map[string]domain.CaseVerdict
	saves    int
	getErr   error
}

func newFakeVerdictStore() *fakeVerdictStore {
	return &fakeVerdictStore{verdicts: map[string]map[string]domain.CaseVerdict{}}
}

func (f *fakeVerdictStore) GetCaseVerdicts(ctx context.Context, submissionID string) (map[string]domain.CaseVerdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := map[string]domain.CaseVerdict{}
	for id, v := range f.verdicts[submissionID] {
		out[id] = v
	}
	return out, nil
}

func (f *fakeVerdictStore) SaveCaseVerdict(ctx context.Context, submissionID string, v domain.CaseVerdict) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verdicts[submissionID] == nil {
		f.verdicts[submissionID] = map[string]domain.CaseVerdict{}
	}
	f.verdicts[submissionID][v.TestCaseID] = v
	f.saves++
	return nil
}

func testGradingConfig() *config.GradingCfg {
	return &config.GradingCfg{Workers: 4, Timeout: 5 * time.Second, PersistTimeout: time.Second}
}

func newTestService(d *fakeDispatcher, store *fakeVerdictStore, cfg *config.GradingCfg) *GradingService {
	return NewGradingService(d, store, validator.OutputValidator{}, cfg, logging.NewNopLogger())
}

func fourCaseChallenge() *domain.Challenge {
	c := &domain.Challenge{
		Slug:      "echo-number",
		Languages: []string{"python", "go"},
		TimeLimit: time.Second,
	}
	for i := 1; i <= 4; i++ {
		c.TestCases = append(c.TestCases, domain.TestCase{
			ID:             fmt.Sprintf("tc-%d", i),
			Position:       i,
			Input:          fmt.Sprintf("%d", i),
			ExpectedOutput: fmt.Sprintf("out-%d", i),
		})
	}
	return c
}

func submission(id, language string) *domain.Submission {
	return &domain.Submission{ID: id, LearnerID: "learner-1", ChallengeSlug: "echo-number", Language: language, Source: "print(input())"}
}

// echoOddCases answers correctly for inputs 1 and 3, earlier cases finish last.
func echoOddCases(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error) {
	switch req.Stdin {
	case "1":
		time.Sleep(30 * time.Millisecond)
		return &domain.ExecutionResult{Status: domain.ExitSuccess, Stdout: "out-1\n"}, nil
	case "3":
		time.Sleep(10 * time.Millisecond)
		return &domain.ExecutionResult{Status: domain.ExitSuccess, Stdout: "out-3"}, nil
	default:
		return &domain.ExecutionResult{Status: domain.ExitSuccess, Stdout: "nope"}, nil
	}
}

func TestGradePartialAcceptanceKeepsCaseOrder(t *testing.T) {
	d := &fakeDispatcher{fn: echoOddCases}
	svc := newTestService(d, newFakeVerdictStore(), testGradingConfig())

	res, err := svc.Grade(context.Background(), submission("sub-1", "python"), fourCaseChallenge())
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if res.Score != 0.5 {
		t.Errorf("Score = %v, want 0.5", res.Score)
	}
	if res.Status != domain.StatusPartiallyAccepted {
		t.Errorf("Status = %q, want %q", res.Status, domain.StatusPartiallyAccepted)
	}
	if len(res.Verdicts) != 4 {
		t.Fatalf("len(Verdicts) = %d, want 4", len(res.Verdicts))
	}
	wantPassed := []bool{true, false, true, false}
	for i, v := range res.Verdicts {
		if v.TestCaseID != fmt.Sprintf("tc-%d", i+1) {
			t.Errorf("Verdicts[%d].TestCaseID = %q, want tc-%d", i, v.TestCaseID, i+1)
		}
		if v.Passed != wantPassed[i] {
			t.Errorf("Verdicts[%d].Passed = %v, want %v", i, v.Passed, wantPassed[i])
		}
		if !v.Passed && v.Reason != domain.ReasonWrongAnswer {
			t.Errorf("Verdicts[%d].Reason = %q, want wrong-answer", i, v.Reason)
		}
	}
	if res.Passed != 2 || res.Total != 4 {
		t.Errorf("Passed/Total = %d/%d, want 2/4", res.Passed, res.Total)
	}
}

func TestGradeAllSandboxUnavailableIsErrored(t *testing.T) {
	d := &fakeDispatcher{fn: func(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error) {
		return nil, fmt.Errorf("%w after 3 attempts", domain.ErrSandboxUnavailable)
	}}
	store := newFakeVerdictStore()
	svc := newTestService(d, store, testGradingConfig())

	res, err := svc.Grade(context.Background(), submission("sub-2", "python"), fourCaseChallenge())
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if res.Status != domain.StatusErrored {
		t.Errorf("Status = %q, want errored", res.Status)
	}
	for i, v := range res.Verdicts {
		if v.Passed || v.Reason != domain.ReasonInfrastructure {
			t.Errorf("Verdicts[%d] = %+v, want infrastructure failure", i, v)
		}
	}
	if store.saves != 0 {
		t.Errorf("infrastructure verdicts must not be stored, saves = %d", store.saves)
	}
}

func TestGradeUnsupportedLanguageMakesNoCalls(t *testing.T) {
	d := &fakeDispatcher{fn: echoOddCases}
	svc := newTestService(d, newFakeVerdictStore(), testGradingConfig())

	res, err := svc.Grade(context.Background(), submission("sub-3", "rust"), fourCaseChallenge())
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if res.Status != domain.StatusErrored {
		t.Errorf("Status = %q, want errored", res.Status)
	}
	if len(res.Verdicts) != 0 || res.Score != 0 || res.Total != 4 {
		t.Errorf("result = %d verdicts, score %v, total %d; want 0, 0, 4", len(res.Verdicts), res.Score, res.Total)
	}
	if d.calls != 0 {
		t.Errorf("dispatcher called %d times, want 0", d.calls)
	}
}

func TestGradeProgramFailuresAreRejected(t *testing.T) {
	d := &fakeDispatcher{fn: func(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error) {
		switch req.Stdin {
		case "1":
			return &domain.ExecutionResult{Status: domain.ExitCompileError, Stdout: "out-1", Stderr: "SyntaxError"}, nil
		case "2":
			return &domain.ExecutionResult{Status: domain.ExitRuntimeError, Stderr: "ZeroDivisionError"}, nil
		case "3":
			return nil, fmt.Errorf("%w: no sandbox response", domain.ErrTimeout)
		default:
			return &domain.ExecutionResult{Status: domain.ExitTimeout}, nil
		}
	}}
	store := newFakeVerdictStore()
	svc := newTestService(d, store, testGradingConfig())

	res, err := svc.Grade(context.Background(), submission("sub-4", "python"), fourCaseChallenge())
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if res.Status != domain.StatusRejected {
		t.Errorf("Status = %q, want rejected", res.Status)
	}
	want := []domain.FailureReason{domain.ReasonCompileError, domain.ReasonRuntimeError, domain.ReasonTimeout, domain.ReasonTimeout}
	for i, v := range res.Verdicts {
		if v.Reason != want[i] || v.Passed {
			t.Errorf("Verdicts[%d] = %q passed=%v, want %q", i, v.Reason, v.Passed, want[i])
		}
	}
	if store.saves != 4 {
		t.Errorf("saves = %d, want 4 terminal verdicts stored", store.saves)
	}
}

func TestGradeTwiceReusesTerminalVerdicts(t *testing.T) {
	d := &fakeDispatcher{fn: echoOddCases}
	store := newFakeVerdictStore()
	svc := newTestService(d, store, testGradingConfig())

	first, err := svc.Grade(context.Background(), submission("sub-5", "python"), fourCaseChallenge())
	if err != nil {
		t.Fatalf("first Grade() error = %v", err)
	}
	callsAfterFirst := atomic.LoadInt32(&d.calls)

	second, err := svc.Grade(context.Background(), submission("sub-5", "python"), fourCaseChallenge())
	if err != nil {
		t.Fatalf("second Grade() error = %v", err)
	}
	if got := atomic.LoadInt32(&d.calls); got != callsAfterFirst {
		t.Errorf("second grading issued %d new calls, want 0", got-callsAfterFirst)
	}
	if second.Status != first.Status || second.Score != first.Score || len(second.Verdicts) != len(first.Verdicts) {
		t.Fatalf("second result %+v differs from first %+v", second, first)
	}
	for i := range first.Verdicts {
		if first.Verdicts[i].TestCaseID != second.Verdicts[i].TestCaseID || first.Verdicts[i].Passed != second.Verdicts[i].Passed {
			t.Errorf("Verdicts[%d] differ: %+v vs %+v", i, first.Verdicts[i], second.Verdicts[i])
		}
	}
}

func TestGradeRedispatchesOnlyUnfinishedCases(t *testing.T) {
	d := &fakeDispatcher{fn: echoOddCases}
	store := newFakeVerdictStore()
	store.verdicts[attemptKey(submission("sub-6", "python"))] = map[string]domain.CaseVerdict{
		"tc-1": {TestCaseID: "tc-1", Passed: true, Reason: domain.ReasonNone},
		"tc-2": {TestCaseID: "tc-2", Reason: domain.ReasonWrongAnswer},
		"tc-3": {TestCaseID: "tc-3", Reason: domain.ReasonInfrastructure},
	}
	svc := newTestService(d, store, testGradingConfig())

	res, err := svc.Grade(context.Background(), submission("sub-6", "python"), fourCaseChallenge())
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if d.calls != 2 {
		t.Errorf("calls = %d, want 2 (tc-3 infrastructure and tc-4 missing)", d.calls)
	}
	if !res.Verdicts[2].Passed {
		t.Errorf("tc-3 should have been graded again and passed, got %+v", res.Verdicts[2])
	}
	if res.Status != domain.StatusPartiallyAccepted {
		t.Errorf("Status = %q, want partially-accepted", res.Status)
	}
}

func TestGradeDoesNotReuseAnotherLearnersVerdicts(t *testing.T) {
	d := &fakeDispatcher{fn: func(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error) {
		if req.Source != "print(input())" {
			return &domain.ExecutionResult{Status: domain.ExitRuntimeError, Stderr: "SyntaxError"}, nil
		}
		return &domain.ExecutionResult{Status: domain.ExitSuccess, Stdout: "out-" + req.Stdin}, nil
	}}
	store := newFakeVerdictStore()
	svc := newTestService(d, store, testGradingConfig())

	alice := submission("sub-A", "python")
	alice.LearnerID = "alice"
	first, err := svc.Grade(context.Background(), alice, fourCaseChallenge())
	if err != nil {
		t.Fatalf("alice Grade() error = %v", err)
	}
	if first.Status != domain.StatusAccepted {
		t.Fatalf("alice Status = %q, want accepted", first.Status)
	}
	callsAfterAlice := atomic.LoadInt32(&d.calls)

	mallory := &domain.Submission{ID: "sub-A", LearnerID: "mallory", ChallengeSlug: "echo-number", Language: "go", Source: "garbage"}
	second, err := svc.Grade(context.Background(), mallory, fourCaseChallenge())
	if err != nil {
		t.Fatalf("mallory Grade() error = %v", err)
	}
	if got := atomic.LoadInt32(&d.calls) - callsAfterAlice; got != 4 {
		t.Errorf("mallory issued %d calls, want 4", got)
	}
	if second.Status == domain.StatusAccepted || second.Passed != 0 {
		t.Errorf("mallory result = %q with %d passed, want no passed cases", second.Status, second.Passed)
	}
	if second.LearnerID != "mallory" {
		t.Errorf("LearnerID = %q, want mallory", second.LearnerID)
	}
}

func TestGradeCancellationCompletesResult(t *testing.T) {
	d := &fakeDispatcher{fn: func(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := testGradingConfig()
	cfg.Workers = 1
	cfg.Timeout = 30 * time.Millisecond
	store := newFakeVerdictStore()
	svc := newTestService(d, store, cfg)

	res, err := svc.Grade(context.Background(), submission("sub-7", "python"), fourCaseChallenge())
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if len(res.Verdicts) != 4 {
		t.Fatalf("len(Verdicts) = %d, want 4", len(res.Verdicts))
	}
	for i, v := range res.Verdicts {
		if v.Passed || v.Reason != domain.ReasonInfrastructure || v.Message != cancelledMessage {
			t.Errorf("Verdicts[%d] = %+v, want cancelled infrastructure failure", i, v)
		}
	}
	if res.Status != domain.StatusErrored {
		t.Errorf("Status = %q, want errored", res.Status)
	}
	if store.saves != 0 {
		t.Errorf("cancelled verdicts must not be stored, saves = %d", store.saves)
	}
}

func TestGradeRespectsWorkerLimit(t *testing.T) {
	d := &fakeDispatcher{fn: func(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error) {
		time.Sleep(15 * time.Millisecond)
		return &domain.ExecutionResult{Status: domain.ExitSuccess, Stdout: "out-" + req.Stdin}, nil
	}}
	cfg := testGradingConfig()
	cfg.Workers = 2
	svc := newTestService(d, newFakeVerdictStore(), cfg)

	res, err := svc.Grade(context.Background(), submission("sub-8", "python"), fourCaseChallenge())
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if res.Status != domain.StatusAccepted {
		t.Errorf("Status = %q, want accepted", res.Status)
	}
	if got := atomic.LoadInt32(&d.maxInFlight); got > 2 {
		t.Errorf("max concurrent cases = %d, want <= 2", got)
	}
}

func TestGradeStructuralErrors(t *testing.T) {
	d := &fakeDispatcher{fn: echoOddCases}

	t.Run("no test cases", func(t *testing.T) {
		svc := newTestService(d, newFakeVerdictStore(), testGradingConfig())
		_, err := svc.Grade(context.Background(), submission("sub-9", "python"), &domain.Challenge{Slug: "empty", Languages: []string{"python"}})
		if !errors.Is(err, domain.ErrInvalidChallenge) {
			t.Errorf("Grade() error = %v, want ErrInvalidChallenge", err)
		}
	})

	t.Run("verdict store unavailable", func(t *testing.T) {
		store := newFakeVerdictStore()
		store.getErr = errors.New("connection refused")
		svc := newTestService(d, store, testGradingConfig())
		_, err := svc.Grade(context.Background(), submission("sub-10", "python"), fourCaseChallenge())
		if err == nil {
			t.Fatalf("Grade() expected error when stored verdicts cannot be read")
		}
	})

	if d.calls != 0 {
		t.Errorf("dispatcher called %d times, want 0", d.calls)
	}
}

func TestGradeSortsCasesByPosition(t *testing.T) {
	d := &fakeDispatcher{fn: echoOddCases}
	svc := newTestService(d, newFakeVerdictStore(), testGradingConfig())

	c := fourCaseChallenge()
	c.TestCases[0], c.TestCases[3] = c.TestCases[3], c.TestCases[0]

	res, err := svc.Grade(context.Background(), submission("sub-11", "python"), c)
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	for i, v := range res.Verdicts {
		if v.Position != i+1 {
			t.Errorf("Verdicts[%d].Position = %d, want %d", i, v.Position, i+1)
		}
	}
}
