package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/citecheck/internal/group"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/worker"
)

// ErrNoVerdicts is recorded when the service answers with an empty verdict list
var ErrNoVerdicts = errors.New("verification returned no verdicts")

// maxBackoff caps the delay between attempts
const maxBackoff = 10 * time.Minute

// sleepFunc waits between attempts. Tests replace it.
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Verifier is the external verification service
type Verifier interface {
	Verify(ctx context.Context, req model.VerifyRequest) ([]model.VerdictRecord, error)
}

// Config controls fan-out and retry
type Config struct {
	Workers    int           // Concurrent authorities
	Timeout    time.Duration // Per attempt
	MaxRetries int           // Retries after the first attempt, per pass
	Backoff    time.Duration // Base delay, doubled on every retry
	SecondPass bool          // Retry failed authorities once more after the main pass
}

// Outcome is the verification result for one authority
type Outcome struct {
	Records  []model.VerdictRecord
	Attempts int
	Retried  bool // Needed the second pass
	Err      error
}

// Usable reports whether the outcome carries verdicts to merge
func (o Outcome) Usable() bool {
	return o.Err == nil && len(o.Records) > 0
}

// Dispatcher sends one verification request per authority
type Dispatcher struct {
	verifier Verifier
	cfg      Config
	logger   *slog.Logger
}

// New creates a dispatcher
func New(verifier Verifier, cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Dispatcher{verifier: verifier, cfg: cfg, logger: logger}
}

// BuildRequest serializes a group into its verification request. Stub
// indices are 1-based and follow member order.
func BuildRequest(g group.AuthorityGroup) model.VerifyRequest {
	req := model.VerifyRequest{
		AuthorityID: g.Authority.ID,
		Text:        g.Authority.Text,
		Mentions:    make([]model.MentionStub, len(g.Members)),
	}
	for i, r := range g.Members {
		m := r.Mention
		req.Mentions[i] = model.MentionStub{
			Index:           i + 1,
			Citation:        m.Citation(),
			PinCite:         m.PinCite,
			Purpose:         m.Purpose,
			ArgumentContext: m.ArgumentContext,
			Proposition:     m.Proposition,
			Quotation:       m.Quotation,
			Brief:           m.BriefID,
			Notes:           notes(r.Checks),
		}
	}
	return req
}

func notes(checks []model.CheckFinding) []string {
	var out []string
	for _, c := range checks {
		status := "ok"
		if !c.Passed {
			status = "FAILED"
			if c.Severity != "" {
				status += " (" + string(c.Severity) + ")"
			}
		}
		note := c.Kind + ": " + status
		if c.Detail != "" {
			note += ": " + c.Detail
		}
		out = append(out, note)
	}
	return out
}

// Dispatch verifies every group and returns outcomes keyed by authority ID.
// Every group gets an outcome; failures are recorded, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, groups []group.AuthorityGroup) map[string]Outcome {
	requests := make(map[string]model.VerifyRequest, len(groups))
	var order []string
	for _, g := range groups {
		req := BuildRequest(g)
		requests[req.AuthorityID] = req
		order = append(order, req.AuthorityID)
	}

	outcomes := d.pass(ctx, order, requests)
	if !d.cfg.SecondPass {
		return outcomes
	}

	var failing []string
	for _, id := range order {
		if !outcomes[id].Usable() {
			failing = append(failing, id)
		}
	}
	if len(failing) == 0 || ctx.Err() != nil {
		return outcomes
	}

	d.logger.Info("Retrying failed authorities", "count", len(failing))
	retried := d.pass(ctx, failing, requests)
	for _, id := range failing {
		o := retried[id]
		o.Attempts += outcomes[id].Attempts
		o.Retried = true
		outcomes[id] = o
	}
	return outcomes
}

// pass runs one fan-out over ids through a bounded pool
func (d *Dispatcher) pass(ctx context.Context, ids []string, requests map[string]model.VerifyRequest) map[string]Outcome {
	pool := worker.NewPool[string, Outcome](ctx, d.cfg.Workers)
	for _, id := range ids {
		req := requests[id]
		if err := pool.Submit(id, func(ctx context.Context) (Outcome, error) {
			return d.verify(ctx, req), nil
		}); err != nil {
			d.logger.Error("Failed to submit verification", "authority", id, "error", err)
		}
	}

	outcomes := make(map[string]Outcome, len(ids))
	for id, res := range pool.Wait() {
		o := res.Value
		if res.Err != nil {
			o.Err = res.Err
		}
		outcomes[id] = o
	}
	for _, id := range ids {
		if _, ok := outcomes[id]; !ok {
			outcomes[id] = Outcome{Err: fmt.Errorf("verification not scheduled for %s", id)}
		}
	}
	return outcomes
}

// verify sends the full request until a usable answer arrives or attempts run out
func (d *Dispatcher) verify(ctx context.Context, req model.VerifyRequest) Outcome {
	var out Outcome
	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		out.Attempts++

		records, err := d.attempt(ctx, req)
		if err == nil && len(records) == 0 {
			err = ErrNoVerdicts
		}
		if err == nil {
			out.Records, out.Err = records, nil
			return out
		}
		out.Err = fmt.Errorf("verify %s: %w", req.AuthorityID, err)

		d.logger.Warn("Verification attempt failed",
			"authority", req.AuthorityID, "attempt", out.Attempts, "mentions", len(req.Mentions), "error", err)

		if attempt == d.cfg.MaxRetries || permanent(err) {
			break
		}
		if err := sleepFunc(ctx, backoff(d.cfg.Backoff, attempt)); err != nil {
			out.Err = fmt.Errorf("verify %s: %w", req.AuthorityID, err)
			break
		}
	}
	return out
}

func (d *Dispatcher) attempt(ctx context.Context, req model.VerifyRequest) ([]model.VerdictRecord, error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	// A service that ignores its context still times out here
	type reply struct {
		records []model.VerdictRecord
		err     error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: fmt.Errorf("verifier panicked: %v", r)}
			}
		}()
		records, err := d.verifier.Verify(ctx, req)
		ch <- reply{records, err}
	}()

	select {
	case r := <-ch:
		return r.records, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// permanent reports whether err says the same request can never succeed,
// e.g. rejected credentials
func permanent(err error) bool {
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}

// backoff returns base doubled attempt times, capped at maxBackoff
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 0; i < attempt && delay < maxBackoff; i++ {
		delay *= 2
	}
	return min(delay, maxBackoff)
}
