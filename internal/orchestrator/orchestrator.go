// Package orchestrator runs one audit end to end: resolve the
// integration credential through the vault, build a provider client,
// iterate the check catalog in stable order, persist one evidence row
// per check, then score and close the audit. A single check's failure
// never aborts the remaining checks; only credential and
// orchestration-level errors fail the whole audit.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/auditops/auditops-backend/internal/catalog"
	"github.com/auditops/auditops-backend/internal/github"
	"github.com/auditops/auditops-backend/internal/models"
	"github.com/auditops/auditops-backend/internal/pkg/metrics"
	"github.com/auditops/auditops-backend/internal/repository"
	"github.com/auditops/auditops-backend/internal/scoring"
	"github.com/auditops/auditops-backend/internal/vault"
)

// GitHubClient is the provider surface the orchestrator consumes. The
// production implementation is github.Client; tests inject fakes.
type GitHubClient interface {
	ValidateToken(ctx context.Context) error
	ResolveOrgLogin(ctx context.Context, externalID string) (string, error)
	GetOrganization(ctx context.Context, login string) (*github.Organization, error)
	ListOrgMembers(ctx context.Context, org, role string) ([]github.Member, error)
	GetRepository(ctx context.Context, fullName string) (*github.Repository, error)
	GetBranchProtection(ctx context.Context, fullName, branch string) (*github.BranchProtection, error)
	ListOutsideCollaborators(ctx context.Context, fullName string) ([]github.Collaborator, error)
	ListTreePaths(ctx context.Context, fullName, branch string) ([]string, error)
}

// ClientFactory builds a provider client for one decrypted token. The
// token stays inside the returned client; the orchestrator never logs it.
type ClientFactory func(token string) GitHubClient

// DefaultAuditTimeout bounds one full audit, catalog iteration included.
const DefaultAuditTimeout = 10 * time.Minute

var (
	errNoIntegration    = errors.New("no active github integration for organization")
	errNoOrgResolved    = errors.New("organization identity could not be resolved")
	errNoRepoConfigured = errors.New("integration has no repository configured")
)

// Orchestrator executes audits. It is safe for concurrent use; audits
// share no in-process state beyond the injected dependencies.
type Orchestrator struct {
	store     repository.Store
	vault     *vault.Vault
	catalog   *catalog.Catalog
	newClient ClientFactory
	logger    *slog.Logger
	timeout   time.Duration
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTimeout bounds one audit run. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// New wires an Orchestrator from its dependencies.
func New(store repository.Store, v *vault.Vault, cat *catalog.Catalog, factory ClientFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		vault:     v,
		catalog:   cat,
		newClient: factory,
		logger:    slog.Default(),
		timeout:   DefaultAuditTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the audit with the given ID to a terminal status. The
// returned error reports why an audit FAILED; a COMPLETED audit returns
// nil regardless of how many individual checks failed.
func (o *Orchestrator) Run(ctx context.Context, auditID string) error {
	start := time.Now()
	metrics.AuditsStartedTotal.Inc()

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	audit, err := o.store.GetAudit(ctx, auditID)
	if err != nil {
		return fmt.Errorf("load audit %s: %w", auditID, err)
	}
	log := o.logger.With("audit_id", audit.ID, "organization_id", audit.OrganizationID)

	if err := o.store.SetAuditStatus(ctx, audit.ID, models.AuditRunning); err != nil {
		return fmt.Errorf("mark audit running: %w", err)
	}
	log.Info("audit started")

	client, integration, err := o.resolveClient(ctx, audit.OrganizationID)
	if err != nil {
		// Credential errors fail the whole audit with zero evidence: a
		// score over an incomplete check set would be misleading.
		log.Error("credential resolution failed", "error", err)
		o.finish(ctx, audit.ID, models.AuditFailed, 0, start, log)
		return fmt.Errorf("resolve credentials: %w", err)
	}

	l := o.newLoader(ctx, client, integration, log)

	// Checks run in question-key order, the same stable order ListEvidence
	// reports in. Catalog registration order only governs seeding.
	questions, err := o.store.ListQuestions(ctx)
	if err != nil {
		o.finish(ctx, audit.ID, models.AuditFailed, 0, start, log)
		return fmt.Errorf("list questions: %w", err)
	}

	for i := range questions {
		ev := o.runCheck(ctx, audit.ID, &questions[i], l, log)
		if err := o.store.UpsertEvidence(ctx, ev); err != nil {
			o.finish(ctx, audit.ID, models.AuditFailed, 0, start, log)
			return fmt.Errorf("persist evidence for %s: %w", questions[i].Key, err)
		}
		metrics.ChecksTotal.WithLabelValues(string(ev.Status)).Inc()
	}

	details, err := o.store.ListEvidence(ctx, audit.ID)
	if err != nil {
		o.finish(ctx, audit.ID, models.AuditFailed, 0, start, log)
		return fmt.Errorf("load evidence for scoring: %w", err)
	}
	findings := make([]scoring.Finding, len(details))
	for i := range details {
		findings[i] = scoring.Finding{Status: details[i].Status, Severity: details[i].Severity}
	}
	score := scoring.Score(findings)

	o.finish(ctx, audit.ID, models.AuditCompleted, score, start, log)
	log.Info("audit completed", "score", score, "checks", len(questions))
	return nil
}

// finish persists the terminal status even when ctx has expired; a
// timed-out audit must still land on FAILED, not stay RUNNING forever.
func (o *Orchestrator) finish(ctx context.Context, auditID string, status models.AuditStatus, score int, start time.Time, log *slog.Logger) {
	persistCtx := context.WithoutCancel(ctx)
	if err := o.store.FinishAudit(persistCtx, auditID, status, score, time.Now().UTC()); err != nil {
		log.Error("persist terminal audit status", "status", status, "error", err)
	}
	metrics.AuditsFinishedTotal.WithLabelValues(string(status)).Inc()
	metrics.AuditDurationSeconds.Observe(time.Since(start).Seconds())
}

// resolveClient loads the organization's GitHub integration, decrypts
// its token, and proves the token works. The plaintext token lives only
// inside the returned client.
func (o *Orchestrator) resolveClient(ctx context.Context, organizationID string) (GitHubClient, *models.Integration, error) {
	integrations, err := o.store.ListIntegrations(ctx, organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("list integrations: %w", err)
	}
	var integration *models.Integration
	for _, in := range integrations {
		if in.Provider == models.ProviderGitHub && in.Status != models.IntegrationDisconnected {
			integration = in
			break
		}
	}
	if integration == nil {
		return nil, nil, errNoIntegration
	}

	token, err := o.vault.Decrypt(integration.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt access token for integration %s: %w", integration.ID, err)
	}

	client := o.newClient(token)
	if err := client.ValidateToken(ctx); err != nil {
		if github.IsUnauthorized(err) {
			if setErr := o.store.SetIntegrationStatus(ctx, integration.ID, models.IntegrationError); setErr != nil {
				o.logger.Warn("mark integration errored", "integration_id", integration.ID, "error", setErr)
			}
		}
		return nil, nil, fmt.Errorf("validate token: %w", err)
	}
	return client, integration, nil
}

// newLoader resolves the audit's target identity once and caches the
// resolved org login back onto the integration config. The write-back
// is best effort; a failure only costs the next audit a lookup.
func (o *Orchestrator) newLoader(ctx context.Context, client GitHubClient, integration *models.Integration, log *slog.Logger) *loader {
	l := &loader{
		client:   client,
		repoName: integration.ConfigString("repo_name"),
		done:     make(map[catalog.Need]error),
	}

	login, err := client.ResolveOrgLogin(ctx, integration.ExternalID)
	if err != nil {
		log.Warn("resolve organization login", "external_id", integration.ExternalID, "error", err)
		return l
	}
	l.orgLogin = login

	if integration.ConfigString("org_name") != login {
		if integration.Config == nil {
			integration.Config = map[string]any{}
		}
		integration.Config["org_name"] = login
		if err := o.store.UpdateIntegration(ctx, integration); err != nil {
			log.Warn("cache resolved org name", "error", err)
		}
	}
	return l
}

// runCheck produces exactly one evidence row for one question. Expected
// provider errors (not found, permission, rate limit) yield FAIL;
// anything else, including a panicking rule, yields ERROR.
func (o *Orchestrator) runCheck(ctx context.Context, auditID string, q *models.Question, l *loader, log *slog.Logger) *models.Evidence {
	ev := &models.Evidence{
		AuditID:    auditID,
		QuestionID: q.ID,
		RawData:    map[string]any{},
	}
	if l.orgLogin != "" {
		ev.RawData["org_name"] = l.orgLogin
	}
	if l.repoName != "" {
		ev.RawData["repo_name"] = l.repoName
	}

	entry, ok := o.catalog.Lookup(q.Key)
	if !ok {
		ev.Status = models.EvidenceError
		ev.Comment = fmt.Sprintf("Check %s is not implemented by this engine version.", q.Key)
		log.Warn("question missing from catalog", "key", q.Key)
		return ev
	}

	for _, need := range entry.Needs {
		if err := l.resolve(ctx, need); err != nil {
			ev.RawData["error"] = err.Error()
			if isExpected(err) {
				ev.Status = models.EvidenceFail
				if github.IsRateLimited(err) {
					ev.Comment = "Rate limited by the provider; check skipped."
				} else {
					ev.Comment = "Could not verify: " + err.Error()
				}
			} else {
				ev.Status = models.EvidenceError
				ev.Comment = "Internal error while fetching remote state: " + err.Error()
				log.Error("check context fetch failed", "key", q.Key, "error", err)
			}
			return ev
		}
	}

	result, err := safeEvaluate(entry.Rule, l.snap)
	if err != nil {
		ev.Status = models.EvidenceError
		ev.Comment = "Internal error while evaluating check: " + err.Error()
		ev.RawData["error"] = err.Error()
		log.Error("check evaluation failed", "key", q.Key, "error", err)
		return ev
	}

	if result.Passed {
		ev.Status = models.EvidencePass
	} else {
		ev.Status = models.EvidenceFail
	}
	ev.Comment = result.Details
	ev.RawData["standard"] = result.Standard
	ev.RawData["passed"] = result.Passed
	return ev
}

func isExpected(err error) bool {
	return github.IsExpected(err) ||
		errors.Is(err, errNoOrgResolved) ||
		errors.Is(err, errNoRepoConfigured)
}
