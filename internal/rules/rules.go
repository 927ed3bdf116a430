// Package rules holds the compliance rule variants. Each rule is a pure
// predicate over a remote-state snapshot: fetching is the orchestrator's
// job, so every rule stays independently testable with a hand-built
// Context. Empty or missing remote collections are classified explicitly
// per rule — "no outside collaborators" passes, "no branch protection"
// fails — never silently defaulted.
package rules

import "github.com/auditops/auditops-backend/internal/github"

// StandardCISGitHub labels results mapped to the CIS GitHub benchmark.
const StandardCISGitHub = "CIS GitHub Benchmark v1.0"

// StandardBestPractices labels results outside a published benchmark.
const StandardBestPractices = "Security Best Practices"

// Result is the value a rule produces. It is never persisted directly;
// the orchestrator folds it into an evidence row.
type Result struct {
	Passed   bool
	Details  string // human-readable justification
	Standard string // compliance-standard tag
}

func pass(details, standard string) Result {
	return Result{Passed: true, Details: details, Standard: standard}
}

func fail(details, standard string) Result {
	return Result{Passed: false, Details: details, Standard: standard}
}

// Context is the remote-state snapshot rules evaluate against. The
// orchestrator populates only the fields a check declared it needs;
// each rule reads only its own slice of the snapshot.
type Context struct {
	Org                  *github.Organization
	Members              []github.Member
	Repo                 *github.Repository
	Protection           *github.BranchProtection // nil = no protection configured
	OutsideCollaborators []github.Collaborator
	TreePaths            []string
}

// Rule is one compliance check's judgement logic.
type Rule interface {
	Evaluate(ctx Context) Result
}
