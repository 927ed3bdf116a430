package orchestrator

import (
	"context"
	"fmt"

	"github.com/auditops/auditops-backend/internal/catalog"
	"github.com/auditops/auditops-backend/internal/rules"
)

// loader fetches each kind of remote state at most once per audit and
// shares the snapshot across checks. Fetch errors are memoized too, so
// ten protection checks against an unreachable repository cost one API
// call, not ten.
type loader struct {
	client   GitHubClient
	orgLogin string
	repoName string
	branch   string
	snap     rules.Context
	done     map[catalog.Need]error
}

func (l *loader) resolve(ctx context.Context, need catalog.Need) error {
	if err, ok := l.done[need]; ok {
		return err
	}
	err := l.fetch(ctx, need)
	l.done[need] = err
	return err
}

func (l *loader) fetch(ctx context.Context, need catalog.Need) error {
	switch need {
	case catalog.NeedOrg:
		if l.orgLogin == "" {
			return errNoOrgResolved
		}
		org, err := l.client.GetOrganization(ctx, l.orgLogin)
		if err != nil {
			return err
		}
		l.snap.Org = org

	case catalog.NeedMembers:
		if l.orgLogin == "" {
			return errNoOrgResolved
		}
		// Owner-focused checks only need the admin slice.
		members, err := l.client.ListOrgMembers(ctx, l.orgLogin, "admin")
		if err != nil {
			return err
		}
		l.snap.Members = members

	case catalog.NeedRepo:
		if l.repoName == "" {
			return errNoRepoConfigured
		}
		repo, err := l.client.GetRepository(ctx, l.repoName)
		if err != nil {
			return err
		}
		l.snap.Repo = repo
		l.branch = repo.DefaultBranch
		if l.branch == "" {
			l.branch = "main"
		}

	case catalog.NeedProtection:
		if err := l.resolve(ctx, catalog.NeedRepo); err != nil {
			return err
		}
		protection, err := l.client.GetBranchProtection(ctx, l.repoName, l.branch)
		if err != nil {
			return err
		}
		l.snap.Protection = protection

	case catalog.NeedCollaborators:
		if l.repoName == "" {
			return errNoRepoConfigured
		}
		collabs, err := l.client.ListOutsideCollaborators(ctx, l.repoName)
		if err != nil {
			return err
		}
		l.snap.OutsideCollaborators = collabs

	case catalog.NeedTree:
		if err := l.resolve(ctx, catalog.NeedRepo); err != nil {
			return err
		}
		paths, err := l.client.ListTreePaths(ctx, l.repoName, l.branch)
		if err != nil {
			return err
		}
		l.snap.TreePaths = paths

	default:
		return fmt.Errorf("unknown context need %d", need)
	}
	return nil
}

// safeEvaluate converts a panicking rule into an error so one defective
// check cannot abort the audit loop.
func safeEvaluate(r rules.Rule, ctx rules.Context) (result rules.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("rule panicked: %v", rec)
		}
	}()
	return r.Evaluate(ctx), nil
}
