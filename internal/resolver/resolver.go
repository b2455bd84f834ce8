// Package resolver turns a JDK requirement into an installed JDK, reusing
// local installations and downloading from the configured sources when
// needed.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"autojv/internal/installer"
	"autojv/internal/jdk"
	"autojv/internal/logging"
	"autojv/internal/repository"
	"autojv/internal/selector"
	"autojv/internal/throttle"
	"autojv/internal/translate"
	"autojv/internal/versionrange"

	"github.com/hashicorp/go-multierror"
)

// Resolver coordinates translation, search, selection and installation.
type Resolver struct {
	scheme       translate.Scheme
	selector     *selector.Selector
	source       jdk.Source
	installation *installer.Installation
	// checker is nil when remote checks cannot happen, such as offline.
	checker *throttle.Checker
}

// Options holds the collaborators of a Resolver.
type Options struct {
	Scheme       translate.Scheme
	Selector     *selector.Selector
	Source       jdk.Source
	Installation *installer.Installation
	Checker      *throttle.Checker
}

// New creates a resolver. A nil Scheme means major-and-full and a nil
// Selector has no vendor preference.
func New(opts Options) *Resolver {
	r := &Resolver{
		scheme:       opts.Scheme,
		selector:     opts.Selector,
		source:       opts.Source,
		installation: opts.Installation,
		checker:      opts.Checker,
	}
	if r.scheme == nil {
		r.scheme = translate.MajorAndFull{}
	}
	if r.selector == nil {
		r.selector = selector.New(nil)
	}
	return r
}

// Scheme returns the version translation in use.
func (r *Resolver) Scheme() translate.Scheme { return r.scheme }

// Installation returns where JDKs are installed.
func (r *Resolver) Installation() *installer.Installation { return r.installation }

// prepareRequirement translates the range and pins an unset platform to
// the running one.
func (r *Resolver) prepareRequirement(req jdk.Requirement) jdk.Requirement {
	req = translate.TranslateRequirement(r.scheme, req)
	current := jdk.CurrentPlatform()
	if req.OS == "" {
		req.OS = current.OS
	}
	if req.Arch == "" {
		req.Arch = current.Arch
	}
	return req
}

// Prepare returns an installed JDK satisfying req, installing one if
// needed. A local match is returned without touching the network unless
// the update policy says it is time to look for a newer build.
func (r *Resolver) Prepare(ctx context.Context, req jdk.Requirement) (jdk.InstalledJdk, error) {
	logger := logging.From(ctx)
	req = r.prepareRequirement(req)

	local, found, err := r.bestInstalled(ctx, req)
	if err != nil {
		return jdk.InstalledJdk{}, err
	}

	fp := throttle.FingerprintOf(req)
	if found && !r.checkRequired(ctx, fp) {
		logger.Debug("Using installed JDK", "dir", local.Dir, "version", local.Version)
		return local, nil
	}

	searchCtx, skipped := repository.WithSuppressedFailures(ctx)
	candidates, err := r.search(searchCtx, req)
	if err != nil {
		if found {
			logger.Warn("Search failed, using installed JDK", "err", err, "dir", local.Dir)
			return local, nil
		}
		return jdk.InstalledJdk{}, err
	}
	if len(candidates) == 0 {
		// A source that could not be searched may still have a match.
		if skipped.Count() == 0 {
			r.recordCheck(ctx, fp)
		}
		if found {
			return local, nil
		}
		return jdk.InstalledJdk{}, &jdk.NotFoundError{Requirement: req, Skipped: skipped.Count()}
	}

	best := candidates[len(candidates)-1]
	if found && best.Version.Compare(local.Version) <= 0 {
		logger.Debug("Installed JDK is up to date", "dir", local.Dir, "best", best)
		r.recordCheck(ctx, fp)
		return local, nil
	}

	installed, err := r.install(ctx, best)
	if err != nil {
		if found {
			logger.Warn("Failed to install newer JDK, using installed one", "candidate", best, "err", err)
			return local, nil
		}
		return jdk.InstalledJdk{}, err
	}
	r.recordCheck(ctx, fp)

	if rescanned, ok, err := r.bestInstalled(ctx, req); err == nil && ok {
		return rescanned, nil
	}
	return installed, nil
}

func (r *Resolver) checkRequired(ctx context.Context, fp throttle.Fingerprint) bool {
	if r.checker == nil {
		return false
	}
	return r.checker.UpdateCheckRequired(ctx, fp)
}

func (r *Resolver) recordCheck(ctx context.Context, fp throttle.Fingerprint) {
	if r.checker == nil {
		return
	}
	if err := r.checker.RecordCheck(ctx, fp); err != nil {
		logging.From(ctx).Warn("Failed to record update check", "err", err)
	}
}

// Search returns the candidates for req ordered least to most preferred.
func (r *Resolver) Search(ctx context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	return r.search(ctx, r.prepareRequirement(req))
}

func (r *Resolver) search(ctx context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	if r.source == nil {
		return nil, nil
	}
	found, err := r.source.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return r.selector.Sort(r.selector.Filter(found)), nil
}

// Install resolves and installs one candidate returned by Search. An
// installation of the same build is reused.
func (r *Resolver) Install(ctx context.Context, c jdk.Candidate) (jdk.InstalledJdk, error) {
	return r.install(ctx, c)
}

func (r *Resolver) install(ctx context.Context, c jdk.Candidate) (jdk.InstalledJdk, error) {
	if r.installation == nil {
		return jdk.InstalledJdk{}, errors.New("no installation directory configured")
	}
	meta := installer.MetadataFor(c)

	existing, err := r.installation.Installed(ctx)
	if err != nil {
		return jdk.InstalledJdk{}, err
	}
	for _, j := range existing {
		if strings.EqualFold(j.Vendor, meta.Vendor) && j.Version.String() == meta.Version &&
			j.OS.Matches(meta.OS) && j.Arch.Matches(meta.Arch) {
			return j, nil
		}
	}

	archive, err := r.source.Resolve(ctx, c)
	if err != nil {
		return jdk.InstalledJdk{}, err
	}
	defer func() {
		if err := r.source.Release(ctx, archive); err != nil {
			logging.From(ctx).Warn("Failed to release archive", "path", archive.Path, "err", err)
		}
	}()

	installed, err := r.installation.Install(ctx, archive, meta)
	if err != nil {
		return jdk.InstalledJdk{}, fmt.Errorf("install %s: %w", c, err)
	}
	return installed, nil
}

// matchesInstalled checks a requirement against an installed JDK, using
// every version the JDK is registered under.
func (r *Resolver) matchesInstalled(req jdk.Requirement, j jdk.InstalledJdk) bool {
	if req.OS != "" && !req.OS.Matches(j.OS) {
		return false
	}
	if req.Arch != "" && !req.Arch.Matches(j.Arch) {
		return false
	}
	if req.Vendor != "" && !strings.EqualFold(req.Vendor, j.Vendor) {
		return false
	}
	if req.ReleaseType != "" && j.ReleaseType != "" && req.ReleaseType != j.ReleaseType {
		return false
	}
	if req.Range == nil {
		return true
	}
	return slices.ContainsFunc(r.scheme.ExpandForRegistration(j.Version), req.Range.Matches)
}

func (r *Resolver) matchingInstalled(ctx context.Context, req jdk.Requirement) ([]jdk.InstalledJdk, error) {
	if r.installation == nil {
		return nil, nil
	}
	all, err := r.installation.Installed(ctx)
	if err != nil {
		return nil, err
	}
	var out []jdk.InstalledJdk
	for _, j := range all {
		if r.matchesInstalled(req, j) {
			out = append(out, j)
		}
	}
	return out, nil
}

// bestInstalled returns the highest installed version matching req.
func (r *Resolver) bestInstalled(ctx context.Context, req jdk.Requirement) (jdk.InstalledJdk, bool, error) {
	matches, err := r.matchingInstalled(ctx, req)
	if err != nil || len(matches) == 0 {
		return jdk.InstalledJdk{}, false, err
	}
	best := slices.MaxFunc(matches, func(a, b jdk.InstalledJdk) int {
		return a.Version.Compare(b.Version)
	})
	return best, true, nil
}

// PurgeOptions widens what Purge removes.
type PurgeOptions struct {
	// AllPlatforms purges cached archives of every well-known platform
	// instead of only the requested one.
	AllPlatforms bool
	// JDKs also deletes matching installed JDKs.
	JDKs bool
}

// PurgeResult lists what Purge removed.
type PurgeResult struct {
	Archives []jdk.ResolvedArchive
	JDKs     []jdk.InstalledJdk
}

// Purge removes cached archives, and optionally installed JDKs, matching
// req. Every platform is attempted even if one fails.
func (r *Resolver) Purge(ctx context.Context, req jdk.Requirement, opts PurgeOptions) (PurgeResult, error) {
	var result PurgeResult
	base := r.prepareRequirement(req)

	reqs := []jdk.Requirement{base}
	if opts.AllPlatforms {
		reqs = reqs[:0]
		for _, p := range jdk.WellKnownPlatforms {
			reqs = append(reqs, base.WithPlatform(p))
		}
	}

	var merr *multierror.Error
	if r.source != nil {
		for _, q := range reqs {
			purged, err := r.source.Purge(ctx, q)
			result.Archives = append(result.Archives, purged...)
			if err != nil {
				merr = multierror.Append(merr, err)
			}
		}
	}

	if opts.JDKs {
		for _, q := range reqs {
			matches, err := r.matchingInstalled(ctx, q)
			if err != nil {
				merr = multierror.Append(merr, err)
				continue
			}
			for _, j := range matches {
				if err := r.installation.Delete(j.Dir); err != nil {
					merr = multierror.Append(merr, fmt.Errorf("delete %s: %w", j.Dir, err))
					continue
				}
				logging.From(ctx).Info("Deleted JDK", "dir", j.Dir)
				result.JDKs = append(result.JDKs, j)
			}
		}
	}
	return result, merr.ErrorOrNil()
}

// Registration is an installed JDK with the versions it answers to.
type Registration struct {
	JDK      jdk.InstalledJdk
	Versions []versionrange.Version
	// System is set for JDKs autojv did not install.
	System bool
}

// Registrations lists autojv-installed JDKs followed by the given system
// JDKs, each with its registration versions.
func (r *Resolver) Registrations(ctx context.Context, system []jdk.InstalledJdk) ([]Registration, error) {
	var installed []jdk.InstalledJdk
	if r.installation != nil {
		var err error
		if installed, err = r.installation.Installed(ctx); err != nil {
			return nil, err
		}
	}
	slices.SortFunc(installed, func(a, b jdk.InstalledJdk) int {
		if c := strings.Compare(a.Vendor, b.Vendor); c != 0 {
			return c
		}
		return a.Version.Compare(b.Version)
	})

	out := make([]Registration, 0, len(installed)+len(system))
	for _, j := range installed {
		out = append(out, Registration{JDK: j, Versions: r.scheme.ExpandForRegistration(j.Version)})
	}
	for _, j := range system {
		out = append(out, Registration{JDK: j, Versions: r.scheme.ExpandForRegistration(j.Version), System: true})
	}
	return out, nil
}
