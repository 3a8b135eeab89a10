package main

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mutagen-io/refstore/pkg/logging"
	"github.com/mutagen-io/refstore/pkg/profile"
	"github.com/mutagen-io/refstore/pkg/refs"
	"github.com/mutagen-io/refstore/pkg/refsconfig"
)

// rootLogger is the logger threaded into every Repository opened by
// refctl; REFSTORE_DEBUG gates its Debug output.
var rootLogger = logging.RootLogger.Sublogger("refctl")

// openRepository binds a refs.Repository to rootConfiguration.root, merging
// the on-disk .refstore.yaml configuration (if any) — refsRoot,
// packedRefsFile, tagPrefix, and lockTimeout — with the --lock-timeout flag
// and --odb-dir flag.
func openRepository() (*refs.Repository, error) {
	config, err := refsconfig.Load(rootConfiguration.root)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load configuration")
	}

	lockTimeout := config.LockTimeout
	if rootCommand.PersistentFlags().Changed("lock-timeout") && rootConfiguration.lockTimeoutSeconds > 0 {
		lockTimeout = time.Duration(rootConfiguration.lockTimeoutSeconds * float64(time.Second))
	}

	repo := refs.Open(
		rootConfiguration.root,
		newFSODB(rootConfiguration.odbDir),
		refs.WithReflog(noopReflog{}),
		refs.WithLogger(rootLogger),
		refs.WithLockTimeout(lockTimeout),
		refs.WithRefsPrefix(config.RefsRoot),
		refs.WithTagPrefix(config.TagPrefix),
		refs.WithPackedRefsFileName(config.PackedRefsFile),
	)
	return repo, nil
}

// withProfile runs fn, wrapping it in a CPU profile if --profile was
// supplied (§11.E, perf debugging of packall against large loose trees).
func withProfile(fn func() error) error {
	if rootConfiguration.profile == "" {
		return fn()
	}

	p, err := profile.New(rootConfiguration.profile)
	if err != nil {
		return errors.Wrap(err, "unable to start profile")
	}
	fnErr := fn()
	if finalizeErr := p.Finalize(); finalizeErr != nil {
		rootLogger.Warn(errors.Wrap(finalizeErr, "unable to finalize profile"))
	}
	return fnErr
}
