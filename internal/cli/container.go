package cli

import (
	"net/http"

	logger "github.com/sirupsen/logrus"
	"go.uber.org/dig"

	"github.com/cbout22/lat/internal/alias"
	"github.com/cbout22/lat/internal/auth"
	"github.com/cbout22/lat/internal/config"
	"github.com/cbout22/lat/internal/injector"
	"github.com/cbout22/lat/internal/resolver"
	"github.com/cbout22/lat/internal/selfupdate"
)

// registerProviders registers every component of one invocation with the
// container, bottom-up: settings, transport, resolver, then the consumers.
func registerProviders(container *dig.Container, opts *rootOptions) error {
	providers := []any{
		func() (*config.Settings, error) {
			s, err := config.Load(opts.configPath)
			if err != nil {
				return nil, err
			}
			if s.Debug {
				logger.SetLevel(logger.DebugLevel)
			}
			logger.Debugf("[cli] bin dir %s, work dir %s", s.BinDir, s.WorkDir)
			return s, nil
		},
		func(s *config.Settings) *http.Client {
			return auth.NewHTTPClient(s.UserAgent+"/"+version, s.APIURL, s.Timeout)
		},
		resolver.New,
		func(r *resolver.Resolver) resolver.Source { return r },
		func(s *config.Settings) *alias.Store {
			return alias.Open(s.AliasPath())
		},
		func() injector.Confirmer {
			return terminalConfirmer(opts.stdin, opts.stdout)
		},
		func(s *config.Settings, confirm injector.Confirmer) *injector.Injector {
			return injector.New(&injector.OSFileWriter{}, s, confirm)
		},
		newUpdater,
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return err
		}
	}
	return nil
}

func newUpdater(s *config.Settings, r *resolver.Resolver) *selfupdate.Updater {
	updaterOpts := []selfupdate.UpdaterOption{
		selfupdate.WithReleaseClient(selfupdate.NewReleaseClient(r,
			selfupdate.WithBaseURL(s.APIURL),
			selfupdate.WithRepo(s.UpdateOwner, s.UpdateRepo),
		)),
	}
	if s.UpdateURL != "" {
		updaterOpts = append(updaterOpts, selfupdate.WithUpdateURL(s.UpdateURL))
	}
	return selfupdate.NewUpdater(version, r, updaterOpts...)
}

// invoke builds a fresh container and calls fn with its dependencies. Errors
// from providers are reduced to their root cause so users see the real
// problem instead of the container's call chain.
func (o *rootOptions) invoke(fn any) error {
	container := dig.New()
	if err := registerProviders(container, o); err != nil {
		return err
	}
	if err := container.Invoke(fn); err != nil {
		return dig.RootCause(err)
	}
	return nil
}
