package resolver

import (
	"fmt"
	"path/filepath"

	"autojv/internal/catalog"
	"autojv/internal/config"
	"autojv/internal/installer"
	"autojv/internal/jdk"
	"autojv/internal/repository"
	"autojv/internal/selector"
	"autojv/internal/throttle"
	"autojv/internal/translate"

	"github.com/charmbracelet/log"
)

// updateChecksFile records remote checks for resolve requests. It sits in
// the cache root, which the artifact store ignores because it is not a
// directory.
const updateChecksFile = "update-checks.yaml"

// Setup carries per-invocation settings that are not part of the config
// file.
type Setup struct {
	Logger     *log.Logger
	OnProgress installer.ProgressFunc
}

// FromConfig builds a resolver with the sources, policies and directories
// the configuration names. In offline mode only cached archives are
// searched and update checks never happen.
func FromConfig(cfg *config.Config, setup Setup) (*Resolver, error) {
	scheme, err := translate.ParseScheme(cfg.VersionTranslation)
	if err != nil {
		return nil, err
	}
	strategy, err := repository.ParseStrategy(cfg.SearchStrategy)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	store := repository.NewStore(cfg.CacheDir())
	var sources []jdk.Source
	var checker *throttle.Checker

	if !cfg.Offline {
		policy, err := throttle.ParsePolicy(cfg.UpdatePolicy)
		if err != nil {
			return nil, fmt.Errorf("update_policy: %w", err)
		}
		checker = throttle.NewChecker(policy, throttle.NewMetadataFile(filepath.Join(cfg.CacheDir(), updateChecksFile)))

		opts := catalog.Options{Timeout: timeout, Retries: cfg.Retries(), Logger: setup.Logger}
		downloader := installer.NewDownloader(catalog.NewHTTPClient(opts))
		downloader.OnProgress = setup.OnProgress

		for _, name := range cfg.Catalogs {
			clientOpts := opts
			clientOpts.BaseURL = CatalogURL(cfg, name)
			client, err := catalog.New(name, clientOpts)
			if err != nil {
				return nil, err
			}
			src := repository.NewCatalogSource(client, downloader)
			sources = append(sources, repository.NewErrorSuppressing(repository.NewCaching(client.Name(), store, src)))
		}
	}
	// The cache goes last so that a first-success search only falls back
	// to it when every catalog came up empty or failed.
	sources = append(sources, repository.NewStoreSource(store))

	return New(Options{
		Scheme:       scheme,
		Selector:     selector.New(cfg.Vendors),
		Source:       repository.NewComposite(strategy, sources...),
		Installation: installer.NewInstallation(cfg.JDKDir()),
		Checker:      checker,
	}), nil
}

// CatalogURL returns the configured base URL override for a catalog, or ""
// for its default.
func CatalogURL(cfg *config.Config, name string) string {
	switch name {
	case "foojay":
		return cfg.FoojayURL
	case "adoptium":
		return cfg.AdoptiumURL
	}
	return ""
}

// CacheStore returns the artifact store a configuration uses.
func CacheStore(cfg *config.Config) *repository.Store {
	return repository.NewStore(cfg.CacheDir())
}
