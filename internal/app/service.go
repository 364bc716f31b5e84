package app

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"leanup/internal/adapters"
	"leanup/internal/core"
	"leanup/internal/ports"
)

const (
	// EnvHome overrides the leanup home directory.
	EnvHome = "LEANUP_HOME"

	// EnvToolchain overrides the governing toolchain for the whole
	// process, taking precedence over every directory-scoped source.
	EnvToolchain = "LEANUP_TOOLCHAIN"

	settingsFileName  = "settings.toml"
	toolchainsDirName = "toolchains"
	downloadsDirName  = "downloads"
	rootsFileName     = "known-projects"
)

// Service owns the process-wide context: home layout, collaborator
// ports and the notification sink. It is constructed once per
// invocation and passed by reference.
type Service struct {
	Home          string
	ToolchainsDir string
	DownloadsDir  string

	Settings   ports.SettingsStorePort
	Roots      ports.RootRegistryPort
	Host       ports.ReleaseHostPort
	Downloader ports.DownloadPort
	Unpacker   ports.UnpackerPort
	Observer   ports.ObserverPort

	EnvOverride string
}

// NewService builds a service from the environment with the default
// file-backed and HTTP-backed adapters.
func NewService(observer ports.ObserverPort) (*Service, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to locate home directory").
				WithCause(err)
		}
		home = filepath.Join(userHome, ".leanup")
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create leanup home").
			WithCause(err)
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &Service{
		Home:          home,
		ToolchainsDir: filepath.Join(home, toolchainsDirName),
		DownloadsDir:  filepath.Join(home, downloadsDirName),
		Settings:      adapters.NewSettingsFileStore(filepath.Join(home, settingsFileName)),
		Roots:         adapters.NewRootRegistryFile(filepath.Join(home, rootsFileName)),
		Host:          adapters.NewGitHubReleaseHost(),
		Downloader:    adapters.NewHTTPDownloader(),
		Unpacker:      adapters.NewArchiveUnpacker(),
		Observer:      observer,
		EnvOverride:   os.Getenv(EnvToolchain),
	}, nil
}

// resolver assembles the core resolver against this service's ports
// and installed-toolchain probes.
func (s *Service) resolver() core.Resolver {
	return core.NewResolver(s.Host, s.installedReleases, s.isCustomLocal, s.Observer)
}

// locator assembles the core override locator.
func (s *Service) locator() core.OverrideLocator {
	return core.NewOverrideLocator(s.ToolchainsDir, s.Settings, s.Roots, s.Lookup)
}
