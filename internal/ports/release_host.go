package ports

import (
	"context"

	"leanup/internal/types"
)

// ReleaseHostPort answers version and asset queries against the remote
// release host. Implementations pick the query strategy per origin: a
// structured JSON release feed for the built-in default origin, or
// HTML scraping for arbitrary origins.
type ReleaseHostPort interface {
	// FetchToolchainPin retrieves the plaintext toolchain pin from the
	// origin repository's default branch.
	FetchToolchainPin(ctx context.Context, origin string) (string, error)

	// LatestRelease resolves a floating channel to the latest concrete
	// release tag published by the origin.
	LatestRelease(ctx context.Context, origin string, channel types.Channel) (string, error)

	// FindAssetURL locates the download URL of the release asset whose
	// name contains the platform substring. A missing asset for the
	// requested platform is a hard error, not a retry on another one.
	FindAssetURL(ctx context.Context, origin string, release string, platform string) (string, error)
}

// DownloadPort streams a URL to a local file, reporting progress
// through the observer.
type DownloadPort interface {
	Download(ctx context.Context, url string, dest string, observer ObserverPort) error
}

// UnpackerPort extracts a downloaded archive into a directory. The
// format is dispatched on the archive filename suffix.
type UnpackerPort interface {
	Unpack(archivePath string, destDir string) error
}
