package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"leanup/internal/ports"
	"leanup/internal/shared"
	"leanup/internal/types"
)

const defaultHostTimeout = 30 * time.Second

// maxResponseBytes bounds release host response bodies (10 MB).
const maxResponseBytes = 10 << 20

// tagLinkRe matches the release tag in a redirect or HTML page.
var tagLinkRe = regexp.MustCompile(`/tag/([A-Za-z0-9._-]+)`)

// GitHubReleaseHost resolves channels and locates release assets. The
// built-in default origin is queried through the structured JSON
// release feed, which distinguishes channels precisely; arbitrary
// origins fall back to scraping the public releases pages, where beta
// cannot be distinguished and is unsupported.
type GitHubReleaseHost struct {
	Client     *http.Client
	BaseURL    string
	APIBaseURL string
	RawBaseURL string
	UserAgent  string
}

func NewGitHubReleaseHost() GitHubReleaseHost {
	return GitHubReleaseHost{
		Client:     &http.Client{Timeout: defaultHostTimeout},
		BaseURL:    "https://github.com",
		APIBaseURL: "https://api.github.com",
		RawBaseURL: "https://raw.githubusercontent.com",
		UserAgent:  "leanup",
	}
}

type releaseFeedEntry struct {
	TagName    string             `json:"tag_name"`
	Prerelease bool               `json:"prerelease"`
	Draft      bool               `json:"draft"`
	Assets     []releaseFeedAsset `json:"assets"`
}

type releaseFeedAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// FetchToolchainPin retrieves the plaintext toolchain pin from the
// origin repository's default branch.
func (h GitHubReleaseHost) FetchToolchainPin(ctx context.Context, origin string) (string, error) {
	url := fmt.Sprintf("%s/%s/HEAD/%s", h.RawBaseURL, origin, types.PinSentinel)
	return h.fetchURL(ctx, url)
}

// LatestRelease resolves a floating channel to the newest release tag
// published by the origin.
func (h GitHubReleaseHost) LatestRelease(ctx context.Context, origin string, channel types.Channel) (string, error) {
	if h.isDefaultOrigin(origin) {
		return h.latestFromFeed(ctx, origin, channel)
	}
	if channel == types.ChannelBeta {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("beta channel is not supported for origin '%s'", origin))
	}
	return h.latestFromScrape(ctx, origin)
}

// FindAssetURL locates the download URL of the release asset whose
// name contains the platform substring.
func (h GitHubReleaseHost) FindAssetURL(ctx context.Context, origin string, release string, platform string) (string, error) {
	if h.isDefaultOrigin(origin) {
		return h.assetFromFeed(ctx, origin, release, platform)
	}
	return h.assetFromScrape(ctx, origin, release, platform)
}

func (h GitHubReleaseHost) isDefaultOrigin(origin string) bool {
	return origin == types.DefaultOrigin || origin == types.DefaultOrigin+types.NightlyOriginSuffix
}

func (h GitHubReleaseHost) latestFromFeed(ctx context.Context, origin string, channel types.Channel) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=30", h.APIBaseURL, origin)
	body, err := h.fetchURL(ctx, url)
	if err != nil {
		return "", err
	}
	var entries []releaseFeedEntry
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to decode release feed").
			WithCause(err)
	}
	for _, entry := range entries {
		if entry.Draft {
			continue
		}
		switch channel {
		case types.ChannelStable:
			if entry.Prerelease {
				continue
			}
		case types.ChannelBeta:
			if !entry.Prerelease {
				continue
			}
		}
		return entry.TagName, nil
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("no %s release found for '%s'", channel, origin))
}

// latestFromScrape reads the releases/latest page instead of the API
// to avoid rate limits, and extracts the tag from its link pattern.
func (h GitHubReleaseHost) latestFromScrape(ctx context.Context, origin string) (string, error) {
	url := fmt.Sprintf("%s/%s/releases/latest", h.BaseURL, origin)
	body, err := h.fetchURL(ctx, url)
	if err != nil {
		return "", err
	}
	captures := tagLinkRe.FindStringSubmatch(body)
	if captures == nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("failed to find latest release tag of '%s'", origin))
	}
	return captures[1], nil
}

func (h GitHubReleaseHost) assetFromFeed(ctx context.Context, origin string, release string, platform string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", h.APIBaseURL, origin, release)
	body, err := h.fetchURL(ctx, url)
	if err != nil {
		return "", err
	}
	var entry releaseFeedEntry
	if err := json.Unmarshal([]byte(body), &entry); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to decode release feed").
			WithCause(err)
	}
	for _, asset := range entry.Assets {
		if strings.Contains(asset.Name, platform) {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", noAssetErr(platform)
}

func (h GitHubReleaseHost) assetFromScrape(ctx context.Context, origin string, release string, platform string) (string, error) {
	url := fmt.Sprintf("%s/%s/releases/tag/%s", h.BaseURL, origin, release)
	body, err := h.fetchURL(ctx, url)
	if err != nil {
		return "", err
	}
	downloadRe, err := regexp.Compile(fmt.Sprintf(`/%s/releases/download/[^"]+`, regexp.QuoteMeta(origin)))
	if err != nil {
		return "", err
	}
	for _, match := range downloadRe.FindAllString(body, -1) {
		if strings.Contains(match, platform) {
			return h.BaseURL + match, nil
		}
	}
	return "", noAssetErr(platform)
}

func (h GitHubReleaseHost) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", h.UserAgent)
	resp, err := h.Client.Do(req)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to fetch '%s'", url)).
			WithCause(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to read response of '%s'", url)).
			WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return "", errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("release host request failed").
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, url, snippet))
	}
	return string(body), nil
}

func noAssetErr(platform string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("binary package was not provided for '%s'", platform))
}

var _ ports.ReleaseHostPort = GitHubReleaseHost{}
