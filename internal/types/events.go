package types

type EventKind string

const (
	EventResolvingChannel   EventKind = "resolving-channel"
	EventResolvedRelease    EventKind = "resolved-release"
	EventUsingCachedRelease EventKind = "using-cached-release"
	EventDownloadBegin      EventKind = "download-begin"
	EventDownloadProgress   EventKind = "download-progress"
	EventDownloadEnd        EventKind = "download-end"
	EventExtracting         EventKind = "extracting"
	EventInstalling         EventKind = "installing"
	EventInstalled          EventKind = "installed"
	EventUsingExisting      EventKind = "using-existing"
	EventWaitingForLock     EventKind = "waiting-for-lock"
	EventUninstalling       EventKind = "uninstalling"
	EventUninstalled        EventKind = "uninstalled"
	EventNotInstalled       EventKind = "not-installed"
	EventSetDefault         EventKind = "set-default"
	EventSetOverride        EventKind = "set-override"
)

// Event is a typed notification emitted by the core while it works.
// Only the fields relevant to the kind are populated.
type Event struct {
	Kind      EventKind
	Toolchain string
	Channel   Channel
	Path      string
	URL       string
	PID       int

	// Download progress bookkeeping. Total is zero when the server
	// sends no content length.
	Total    int64
	Received int64
}
