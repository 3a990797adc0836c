package version

import "fmt"

var (
	// Set via -ldflags "-X github.com/lunemec/eve-ledger/pkg/version.Version=..."
	Version = "dev"
	Commit  = "none"

	VersionString = fmt.Sprintf("eve-ledger %s (%s)", Version, Commit)
)
