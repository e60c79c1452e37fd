package appinfo

// Name is the user-facing application name, reported in the WS hello
// handshake as daemon_version's prefix.
const Name = "runbookd"

// Version is the user-facing semantic version.
//
// Keep this as a var so it can be overridden at build time via:
//
//	-ldflags "-X github.com/EffortlessMetrics/runbookd/internal/appinfo.Version=0.2.0"
var Version = "0.1.0"

func Display() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	return Name + " v" + v
}
