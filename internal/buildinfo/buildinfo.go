// Package buildinfo exposes the version stamped in at link time:
//
//	go build -ldflags "-X fieldroute/internal/buildinfo.Version=v1.2.0 ..."
package buildinfo

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

// Info returns the build metadata reported by the health endpoint.
func Info() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
}
