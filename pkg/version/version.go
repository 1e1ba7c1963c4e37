package version

// Version is the catalog version, injected at build time:
// go build -ldflags "-X github.com/locallibrary/catalog/pkg/version.Version=1.0.0".
var Version = "dev"
