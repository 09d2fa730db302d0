package types

// AppName identifies the service in logs and health responses.
const AppName = "ghsnap"

// Version is the application version. Overwritten at release build time via
// -ldflags "-X github.com/m-mizutani/ghsnap/pkg/domain/types.Version=vX.Y.Z".
var Version = "dev"
