package router

import "github.com/google/wire"

// ProviderSet provides the http router.
var ProviderSet = wire.NewSet(NewRouter)
