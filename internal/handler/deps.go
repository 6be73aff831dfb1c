package handler

import (
	"havenchat/internal/app/identity"
	"havenchat/internal/app/relay"
	"havenchat/internal/app/storage"
	"havenchat/internal/configs"
)

// AppDeps bundles the wired application services the handlers need.
type AppDeps struct {
	Config    *configs.AppConfig
	Relay     *relay.Relay
	Directory identity.Directory
	Storage   storage.Service
}
