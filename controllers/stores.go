package controllers

import (
	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/store"
)

// Responses is the process-wide response store; main wires it up after the
// DB connects, tests rewire it against their in-memory DB.
var Responses *store.ResponseStore

func InitStores() {
	Responses = store.NewResponseStore(config.DB)
	initBadges()
}
