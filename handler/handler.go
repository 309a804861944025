package handler

import (
	"postfeed/auth"
	"postfeed/bus"
	"postfeed/feed"
	"postfeed/media"
)

type Handler struct {
	Store        *feed.Store
	Media        *media.Store
	Bus          *bus.Bus
	Tokens       *auth.TokenService
	EnableSignup bool
	Environment  string
}
