package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// APIPath is the prefix of the JSON API.
	APIPath = RootPath + "api"

	// ErrNilACDFatalLogMsg is used if app or cfg or engine var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or engine is nil"

	// MsgBadCredentials is the body of a rejected sign in.
	MsgBadCredentials = "Authentication Failed, Wrong credentials"
)
