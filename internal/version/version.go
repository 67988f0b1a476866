package version

var (
	AppName    = "chatwarden"
	AppVersion = "0.3.0"
)
