package models

// TargetKind names the execution mode of a session.
type TargetKind string

const (
	KindLocal         TargetKind = "local"
	KindStatic        TargetKind = "static"
	KindRemoteDesktop TargetKind = "remote_desktop"
	KindRemoteMobile  TargetKind = "remote_mobile"
)

// Target is the environment a session runs in. It is one of LocalTarget,
// StaticTarget, RemoteDesktopTarget or RemoteMobileTarget.
type Target interface {
	Kind() TargetKind
	Remote() bool
}

// LocalTarget runs a headless browser on this machine.
type LocalTarget struct{}

func (LocalTarget) Kind() TargetKind { return KindLocal }
func (LocalTarget) Remote() bool     { return false }

// StaticTarget fetches the page over plain HTTP without executing scripts.
type StaticTarget struct{}

func (StaticTarget) Kind() TargetKind { return KindStatic }
func (StaticTarget) Remote() bool     { return false }

// RemoteDesktopTarget is a desktop OS/browser profile on the remote grid.
type RemoteDesktopTarget struct {
	OS             string
	OSVersion      string
	Browser        string
	BrowserVersion string
}

func (RemoteDesktopTarget) Kind() TargetKind { return KindRemoteDesktop }
func (RemoteDesktopTarget) Remote() bool     { return true }

// RemoteMobileTarget is a real mobile device profile on the remote grid.
type RemoteMobileTarget struct {
	Device    string
	OSVersion string
	Browser   string
}

func (RemoteMobileTarget) Kind() TargetKind { return KindRemoteMobile }
func (RemoteMobileTarget) Remote() bool     { return true }

// SessionConfig identifies one run target. Name is unique within a run.
type SessionConfig struct {
	Name   string
	Target Target
}

// Remote reports whether the session needs remote grid credentials.
func (c SessionConfig) Remote() bool {
	return c.Target != nil && c.Target.Remote()
}
