package runtime

// ControlSurface is a network-facing process that translates external
// requests into hardware calls. Start must be non-blocking and return once
// the surface is listening; Stop must block until every goroutine the
// surface owns has exited, and must be safe to call again (or after the
// surface already terminated on its own).
type ControlSurface interface {
	Name() string
	Start() error
	Stop()
}
