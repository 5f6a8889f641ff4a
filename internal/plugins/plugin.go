package plugins

import "context"

// Plugin is a capability module registered with the shell before the run loop starts.
// Its exported methods are bound to the frontend.
type Plugin interface {
	Name() string
	// Init runs once at registration; an error aborts startup
	Init(ctx context.Context) error
}

// Starter is implemented by plugins that need the Wails runtime context
type Starter interface {
	Startup(ctx context.Context)
}

// Stopper is implemented by plugins holding resources
type Stopper interface {
	Shutdown(ctx context.Context) error
}
