//go:build dev || debug

package app

// debugBuild is set for `wails dev` and -tags debug builds
const debugBuild = true
