//go:build !dev && !debug

package app

const debugBuild = false
