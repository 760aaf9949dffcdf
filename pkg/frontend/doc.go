// Package frontend holds what every frontend shares: the periodic tick loop
// that drains deferred results on the caller's goroutine, the lazily created
// scheduler, the startup update check and the Frontend contract implemented
// by the terminal and headless variants.
package frontend
