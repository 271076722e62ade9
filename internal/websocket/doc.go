// Package websocket provides the real-time event stream consumed by the
// launcher UI. A single Hub fans license validation progress and
// licensed/unlicensed transitions out to every connected page; the
// stream is one-way and clients never send application messages.
package websocket
