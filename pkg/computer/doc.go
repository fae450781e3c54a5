// Package computer drives a Chromium browser the way a computer-use agent sees it:
// a fixed-size screen that accepts pointer, keyboard and navigation actions and
// returns screenshots.
//
// A Session is opened with Open (or scoped with Use). It either attaches to a
// browser already listening for the DevTools protocol on localhost or launches a
// fresh headed one, installs the request blocklist and the optional cursor overlay
// on the browser context, and tracks which page is active as tabs open and close.
//
// All actions run on the caller's goroutine. Page events raised by the driver are
// queued and applied at the start of the next action, so the active page never
// changes underneath a running action.
package computer
