package domain

import "time"

// ScreenResolution is the client-reported display size, part of the
// fingerprint input.
type ScreenResolution struct {
	Width  int
	Height int
}

// Fingerprint is the bundle of client-observable attributes a device id is
// derived from. The canvas and WebGL values are opaque rendering-derived
// signature strings; the server never interprets them.
type Fingerprint struct {
	UserAgent         string
	ScreenResolution  ScreenResolution
	TimezoneOffset    int
	CanvasFingerprint string
	WebGLFingerprint  string
}

// DeviceRecord is the stored fingerprint for a derived device id. It is
// overwritten on every permission request; Browser, OS and DeviceType are
// parsed server-side from the user agent.
type DeviceRecord struct {
	DeviceID    string
	Fingerprint Fingerprint
	Browser     string
	OS          string
	DeviceType  string
	SessionID   string
	LastSeen    time.Time
}
