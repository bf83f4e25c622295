// Package scrape drives the captcha-protected road-tax portal through a
// headless browser: navigate, capture and solve the captcha, submit the
// enquiry form, and extract the vehicle make and tax expiry.
//
// All failures surface as one of the classified errors below; callers never
// see raw automation errors.
package scrape

import "errors"

var (
	// ErrTransport indicates the portal page could not be reached or driven.
	// Reported with a generic retry-later message; never retried
	// automatically.
	ErrTransport = errors.New("portal unreachable, please try again later")

	// ErrNoCaptcha indicates the captcha widget never appeared. The next
	// user-initiated request retries naturally.
	ErrNoCaptcha = errors.New("no captcha found, please try again later")

	// ErrCaptcha indicates the captcha image could not be produced or
	// solved.
	ErrCaptcha = errors.New("captcha could not be solved, please try again")

	// ErrNoResult indicates the portal reported no record for the plate.
	ErrNoResult = errors.New("no results for plate")

	// ErrTimeout indicates an internal step exceeded its wait budget.
	ErrTimeout = errors.New("timeout, try again later")
)
