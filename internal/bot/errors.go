package bot

import "errors"

var (
	// ErrMalformedInput indicates the message is neither a plate nor a known
	// brand.
	ErrMalformedInput = errors.New("please enter a valid license plate")

	// ErrMaintenance indicates the portal's nightly maintenance window is in
	// effect; no scrape is attempted.
	ErrMaintenance = errors.New("server under maintenance, please try again after 6am")

	// ErrBusy indicates the chat already has a lookup for the same plate in
	// the queue.
	ErrBusy = errors.New("your request for this plate is still being processed")
)
