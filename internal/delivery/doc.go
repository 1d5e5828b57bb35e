// Package delivery hands rendered messages to the operator's channel.
//
// The default channel is a shell command with a {MESSAGE} placeholder, run via
// sh -c with a timeout. A shoutrrr service URL can replace it. Deliveries can be
// rate limited, and a dry-run deliverer only logs. None of them retry.
package delivery
