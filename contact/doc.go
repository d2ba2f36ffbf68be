// Package contact persists contact form messages to a flat JSON file.
package contact
