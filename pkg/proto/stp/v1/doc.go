// Package v1 defines the wire messages for published STP records.
package v1
