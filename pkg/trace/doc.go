// Package trace associates decoded STP packets with the master and
// channel they were sent on.
package trace
