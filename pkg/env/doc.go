// Package env provides configuration shared by the STP commands.
package env
