// Package process binds script commands to allow-listed local programs.
package process
