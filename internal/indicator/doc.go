// Package indicator drives the node's status light: steady on while
// connected, blinking while a connection attempt is in progress, off
// otherwise.
package indicator
