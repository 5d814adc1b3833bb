// Package link provides the network links the connectivity supervisor drives.
//
//   - Static: always connected (wired or development hosts)
//   - Probe: connected while a TCP dial to a known address succeeds
//   - NMCLI: joins a Wi-Fi network through NetworkManager
//
// The MQTT client in internal/infrastructure/mqtt also satisfies Link.
//
// Probe and NMCLI attempt the connection in a background goroutine and
// re-check it every keepalive interval; IsConnected reads an atomic flag and
// never blocks the scheduler.
package link
