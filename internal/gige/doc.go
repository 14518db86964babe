// Package gige is the device registry and firmware upload orchestrator for
// GigE Vision cameras.
//
// Every device operation goes through a Bridge, the boundary to the vendor
// discovery/configuration/flashing library. On top of it:
//
//   - Registry: full-refresh discovery and identifier lookup
//   - Controller: persistent parameter writes and rescue (temporary IP)
//   - Sequencer: contiguous IP assignment for a batch of cameras
//   - Coordinator: single and batch firmware uploads with sequential retry
//
// Bridge calls are blocking. They may run concurrently for different devices
// but never for the same device.
package gige
