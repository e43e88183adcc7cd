// Package system implements the item applier contracts over the host's
// native tooling: winget for packages, reg.exe for the registry, sc.exe
// for services, and dism.exe for optional features. Command execution is
// injectable so the adapters test without a live system.
package system
