// Package logx configures ampsched's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//
// The daemon runs unattended on small appliance boxes, so the file sink is
// the primary record and the console sink is for interactive debugging.
package logx
