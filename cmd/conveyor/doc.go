// Command conveyor is the CLI entry point for the content automation
// pipeline: it runs the processing daemon, registers source media, and
// inspects the work queue.
package main
