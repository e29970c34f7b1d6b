// Command goggles is the operator CLI for the import queue: it enqueues and
// inspects rows, triggers the import-queue and issue cleanup jobs, toggles
// maintenance mode, manages issue reports and runs the worker daemon.
package main
