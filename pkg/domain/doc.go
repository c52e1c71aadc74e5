/*
Package domain contains the core model of the Spindle dialog engine.

It defines the script graph produced by the compiler and the values the runner
hands back to hosts. This package is kept pure and free of I/O, following
Hexagonal Architecture principles.

# Key Entities

  - Node: a titled block of lines, a vertex in the dialog graph.
  - Line: one of SetLine, CommandLine, DialogLine, JumpLine or OptionLine.
  - Dialog: the resolved, read-only arena of nodes shared by runners.
  - Event: what a runner produces on each step (dialog, options, waiting, end).
  - DialogState: the runner's Start/Dialog/Waiting/End state machine position.
*/
package domain
