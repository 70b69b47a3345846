// Package tasksync links tickets to the tasks created from them.
//
// Conversion runs in two phases around the ticket update: the before-hook
// sets the isConvertedToTask latch so it is committed with the client's own
// write, and the after-hook creates the task, its comment thread and the
// references between ticket and task. After conversion the task is the
// source of truth; its status and first assignee flow to the ticket and
// never the other way.
package tasksync
