// Package notify computes who hears about a task change and turns each
// notification into durable push and email jobs.
//
// Recipients are the task's assignees, followers and mentioned users, minus
// whoever made the change. Delivery happens later on the push and email
// queues; failures there are retried by the queue and never reach the
// request that caused the notification.
package notify
