// Package telemetry defines the event log vocabulary of the usage reporting
// tables and reduces raw rows into per-installation timelines.
//
// Every cohort metric in the analytics package is phrased against a
// Timeline: one email's events in (created, id) order, each with its detail
// counters attached. "Latest row" questions are always answered per user.
package telemetry
