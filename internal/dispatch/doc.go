// Package dispatch turns one operator request into a report.
//
// An invocation moves through parsing_directives, evaluating, capturing,
// paginating and reporting, and ends in reported_success or
// reported_failure. Any error before pagination aborts straight to
// reported_failure; half-finished output is never reported.
//
// Every sandbox gets two extra globals. DEBUG lists the allowed standard
// modules, enabled features, vmconf settings and capability names. message
// is the triggering chat message, and message.channel.send collects text
// into Report.Sent for the transport to deliver after the pages.
package dispatch
